package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "premium"

// PaymentMetrics 支付链路指标。nil 接收者上的调用为空操作。
type PaymentMetrics struct {
	intentsCreated    *prometheus.CounterVec
	returnsHandled    *prometheus.CounterVec
	signatureRejected prometheus.Counter
	amount            *prometheus.HistogramVec
	swept             *prometheus.CounterVec
}

// NewRegistry 带 Go 运行时与进程指标的注册表
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func NewPaymentMetrics(registry *prometheus.Registry) *PaymentMetrics {
	factory := promauto.With(registry)

	return &PaymentMetrics{
		intentsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_intents_total",
				Help:      "Payment intents created, by plan key",
			},
			[]string{"plan"},
		),
		returnsHandled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_returns_total",
				Help:      "Gateway returns handled, by result indicator",
			},
			[]string{"result"},
		),
		signatureRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_signature_rejected_total",
				Help:      "Gateway returns rejected because the secure hash did not match",
			},
		),
		amount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "payment_amount_vnd",
				Help:      "Settled payment amounts in VND",
				Buckets:   prometheus.ExponentialBuckets(10000, 4, 6),
			},
			[]string{"status"},
		),
		swept: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeper_records_total",
				Help:      "Records transitioned by the sweeper",
			},
			[]string{"kind"},
		),
	}
}

func (m *PaymentMetrics) IncIntentCreated(planKey string) {
	if m == nil {
		return
	}
	m.intentsCreated.WithLabelValues(planKey).Inc()
}

func (m *PaymentMetrics) IncReturn(result string) {
	if m == nil {
		return
	}
	m.returnsHandled.WithLabelValues(result).Inc()
}

func (m *PaymentMetrics) IncSignatureRejected() {
	if m == nil {
		return
	}
	m.signatureRejected.Inc()
}

func (m *PaymentMetrics) ObserveSettled(amount int64, status string) {
	if m == nil {
		return
	}
	m.amount.WithLabelValues(status).Observe(float64(amount))
}

func (m *PaymentMetrics) AddSwept(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.WithLabelValues(kind).Add(float64(n))
}

// Handler /metrics 暴露端点
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
