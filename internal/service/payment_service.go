package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/phim_premium_server/internal/model"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/metrics"
	"github.com/qs3c/phim_premium_server/internal/pkg/pubsub"
	"github.com/qs3c/phim_premium_server/internal/pkg/vnpay"
	"github.com/qs3c/phim_premium_server/internal/repository"
)

// ReturnStatus 网关回跳处理结果，作为 ?payment= 回传给前端
type ReturnStatus string

const (
	ReturnSuccess     ReturnStatus = "success"
	ReturnFailed      ReturnStatus = "failed"
	ReturnInvalid     ReturnStatus = "invalid"
	ReturnNotFound    ReturnStatus = "notfound"
	ReturnPlanMissing ReturnStatus = "plan_missing"
	ReturnUserMissing ReturnStatus = "user_missing"
	ReturnError       ReturnStatus = "error"
	ReturnProcessed   ReturnStatus = "processed"
)

const orderInfoPrefix = "Thanh toán gói "

// SettlementPublisher 结算事件发布
type SettlementPublisher interface {
	PublishSettled(ctx context.Context, evt *pubsub.PaymentEvent) error
}

// SettlementArchiver 网关回传参数归档
type SettlementArchiver interface {
	ArchiveSettlement(transactionID string, settledAt time.Time, data []byte) (string, error)
}

type PaymentService struct {
	planRepo    *repository.PlanRepository
	paymentRepo *repository.PaymentRepository
	tx          *repository.TxManager
	gateway     *vnpay.Client
	pendingTTL  time.Duration

	publisher SettlementPublisher
	archiver  SettlementArchiver
	metrics   *metrics.PaymentMetrics
	now       func() time.Time
}

func NewPaymentService(
	planRepo *repository.PlanRepository,
	paymentRepo *repository.PaymentRepository,
	tx *repository.TxManager,
	gateway *vnpay.Client,
	pendingTTL time.Duration,
) *PaymentService {
	return &PaymentService{
		planRepo:    planRepo,
		paymentRepo: paymentRepo,
		tx:          tx,
		gateway:     gateway,
		pendingTTL:  pendingTTL,
		now:         time.Now,
	}
}

func (s *PaymentService) WithPublisher(p SettlementPublisher) *PaymentService {
	s.publisher = p
	return s
}

func (s *PaymentService) WithArchiver(a SettlementArchiver) *PaymentService {
	s.archiver = a
	return s
}

func (s *PaymentService) WithMetrics(m *metrics.PaymentMetrics) *PaymentService {
	s.metrics = m
	return s
}

func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// NewTransactionID vnp_<毫秒时间戳>_<12 位随机十六进制>
func NewTransactionID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "vnp_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + random[:12]
}

// CreateIntent 创建待支付记录并返回网关跳转地址
func (s *PaymentService) CreateIntent(ctx context.Context, userID int64, planKey, clientIP string) (string, error) {
	planKey = strings.TrimSpace(planKey)
	if planKey == "" {
		return "", ErrPlanKeyRequired
	}

	plan, err := s.planRepo.GetActiveByKey(planKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPlanNotFound
		}
		return "", fmt.Errorf("load plan %s: %w", planKey, err)
	}

	now := s.now()
	txnID := NewTransactionID(now)

	paymentURL, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:    txnID,
		Amount:    plan.Price,
		OrderInfo: orderInfoPrefix + plan.Name,
		IPAddr:    clientIP,
		CreatedAt: now,
		ExpireAt:  now.Add(s.pendingTTL),
	})
	if err != nil {
		return "", fmt.Errorf("build payment url: %w", err)
	}

	payment := &model.Payment{
		UserID:        userID,
		Amount:        plan.Price,
		Currency:      plan.Currency,
		Method:        model.PaymentMethodVNPay,
		Status:        model.PaymentPending,
		TransactionID: txnID,
		Metadata:      model.NewIntentMetadata(plan),
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return "", fmt.Errorf("create payment: %w", err)
	}

	s.metrics.IncIntentCreated(plan.Key)
	logger.WithTxn(txnID, userID).WithFields(logrus.Fields{
		"plan":   plan.Key,
		"amount": plan.Price,
	}).Info("payment intent created")

	return paymentURL, nil
}

// HandleReturn 处理网关回跳。任何情况下都返回一个结果，不向调用方暴露内部错误。
func (s *PaymentService) HandleReturn(ctx context.Context, params map[string]string) ReturnStatus {
	result := s.handleReturn(ctx, params)
	s.metrics.IncReturn(string(result))
	return result
}

func (s *PaymentService) handleReturn(ctx context.Context, params map[string]string) ReturnStatus {
	txnID := params[vnpay.ParamTxnRef]

	if err := s.gateway.Verify(params); err != nil {
		s.metrics.IncSignatureRejected()
		logger.L.WithFields(logrus.Fields{
			"transaction_id": txnID,
			"response_code":  params[vnpay.ParamResponseCode],
		}).WithError(err).Warn("gateway return rejected")
		return ReturnInvalid
	}

	payment, err := s.paymentRepo.GetByTransactionID(txnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.L.WithField("transaction_id", txnID).Warn("payment not found")
			return ReturnNotFound
		}
		logger.L.WithField("transaction_id", txnID).WithError(err).Error("load payment failed")
		return ReturnError
	}

	// 重复回跳直接返回，不再开启事务
	if payment.Status.IsTerminal() {
		logger.WithTxn(payment.TransactionID, payment.UserID).WithField("status", payment.Status).Info("payment already settled")
		return ReturnProcessed
	}

	status := model.PaymentFailed
	if params[vnpay.ParamResponseCode] == vnpay.ResponseCodeSuccess {
		status = model.PaymentSuccess
	}

	return s.settle(ctx, payment, status, params)
}

// settle 在同一事务中完成 pending -> 终态 与订阅激活
func (s *PaymentService) settle(ctx context.Context, payment *model.Payment, status model.PaymentStatus, params map[string]string) ReturnStatus {
	log := logger.WithTxn(payment.TransactionID, payment.UserID)
	now := s.now()

	var (
		result ReturnStatus
		sub    *model.Subscription
	)
	err := s.tx.Do(func(repos *repository.TxRepos) error {
		settled, err := repos.Payments.MarkSettled(payment.ID, status, payment.Metadata.Settle(params))
		if err != nil {
			return fmt.Errorf("mark settled: %w", err)
		}
		if !settled {
			result = ReturnProcessed
			return nil
		}

		if status != model.PaymentSuccess {
			result = ReturnFailed
			return nil
		}

		plan, err := repos.Plans.GetByKey(payment.Metadata.PlanKey)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = ReturnPlanMissing
				return nil
			}
			return fmt.Errorf("load plan: %w", err)
		}

		if _, err := repos.Users.GetByID(payment.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = ReturnUserMissing
				return nil
			}
			return fmt.Errorf("load user: %w", err)
		}

		paymentID := payment.ID
		sub = &model.Subscription{
			OwnerID:   payment.UserID,
			PlanID:    plan.ID,
			StartDate: now,
			EndDate:   plan.Duration.EndDate(now),
			Status:    model.SubscriptionActive,
			PaymentID: &paymentID,
		}
		if err := repos.Subscriptions.Create(sub); err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		result = ReturnSuccess
		return nil
	})
	if err != nil {
		log.WithError(err).Error("payment settlement failed")
		return ReturnError
	}

	if result == ReturnProcessed {
		log.WithField("status", payment.Status).Info("payment already settled")
		return result
	}

	fields := logrus.Fields{"status": status, "result": result}
	if sub != nil {
		fields["subscription_id"] = sub.ID
	}
	log.WithFields(fields).Info("payment settled")

	s.metrics.ObserveSettled(payment.Amount, string(status))
	s.afterSettle(ctx, payment, status, result, sub, params, now)
	return result
}

// afterSettle 事务提交后的通知与归档，失败只记录日志
func (s *PaymentService) afterSettle(ctx context.Context, payment *model.Payment, status model.PaymentStatus, result ReturnStatus, sub *model.Subscription, params map[string]string, settledAt time.Time) {
	log := logger.WithTxn(payment.TransactionID, payment.UserID)

	if s.publisher != nil {
		evt := &pubsub.PaymentEvent{
			UserID:        payment.UserID,
			PaymentID:     payment.ID,
			TransactionID: payment.TransactionID,
			Status:        string(status),
			Result:        string(result),
			PlanKey:       payment.Metadata.PlanKey,
		}
		if sub != nil {
			evt.SubscriptionID = sub.ID
		}
		if err := s.publisher.PublishSettled(ctx, evt); err != nil {
			log.WithError(err).Warn("publish settlement event failed")
		}
	}

	if s.archiver != nil {
		data, err := json.Marshal(params)
		if err != nil {
			log.WithError(err).Warn("marshal gateway params failed")
			return
		}
		key, err := s.archiver.ArchiveSettlement(payment.TransactionID, settledAt, data)
		if err != nil {
			log.WithError(err).Warn("archive settlement failed")
			return
		}
		log.WithField("object_key", key).Debug("settlement archived")
	}
}
