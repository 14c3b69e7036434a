package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelPaymentEvents = "payment_events"
)

const EventPaymentSettled = "payment_settled"

// PaymentEvent 支付结算事件
type PaymentEvent struct {
	Type           string `json:"type"`
	UserID         int64  `json:"userId"`
	PaymentID      int64  `json:"paymentId"`
	TransactionID  string `json:"transactionId"`
	Status         string `json:"status"`
	Result         string `json:"result"`
	PlanKey        string `json:"planKey,omitempty"`
	SubscriptionID int64  `json:"subscriptionId,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishSettled 发布结算事件
func (p *Publisher) PublishSettled(ctx context.Context, evt *PaymentEvent) error {
	evt.Type = EventPaymentSettled

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	return p.client.Publish(ctx, ChannelPaymentEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 阻塞直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*PaymentEvent)) error {
	sub := s.client.Subscribe(ctx, ChannelPaymentEvents)
	defer sub.Close()

	// 等待订阅确认，避免确认前发布的消息丢失
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", ChannelPaymentEvents, err)
	}

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt PaymentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue // 忽略解析错误
			}

			handler(&evt)
		}
	}
}
