package service

import (
	"context"
	"errors"

	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/pubsub"
	"github.com/qs3c/phim_premium_server/internal/pkg/ws"
)

// SettlementRelay 将 Redis 上的结算事件推送给付款用户的 websocket 连接
type SettlementRelay struct {
	subscriber *pubsub.Subscriber
	hub        *ws.Hub
}

func NewSettlementRelay(subscriber *pubsub.Subscriber, hub *ws.Hub) *SettlementRelay {
	return &SettlementRelay{
		subscriber: subscriber,
		hub:        hub,
	}
}

// Run 阻塞直到 ctx 结束
func (r *SettlementRelay) Run(ctx context.Context) error {
	err := r.subscriber.Subscribe(ctx, r.Deliver)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Deliver 推送单个事件，用户不在线时丢弃
func (r *SettlementRelay) Deliver(evt *pubsub.PaymentEvent) {
	n, err := r.hub.SendToUser(evt.UserID, &ws.Message{
		Type: pubsub.EventPaymentSettled,
		Data: evt,
	})
	if err != nil {
		logger.WithTxn(evt.TransactionID, evt.UserID).WithError(err).Warn("push settlement failed")
		return
	}
	logger.WithTxn(evt.TransactionID, evt.UserID).WithField("connections", n).Debug("settlement pushed")
}
