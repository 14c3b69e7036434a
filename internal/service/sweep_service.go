package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/phim_premium_server/internal/model"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/metrics"
	"github.com/qs3c/phim_premium_server/internal/repository"
)

const (
	sweepBatchSize = 100

	SweptPayments      = "payments"
	SweptSubscriptions = "subscriptions"

	expiredReason = "expired"
)

// SweepResult 一次清理的处理条数
type SweepResult struct {
	Payments      int64 `json:"payments"`
	Subscriptions int64 `json:"subscriptions"`
}

// SweepService 关闭超时未回跳的支付，并将到期订阅置为 expired
type SweepService struct {
	paymentRepo *repository.PaymentRepository
	subRepo     *repository.SubscriptionRepository
	pendingTTL  time.Duration
	grace       time.Duration
	metrics     *metrics.PaymentMetrics
	now         func() time.Time
}

func NewSweepService(
	paymentRepo *repository.PaymentRepository,
	subRepo *repository.SubscriptionRepository,
	pendingTTL, grace time.Duration,
) *SweepService {
	return &SweepService{
		paymentRepo: paymentRepo,
		subRepo:     subRepo,
		pendingTTL:  pendingTTL,
		grace:       grace,
		now:         time.Now,
	}
}

func (s *SweepService) WithMetrics(m *metrics.PaymentMetrics) *SweepService {
	s.metrics = m
	return s
}

func (s *SweepService) WithClock(now func() time.Time) *SweepService {
	s.now = now
	return s
}

// Cutoff 早于该时间创建的 pending 支付视为已放弃
func (s *SweepService) Cutoff(now time.Time) time.Time {
	return now.Add(-(s.pendingTTL + s.grace))
}

// Preview 只统计，不修改
func (s *SweepService) Preview(ctx context.Context) (*SweepResult, error) {
	now := s.now()

	payments, err := s.paymentRepo.CountStalePending(s.Cutoff(now))
	if err != nil {
		return nil, fmt.Errorf("count stale payments: %w", err)
	}
	subs, err := s.subRepo.CountEnded(now)
	if err != nil {
		return nil, fmt.Errorf("count ended subscriptions: %w", err)
	}
	return &SweepResult{Payments: payments, Subscriptions: subs}, nil
}

// Sweep 执行一次清理
func (s *SweepService) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	result := &SweepResult{}

	payments, err := s.failStalePayments(ctx, s.Cutoff(now))
	result.Payments = payments
	s.metrics.AddSwept(SweptPayments, payments)
	if err != nil {
		return result, err
	}

	subs, err := s.subRepo.ExpireEnded(now)
	if err != nil {
		return result, fmt.Errorf("expire subscriptions: %w", err)
	}
	result.Subscriptions = subs
	s.metrics.AddSwept(SweptSubscriptions, subs)

	if result.Payments > 0 || result.Subscriptions > 0 {
		logger.L.WithFields(logrus.Fields{
			"payments":      result.Payments,
			"subscriptions": result.Subscriptions,
		}).Info("sweep finished")
	}
	return result, nil
}

func (s *SweepService) failStalePayments(ctx context.Context, cutoff time.Time) (int64, error) {
	reason := map[string]string{"reason": expiredReason}
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		batch, err := s.paymentRepo.ListStalePending(cutoff, sweepBatchSize)
		if err != nil {
			return total, fmt.Errorf("list stale payments: %w", err)
		}

		for i := range batch {
			p := &batch[i]
			// 与网关回跳并发时以先完成者为准
			settled, err := s.paymentRepo.MarkSettled(p.ID, model.PaymentFailed, p.Metadata.Settle(reason))
			if err != nil {
				return total, fmt.Errorf("expire payment %d: %w", p.ID, err)
			}
			if settled {
				total++
				logger.WithTxn(p.TransactionID, p.UserID).Info("stale payment expired")
			}
		}

		if len(batch) < sweepBatchSize {
			return total, nil
		}
	}
}
