package cron

import (
	"context"
	"sync"
	"time"

	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/service"
)

// Sweeper 清理任务
type Sweeper interface {
	Sweep(ctx context.Context) (*service.SweepResult, error)
}

type Service struct {
	sweeper  Sweeper
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewService(sweeper Sweeper, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Service{
		sweeper:  sweeper,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start 启动定时任务，启动时先执行一次
func (s *Service) Start() {
	s.wg.Add(1)
	go s.runSweep()
	logger.L.WithField("interval", s.interval.String()).Info("cron service started (payment sweep)")
}

// Stop 停止定时任务并等待正在执行的清理结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	logger.L.Info("cron service stopped")
}

func (s *Service) runSweep() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepOnce()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Service) sweepOnce() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop 时中断正在进行的批处理
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := s.sweeper.Sweep(ctx); err != nil {
		logger.L.WithError(err).Error("payment sweep failed")
	}
}
