package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qs3c/phim_premium_server/config"
	"github.com/qs3c/phim_premium_server/internal/model"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/repository"
)

var (
	ErrPlanNotFound    = errors.New("套餐不存在")
	ErrPlanKeyRequired = errors.New("planKey 不能为空")
	ErrInvalidPlan     = errors.New("套餐配置不合法")
)

type PlanService struct {
	planRepo *repository.PlanRepository
	cache    *repository.PlanCache
}

// NewPlanService cache 为 nil 时不使用缓存
func NewPlanService(planRepo *repository.PlanRepository, cache *repository.PlanCache) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		cache:    cache,
	}
}

// ListActivePlans 上架套餐，价格升序。缓存异常只记录日志，直接回源。
func (s *PlanService) ListActivePlans(ctx context.Context) ([]model.Plan, error) {
	if s.cache != nil {
		plans, hit, err := s.cache.GetActive(ctx)
		if err != nil {
			logger.L.WithError(err).Warn("plan cache read failed")
		}
		if hit {
			return plans, nil
		}
	}

	plans, err := s.planRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	if plans == nil {
		plans = []model.Plan{}
	}

	if s.cache != nil {
		if err := s.cache.SetActive(ctx, plans); err != nil {
			logger.L.WithError(err).Warn("plan cache write failed")
		}
	}
	return plans, nil
}

// UpsertPlan 写入后使列表缓存失效
func (s *PlanService) UpsertPlan(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	saved, err := s.planRepo.Upsert(plan)
	if err != nil {
		return nil, fmt.Errorf("upsert plan %s: %w", plan.Key, err)
	}

	s.invalidate(ctx)
	return saved, nil
}

// SeedPlans 按配置写入套餐目录，返回写入条数
func (s *PlanService) SeedPlans(ctx context.Context, seeds []config.PlanSeed) (int, error) {
	plans := make([]*model.Plan, 0, len(seeds))
	for _, seed := range seeds {
		plan, err := PlanFromSeed(seed)
		if err != nil {
			return 0, err
		}
		plans = append(plans, plan)
	}

	for i, plan := range plans {
		if _, err := s.UpsertPlan(ctx, plan); err != nil {
			return i, err
		}
	}
	return len(plans), nil
}

// PlanFromSeed 未配置 is_active 时默认上架，币种默认 VND
func PlanFromSeed(seed config.PlanSeed) (*model.Plan, error) {
	duration, err := model.ParsePlanDuration(seed.DurationMonths)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPlan, seed.Key, err)
	}

	currency := seed.Currency
	if currency == "" {
		currency = "VND"
	}
	maxMembers := seed.MaxMembers
	if maxMembers == 0 {
		maxMembers = 1
	}
	isActive := true
	if seed.IsActive != nil {
		isActive = *seed.IsActive
	}

	return &model.Plan{
		Key:         strings.TrimSpace(seed.Key),
		Name:        seed.Name,
		Price:       seed.Price,
		Currency:    currency,
		Duration:    duration,
		MaxMembers:  maxMembers,
		IsActive:    isActive,
		Description: seed.Description,
	}, nil
}

func validatePlan(plan *model.Plan) error {
	switch {
	case strings.TrimSpace(plan.Key) == "":
		return fmt.Errorf("%w: empty key", ErrInvalidPlan)
	case plan.Name == "":
		return fmt.Errorf("%w: %s: empty name", ErrInvalidPlan, plan.Key)
	case plan.Price <= 0:
		return fmt.Errorf("%w: %s: price must be positive", ErrInvalidPlan, plan.Key)
	case !plan.Duration.Valid():
		return fmt.Errorf("%w: %s: unsupported duration", ErrInvalidPlan, plan.Key)
	case plan.MaxMembers < 1:
		return fmt.Errorf("%w: %s: maxMembers must be at least 1", ErrInvalidPlan, plan.Key)
	}
	return nil
}

func (s *PlanService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.L.WithError(err).Warn("plan cache invalidate failed")
	}
}
