package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/phim_premium_server/internal/model"
)

const activePlansKey = "premium:plans:active"

// PlanCache 上架套餐列表的 Redis 缓存
type PlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPlanCache(client *redis.Client, ttl time.Duration) *PlanCache {
	return &PlanCache{client: client, ttl: ttl}
}

// GetActive 未命中时返回 (nil, false, nil)
func (c *PlanCache) GetActive(ctx context.Context) ([]model.Plan, bool, error) {
	data, err := c.client.Get(ctx, activePlansKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get plans from cache: %w", err)
	}

	var plans []model.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached plans: %w", err)
	}
	return plans, true, nil
}

func (c *PlanCache) SetActive(ctx context.Context, plans []model.Plan) error {
	if plans == nil {
		plans = []model.Plan{}
	}
	data, err := json.Marshal(plans)
	if err != nil {
		return fmt.Errorf("failed to marshal plans: %w", err)
	}

	if err := c.client.Set(ctx, activePlansKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache plans: %w", err)
	}
	return nil
}

func (c *PlanCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activePlansKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate plan cache: %w", err)
	}
	return nil
}
