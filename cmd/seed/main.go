package main

import (
	"context"
	"os"

	"github.com/qs3c/phim_premium_server/config"
	"github.com/qs3c/phim_premium_server/internal/database"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/repository"
	"github.com/qs3c/phim_premium_server/internal/service"
)

// 按 config.yaml 中 premium.plans 写入套餐，重复执行按 key 覆盖
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.L.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
		logger.L.Fatalf("Invalid log config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		logger.L.Fatalf("Failed to connect database: %v", err)
	}

	// Redis 不可用时只写库，缓存等 TTL 过期
	var planCache *repository.PlanCache
	if rdb, err := database.NewRedis(&cfg.Redis); err != nil {
		logger.L.WithError(err).Warn("Redis unavailable, plan cache not invalidated")
	} else {
		defer rdb.Close()
		planCache = repository.NewPlanCache(rdb, cfg.Premium.PlanCacheTTL)
	}

	planService := service.NewPlanService(repository.NewPlanRepository(db), planCache)
	n, err := planService.SeedPlans(context.Background(), cfg.Premium.Plans)
	if err != nil {
		logger.L.Fatalf("Seed plans failed after %d plans: %v", n, err)
	}
	logger.L.WithField("plans", n).Info("Plans seeded")
}
