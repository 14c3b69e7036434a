package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/phim_premium_server/config"
	"github.com/qs3c/phim_premium_server/internal/api"
	"github.com/qs3c/phim_premium_server/internal/api/handler"
	"github.com/qs3c/phim_premium_server/internal/database"
	"github.com/qs3c/phim_premium_server/internal/pkg/cron"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/metrics"
	"github.com/qs3c/phim_premium_server/internal/pkg/oss"
	"github.com/qs3c/phim_premium_server/internal/pkg/pubsub"
	"github.com/qs3c/phim_premium_server/internal/pkg/vnpay"
	"github.com/qs3c/phim_premium_server/internal/pkg/ws"
	"github.com/qs3c/phim_premium_server/internal/repository"
	"github.com/qs3c/phim_premium_server/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.L.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
		logger.L.Fatalf("Invalid log config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		logger.L.Fatalf("Failed to connect database: %v", err)
	}
	logger.L.Info("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logger.L.Fatalf("Failed to connect redis: %v", err)
	}
	logger.L.Info("Redis connected")

	registry := metrics.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	movieRepo := repository.NewPremiumMovieRepository(db)
	txManager := repository.NewTxManager(db)
	planCache := repository.NewPlanCache(rdb, cfg.Premium.PlanCacheTTL)

	if err := cfg.VNPay.Validate(); err != nil {
		if cfg.Server.Mode == "release" {
			logger.L.Fatalf("Invalid VNPay config: %v", err)
		}
		logger.L.WithError(err).Warn("VNPay config incomplete, payment signatures will not verify")
	}
	gateway := vnpay.NewClient(vnpay.Config{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		PayURL:     cfg.VNPay.PayURL,
		ReturnURL:  cfg.VNPay.ReturnURL,
		Locale:     cfg.VNPay.Locale,
	})

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	planService := service.NewPlanService(planRepo, planCache)
	paymentService := service.NewPaymentService(planRepo, paymentRepo, txManager, gateway, cfg.Premium.PendingTTL).
		WithPublisher(pubsub.NewPublisher(rdb)).
		WithMetrics(paymentMetrics)
	if cfg.OSS.BucketName != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			logger.L.WithError(err).Warn("OSS unavailable, settlement archive disabled")
		} else {
			paymentService.WithArchiver(ossClient)
		}
	}
	entitlementService := service.NewEntitlementService(subRepo, movieRepo)
	membershipService := service.NewMembershipService(subRepo, userRepo, txManager)
	movieService := service.NewPremiumMovieService(movieRepo)
	sweepService := service.NewSweepService(paymentRepo, subRepo, cfg.Premium.PendingTTL, cfg.Premium.SweepGrace).
		WithMetrics(paymentMetrics)

	// 结算推送
	wsHub := ws.NewHub()
	relay := service.NewSettlementRelay(pubsub.NewSubscriber(rdb), wsHub)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	go func() {
		if err := relay.Run(relayCtx); err != nil {
			logger.L.WithError(err).Error("settlement relay stopped")
		}
	}()

	// 定时清理
	cronService := cron.NewService(sweepService, cfg.Premium.SweepInterval)
	cronService.Start()

	// 初始化 Handler
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewPremiumHandler(planService, paymentService, entitlementService, cfg.VNPay.ResultURL),
		handler.NewMemberHandler(membershipService),
		handler.NewPremiumMovieHandler(movieService),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins),
		handler.NewHealthHandler(healthChecks(db, rdb)),
		entitlementService,
		registry,
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.Setup(),
	}

	go func() {
		logger.L.Infof("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L.WithError(err).Error("Server forced to shutdown")
	}

	cronService.Stop()
	stopRelay()
	rdb.Close()
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.L.Info("Server exited")
}

func healthChecks(db *gorm.DB, rdb *redis.Client) map[string]handler.Pinger {
	return map[string]handler.Pinger{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
}
