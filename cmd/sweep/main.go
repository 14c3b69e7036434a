package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/qs3c/phim_premium_server/config"
	"github.com/qs3c/phim_premium_server/internal/database"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/repository"
	"github.com/qs3c/phim_premium_server/internal/service"
)

var (
	dryRun  = flag.Bool("dry-run", true, "Dry run mode, only count what would be swept")
	timeout = flag.Duration("timeout", 5*time.Minute, "Abort the sweep after this long")
)

func main() {
	flag.Parse()

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
		logger.L.Fatalf("Failed to connect to database: %v", err)
	}

	sweeper := service.NewSweepService(
		repository.NewPaymentRepository(db),
		repository.NewSubscriptionRepository(db),
		cfg.Premium.PendingTTL,
		cfg.Premium.SweepGrace,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger.L.WithField("dry_run", *dryRun).
		WithField("cutoff", sweeper.Cutoff(time.Now()).UTC().Format(time.RFC3339)).
		Info("Starting payment sweep...")

	var result *service.SweepResult
	if *dryRun {
		result, err = sweeper.Preview(ctx)
	} else {
		result, err = sweeper.Sweep(ctx)
	}
	if err != nil {
		logger.L.Fatalf("Sweep failed: %v", err)
	}

	logger.L.Info(strings.Repeat("=", 60))
	logger.L.Infof("Stale pending payments: %d", result.Payments)
	logger.L.Infof("Ended subscriptions:    %d", result.Subscriptions)
	if *dryRun {
		logger.L.Info("DRY RUN MODE - nothing was changed, run with -dry-run=false to apply")
	} else {
		logger.L.Info("Sweep completed")
	}
	logger.L.Info(strings.Repeat("=", 60))
}
