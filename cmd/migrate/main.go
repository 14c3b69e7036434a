package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/qs3c/phim_premium_server/config"
	"github.com/qs3c/phim_premium_server/internal/database"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.L.Fatalf("Failed to load config: %v", err)
	}

	source := os.Getenv("MIGRATIONS_PATH")
	if source == "" {
		source = "file://migrations"
	}

	logger.L.Infof("Connecting to %s@%s:%d/%s", cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	m, err := migrate.New(source, "mysql://"+database.DSN(&cfg.Database)+"&multiStatements=true")
	if err != nil {
		logger.L.Fatalf("Failed to init migrations: %v", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logger.L.Errorf("Failed to close migrate: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.L.Info("No change: database is up to date")
		case err != nil:
			logger.L.Fatalf("Migrate up failed: %v", err)
		default:
			logger.L.Info("Migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			logger.L.Fatalf("Rollback failed: %v", err)
		}
		logger.L.Info("Rolled back last migration")

	case "goto":
		if len(os.Args) < 3 {
			logger.L.Fatal("Version required")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			logger.L.Fatalf("Invalid version: %v", err)
		}
		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.L.Infof("No change: database already at version %d", version)
		case err != nil:
			logger.L.Fatalf("Migrate to %d failed: %v", version, err)
		default:
			logger.L.Infof("Migrated to version %d", version)
		}

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.L.Info("No migrations applied yet")
			return
		}
		if err != nil {
			logger.L.Fatalf("Failed to read version: %v", err)
		}
		logger.L.WithField("dirty", dirty).Infof("Current version: %d", version)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up       - apply all pending migrations")
	fmt.Println("  down     - roll back the last migration")
	fmt.Println("  goto N   - migrate to version N")
	fmt.Println("  version  - print current version")
}
