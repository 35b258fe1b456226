package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
	"github.com/daviserra-code/Fantacalcio-AI/internal/providers"
	"github.com/daviserra-code/Fantacalcio-AI/internal/services"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/config"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed [roster.json]]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db, cfg); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	// Enable UUID extension for PostgreSQL
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Auto migrate all models
	if err := db.AutoMigrate(
		&models.Player{},
		&models.OptimizationRun{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_players_season_role ON players(season, role)",
		"CREATE INDEX IF NOT EXISTS idx_players_price ON players(price DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_season_created ON optimization_runs(season, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	tables := []string{
		"optimization_runs",
		"players",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB, cfg *config.Config) error {
	path := cfg.RosterFile
	if len(os.Args) > 2 {
		path = os.Args[2]
	}
	if path == "" {
		path = "data/roster.json"
	}

	logger := logrus.StandardLogger()
	source := providers.NewFileProvider(path, logger)
	pool := services.NewPoolService(db, nil, []fanta.PoolProvider{source}, cfg.Season, 0, logger)

	count, err := pool.RefreshPool(context.Background())
	if err != nil {
		return fmt.Errorf("failed to seed roster from %s: %w", path, err)
	}

	logrus.Infof("Seeded %d players from %s", count, path)
	return nil
}
