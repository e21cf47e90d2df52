package main

import (
	"context"
	"os"

	"inflation-pipeline/config"
	"inflation-pipeline/metrics"
	"inflation-pipeline/services"
	"inflation-pipeline/storage"
	"inflation-pipeline/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Cleaning stage starting ===")
	logger.Info("Config — input: %s | output: %s", cfg.ExtractOutputPrefix, cfg.CleanOutputKey)

	metrics.Serve(cfg.MetricsPort, logger)

	store, err := storage.NewMinioStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to object storage: %v", err)
		os.Exit(1)
	}

	var sink storage.CleanRecordWriter
	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		defer pgWriter.Close()
		sink = pgWriter
	}

	cleaner := services.NewCleaner(logger, cfg.Filter)
	stage := services.NewCleaningStage(cfg, store, cleaner, sink, logger)

	if err := stage.Run(context.Background()); err != nil {
		logger.Error("Cleaning stage failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Cleaning stage completed — output: %s", cfg.CleanOutputKey)
}
