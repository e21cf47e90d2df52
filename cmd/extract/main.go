package main

import (
	"context"
	"os"

	"inflation-pipeline/archive"
	"inflation-pipeline/config"
	"inflation-pipeline/metrics"
	"inflation-pipeline/services"
	"inflation-pipeline/storage"
	"inflation-pipeline/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Extraction stage starting ===")
	logger.Info("Config — input: %s | output: %s | archive bucket: %s | concurrency: %d",
		cfg.ExtractInputPrefix, cfg.ExtractOutputPrefix, cfg.ArchiveBucket, cfg.MaxConcurrency)

	metrics.Serve(cfg.MetricsPort, logger)

	store, err := storage.NewMinioStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to object storage: %v", err)
		os.Exit(1)
	}

	resolver := archive.NewResolver(store)
	stage := services.NewExtractionStage(cfg, store, resolver, logger)

	if err := stage.Run(context.Background()); err != nil {
		logger.Error("Extraction stage failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Extraction stage completed")
}
