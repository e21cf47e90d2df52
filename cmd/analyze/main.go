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

	logger.Info("=== Analysis stage starting ===")
	logger.Info("Config — input: %s | output: %s", cfg.CleanOutputKey, cfg.AnalysisOutputKey)

	metrics.Serve(cfg.MetricsPort, logger)

	store, err := storage.NewMinioStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to object storage: %v", err)
		os.Exit(1)
	}

	segmenter := services.NewSegmenter(logger, cfg.Segments)
	analyzer := services.NewAnalyzer(logger)
	stage := services.NewAnalysisStage(cfg, store, segmenter, analyzer, logger)

	if err := stage.Run(context.Background()); err != nil {
		logger.Error("Analysis stage failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Analysis stage completed — report: %s", cfg.AnalysisOutputKey)
}
