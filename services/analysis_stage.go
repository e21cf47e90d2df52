package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"inflation-pipeline/config"
	"inflation-pipeline/models"
	"inflation-pipeline/storage"
	"inflation-pipeline/utils"
)

// AnalysisStage turns the canonical dataset into the final inflation report.
// Unlike the earlier stages it has a single input artifact, so any problem
// with it is fatal to the run.
type AnalysisStage struct {
	cfg       *config.Config
	store     storage.ObjectStore
	segmenter *Segmenter
	analyzer  *Analyzer
	logger    *utils.Logger
}

// NewAnalysisStage creates a ready-to-run analysis stage.
func NewAnalysisStage(cfg *config.Config, store storage.ObjectStore, segmenter *Segmenter, analyzer *Analyzer, logger *utils.Logger) *AnalysisStage {
	return &AnalysisStage{cfg: cfg, store: store, segmenter: segmenter, analyzer: analyzer, logger: logger}
}

// Run downloads the combined dataset, builds the report, and uploads it
// pretty-printed.
func (s *AnalysisStage) Run(ctx context.Context) error {
	tempDir, err := os.MkdirTemp("", "analyze-*")
	if err != nil {
		return fmt.Errorf("analysis: create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inputPath := filepath.Join(tempDir, "input.json")
	if err := s.store.Download(ctx, s.cfg.CleanOutputKey, inputPath); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("analysis: read input: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return fmt.Errorf("analysis: input file %q is empty", s.cfg.CleanOutputKey)
	}

	var records []models.CleanRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return fmt.Errorf("analysis: input is not valid JSON: %w", err)
	}
	s.logger.Info("[analysis] Loaded %d clean records", len(records))

	buckets := s.segmenter.Segment(records)
	report := s.analyzer.BuildReport(buckets)

	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return fmt.Errorf("analysis: marshal report: %w", err)
	}
	outputPath := filepath.Join(tempDir, "output.json")
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("analysis: write report: %w", err)
	}

	if err := s.store.Upload(ctx, outputPath, s.cfg.AnalysisOutputKey); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	s.logger.Info("[analysis] Report uploaded: %s", s.cfg.AnalysisOutputKey)
	return nil
}
