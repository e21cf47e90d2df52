package services

import (
	"bufio"
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

// CleaningStage combines the extraction outputs of all batches into one
// canonical, filtered dataset.
type CleaningStage struct {
	cfg    *config.Config
	store  storage.ObjectStore
	clean  *Cleaner
	sink   storage.CleanRecordWriter
	logger *utils.Logger
}

// NewCleaningStage creates a ready-to-run cleaning stage. sink may be nil;
// when present the cleaned dataset is additionally persisted through it.
func NewCleaningStage(cfg *config.Config, store storage.ObjectStore, clean *Cleaner, sink storage.CleanRecordWriter, logger *utils.Logger) *CleaningStage {
	return &CleaningStage{cfg: cfg, store: store, clean: clean, sink: sink, logger: logger}
}

// Run downloads every extraction output file, cleans all records, and
// uploads the combined JSON array. Finding no input files is fatal.
func (s *CleaningStage) Run(ctx context.Context) error {
	keys, err := s.store.List(ctx, s.cfg.ExtractOutputPrefix)
	if err != nil {
		return fmt.Errorf("cleaning: list input files: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "clean-*")
	if err != nil {
		return fmt.Errorf("cleaning: create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var inputPaths []string
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		localPath := filepath.Join(tempDir, filepath.Base(key))
		if err := s.store.Download(ctx, key, localPath); err != nil {
			return fmt.Errorf("cleaning: %w", err)
		}
		inputPaths = append(inputPaths, localPath)
	}
	if len(inputPaths) == 0 {
		return fmt.Errorf("cleaning: no JSON files found under %q", s.cfg.ExtractOutputPrefix)
	}

	combined, err := s.cleanFiles(inputPaths)
	if err != nil {
		return err
	}
	s.logger.Info("[cleaning] Combined dataset: %d records from %d files", len(combined), len(inputPaths))

	outPath := filepath.Join(tempDir, "output.json")
	if err := writeJSONArray(outPath, combined); err != nil {
		return fmt.Errorf("cleaning: write output: %w", err)
	}
	if err := s.store.Upload(ctx, outPath, s.cfg.CleanOutputKey); err != nil {
		return fmt.Errorf("cleaning: %w", err)
	}
	s.logger.Info("[cleaning] Output uploaded: %s", s.cfg.CleanOutputKey)

	if s.sink != nil {
		if err := s.sink.Write(combined); err != nil {
			return fmt.Errorf("cleaning: relational sink: %w", err)
		}
		s.logger.Info("[cleaning] Clean records stored in PostgreSQL (table: clean_records)")
	}
	return nil
}

// cleanFiles processes the files in discovery order; record order within a
// file is preserved.
func (s *CleaningStage) cleanFiles(paths []string) ([]models.CleanRecord, error) {
	combined := make([]models.CleanRecord, 0)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cleaning: open %q: %w", path, err)
		}

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		combined = append(combined, s.clean.CleanLines(scanner)...)

		if err := scanner.Err(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cleaning: read %q: %w", path, err)
		}
		_ = f.Close()
	}
	return combined, nil
}

func writeJSONArray(path string, records []models.CleanRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
