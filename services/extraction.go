package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"inflation-pipeline/config"
	"inflation-pipeline/extractor"
	"inflation-pipeline/metrics"
	"inflation-pipeline/models"
	"inflation-pipeline/storage"
	"inflation-pipeline/utils"
)

// fetchTimeLayout is the literal timestamp format of the capture batches.
const fetchTimeLayout = "2006-01-02 15:04:05"

// archiveResolver recovers one archived page per locator.
type archiveResolver interface {
	Resolve(ctx context.Context, loc models.ArchiveLocator) (string, error)
}

// ExtractionStage turns columnar capture batches into NDJSON files of
// extracted product records, one output file per input batch.
type ExtractionStage struct {
	cfg      *config.Config
	store    storage.ObjectStore
	resolver archiveResolver
	logger   *utils.Logger
}

// NewExtractionStage creates a ready-to-run extraction stage.
func NewExtractionStage(cfg *config.Config, store storage.ObjectStore, resolver archiveResolver, logger *utils.Logger) *ExtractionStage {
	return &ExtractionStage{cfg: cfg, store: store, resolver: resolver, logger: logger}
}

// Run iterates the batches under the input prefix. A batch that cannot be
// read is logged and skipped; only the initial listing failure aborts the
// stage.
func (s *ExtractionStage) Run(ctx context.Context) error {
	keys, err := s.store.List(ctx, s.cfg.ExtractInputPrefix)
	if err != nil {
		return fmt.Errorf("extraction: list input batches: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "extract-*")
	if err != nil {
		return fmt.Errorf("extraction: create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	for _, key := range keys {
		if !strings.HasSuffix(key, ".parquet") {
			s.logger.Info("[extract] Skipping non-Parquet file: %s", key)
			continue
		}
		s.logger.Info("[extract] Processing Parquet batch: %s", key)
		if err := s.processBatch(ctx, key, tempDir); err != nil {
			s.logger.Error("[extract] Batch %s failed: %v", key, err)
			metrics.RecordsDropped.WithLabelValues("extract", "batch_error").Inc()
		}
	}
	return nil
}

// processBatch downloads one batch, extracts a record per row, and uploads
// the NDJSON result. Local staging files are removed on every exit path.
func (s *ExtractionStage) processBatch(ctx context.Context, key, tempDir string) error {
	localPath := filepath.Join(tempDir, filepath.Base(key))
	if err := s.store.Download(ctx, key, localPath); err != nil {
		return err
	}
	defer os.Remove(localPath)

	rows, err := parquet.ReadFile[models.CaptureRow](localPath)
	if err != nil {
		return fmt.Errorf("read parquet: %w", err)
	}
	if len(rows) == 0 {
		s.logger.Warn("[extract] Skipping empty Parquet batch: %s", key)
		return nil
	}

	records := s.extractRows(ctx, rows)
	s.logger.Info("[extract] Batch %s: extracted %d of %d rows", key, len(records), len(rows))

	outName := "extracted_data_" + filepath.Base(key) + ".json"
	outPath := filepath.Join(tempDir, outName)
	defer os.Remove(outPath)

	writer, err := storage.NewNDJSONWriter(outPath)
	if err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	outKey := s.cfg.ExtractOutputPrefix + outName
	if err := s.store.Upload(ctx, outPath, outKey); err != nil {
		return err
	}
	s.logger.Info("[extract] Uploaded batch output: %s", outKey)
	return nil
}

// extractRows fans rows out over the worker pool. Results are written into
// index-addressed slots so the output order always matches the row order,
// whatever the concurrency.
func (s *ExtractionStage) extractRows(ctx context.Context, rows []models.CaptureRow) []models.ExtractedRecord {
	slots := make([]*models.ExtractedRecord, len(rows))
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)

	for i, row := range rows {
		i, row := i, row
		pool.Submit(func() {
			slots[i] = s.extractRow(ctx, i, len(rows), row)
		})
	}
	pool.Wait()

	records := make([]models.ExtractedRecord, 0, len(rows))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

func (s *ExtractionStage) extractRow(ctx context.Context, idx, total int, row models.CaptureRow) *models.ExtractedRecord {
	s.logger.Debug("[extract] Processing record %d of %d", idx+1, total)
	metrics.RowsProcessed.WithLabelValues("extract").Inc()

	page, err := s.resolver.Resolve(ctx, row.Locator())
	if err != nil {
		s.logger.Info("[extract] Failed to recover page for record %d: %v", idx+1, err)
		metrics.ResolveFailures.Inc()
		return nil
	}

	fields := extractor.Extract(page)
	rec := models.ExtractedRecord{
		Title: fields.Title,
		Price: fields.Price,
		URL:   row.URL,
	}

	if row.FetchTime != "" {
		t, err := time.Parse(fetchTimeLayout, row.FetchTime)
		if err != nil {
			s.logger.Warn("[extract] Unable to parse fetch_time %q", row.FetchTime)
		} else {
			iso := t.Format("2006-01-02T15:04:05")
			rec.FetchTime = &iso
		}
	}

	if rec.Title == "" && rec.Price == "" && rec.URL == "" && rec.FetchTime == nil {
		s.logger.Info("[extract] No product data found for record %d", idx+1)
		metrics.RecordsDropped.WithLabelValues("extract", "empty_record").Inc()
		return nil
	}
	return &rec
}
