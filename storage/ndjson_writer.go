package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"inflation-pipeline/models"
)

// NDJSONWriter writes extracted records to a local staging file, one JSON
// object per line. The file is uploaded and removed by the extraction stage.
type NDJSONWriter struct {
	file   *os.File
	writer *bufio.Writer
}

// NewNDJSONWriter creates (or truncates) the file at the given path.
// Intermediate directories are created automatically.
func NewNDJSONWriter(path string) (*NDJSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("ndjson: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("ndjson: create file %q: %w", path, err)
	}

	return &NDJSONWriter{file: f, writer: bufio.NewWriter(f)}, nil
}

// WriteAll writes one line per extracted record.
func (w *NDJSONWriter) WriteAll(records []models.ExtractedRecord) error {
	enc := json.NewEncoder(w.writer)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("ndjson: write record: %w", err)
		}
	}
	return w.writer.Flush()
}

// Close flushes and closes the underlying file.
func (w *NDJSONWriter) Close() error {
	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
