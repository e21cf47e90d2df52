// Package archive recovers HTML pages out of web-archive (WARC) containers
// addressed by byte range.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/slyrz/warc"

	"inflation-pipeline/models"
	"inflation-pipeline/storage"
)

var (
	// ErrEmptyRange signals the backend returned zero bytes for the range.
	ErrEmptyRange = errors.New("archive: empty byte range")
	// ErrNoResponseRecord signals the range held no response-type record.
	ErrNoResponseRecord = errors.New("archive: no response record in range")
)

// Resolver fetches and decodes single archived HTTP responses. A failed
// resolve is never fatal to the pipeline; the caller logs and skips the row.
type Resolver struct {
	source storage.ArchiveSource
}

// NewResolver creates a Resolver reading from the given archive backend.
func NewResolver(source storage.ArchiveSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve fetches the locator's byte range and returns the payload of the
// first response-type record within it, decoded as UTF-8 with invalid byte
// sequences replaced.
func (r *Resolver) Resolve(ctx context.Context, loc models.ArchiveLocator) (string, error) {
	if loc.ByteLength <= 0 {
		return "", fmt.Errorf("archive: non-positive record length %d", loc.ByteLength)
	}
	if loc.ByteOffset < 0 {
		return "", fmt.Errorf("archive: negative record offset %d", loc.ByteOffset)
	}

	data, err := r.source.FetchRange(ctx, loc.ContainerName, loc.ByteOffset, loc.ByteLength)
	if err != nil {
		return "", fmt.Errorf("archive: fetch %q: %w", loc.ContainerName, err)
	}
	if len(data) == 0 {
		return "", ErrEmptyRange
	}

	raw, err := decompress(data)
	if err != nil {
		return "", fmt.Errorf("archive: decompress %q: %w", loc.ContainerName, err)
	}

	reader, err := warc.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("archive: open record stream: %w", err)
	}

	for {
		record, err := reader.ReadRecord()
		if err != nil {
			break
		}
		if record.Header.Get("warc-type") != "response" {
			continue
		}
		payload, err := io.ReadAll(record.Content)
		if err != nil {
			return "", fmt.Errorf("archive: read record payload: %w", err)
		}
		return decodeUTF8(stripHTTPEnvelope(record.Header.Get("content-type"), payload)), nil
	}

	return "", ErrNoResponseRecord
}

// stripHTTPEnvelope drops the HTTP status line and header block a response
// record wraps around its body. Records that carry bare content (no
// application/http content type, no status line) pass through unchanged.
func stripHTTPEnvelope(contentType string, block []byte) []byte {
	if !strings.Contains(contentType, "application/http") && !bytes.HasPrefix(block, []byte("HTTP/")) {
		return block
	}
	if idx := bytes.Index(block, []byte("\r\n\r\n")); idx >= 0 {
		return block[idx+4:]
	}
	if idx := bytes.Index(block, []byte("\n\n")); idx >= 0 {
		return block[idx+2:]
	}
	return block
}

// decompress unpacks the span when it carries gzip members; archived ranges
// are stored one gzip member per record.
func decompress(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// decodeUTF8 substitutes the replacement character for invalid sequences.
func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
