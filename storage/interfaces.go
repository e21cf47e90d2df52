package storage

import (
	"context"

	"inflation-pipeline/models"
)

// ObjectStore is the interface the pipeline bucket backend must satisfy.
type ObjectStore interface {
	// List returns the keys under prefix, in listing order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Download copies the object at key to localPath.
	Download(ctx context.Context, key, localPath string) error
	// Upload stores the file at localPath under key.
	Upload(ctx context.Context, localPath, key string) error
}

// ArchiveSource reads byte ranges out of the external web-archive container.
type ArchiveSource interface {
	// FetchRange returns the inclusive byte range [offset, offset+length-1]
	// of the named container object.
	FetchRange(ctx context.Context, container string, offset, length int64) ([]byte, error)
}

// CleanRecordWriter is the interface any relational sink for the cleaned
// dataset must satisfy.
type CleanRecordWriter interface {
	Write(records []models.CleanRecord) error
	Close() error
}
