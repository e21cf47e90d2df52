package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"inflation-pipeline/config"
	"inflation-pipeline/metrics"
	"inflation-pipeline/utils"
)

// MinioStore backs both the pipeline bucket and the archive container with a
// single S3-compatible client.
type MinioStore struct {
	client        *minio.Client
	bucket        string
	archiveBucket string
}

// NewMinioStore connects to the object storage endpoint and verifies the
// pipeline bucket is reachable. Connection bootstrap retries with back-off;
// all later calls are single-attempt.
func NewMinioStore(cfg *config.Config, logger *utils.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: new client: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	err = retry.Do("object storage ping", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, e := client.BucketExists(ctx, cfg.PipelineBucket)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("minio: not reachable: %w", err)
	}

	return &MinioStore{
		client:        client,
		bucket:        cfg.PipelineBucket,
		archiveBucket: cfg.ArchiveBucket,
	}, nil
}

// List returns the object keys under prefix, in listing order.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			metrics.StorageOps.WithLabelValues("list", "failure").Inc()
			return nil, fmt.Errorf("minio: list %q: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	metrics.StorageOps.WithLabelValues("list", "success").Inc()
	return keys, nil
}

// Download copies the object at key to localPath.
func (s *MinioStore) Download(ctx context.Context, key, localPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		metrics.StorageOps.WithLabelValues("get", "failure").Inc()
		return fmt.Errorf("minio: download %q: %w", key, err)
	}
	metrics.StorageOps.WithLabelValues("get", "success").Inc()
	return nil
}

// Upload stores the file at localPath under key.
func (s *MinioStore) Upload(ctx context.Context, localPath, key string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		metrics.StorageOps.WithLabelValues("put", "failure").Inc()
		return fmt.Errorf("minio: upload %q: %w", key, err)
	}
	metrics.StorageOps.WithLabelValues("put", "success").Inc()
	return nil
}

// FetchRange returns the inclusive byte range [offset, offset+length-1] of an
// object in the archive container.
func (s *MinioStore) FetchRange(ctx context.Context, container string, offset, length int64) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(offset, offset+length-1); err != nil {
		return nil, fmt.Errorf("minio: range [%d,%d): %w", offset, offset+length, err)
	}

	obj, err := s.client.GetObject(ctx, s.archiveBucket, container, opts)
	if err != nil {
		metrics.StorageOps.WithLabelValues("get_range", "failure").Inc()
		return nil, fmt.Errorf("minio: get %q: %w", container, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		metrics.StorageOps.WithLabelValues("get_range", "failure").Inc()
		return nil, fmt.Errorf("minio: read %q: %w", container, err)
	}
	metrics.StorageOps.WithLabelValues("get_range", "success").Inc()
	return data, nil
}
