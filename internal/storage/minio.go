package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nexconsult/fgts-api/internal/config"
)

// MinioStorage keeps result files in an S3 compatible bucket
type MinioStorage struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioStorage creates a MinIO client from the storage configuration
func NewMinioStorage(cfg config.StorageConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &MinioStorage{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// EnsureBucket creates the result bucket when it does not exist
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads data under key
func (s *MinioStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload result object: %w", err)
	}
	return nil
}

// Get downloads the object stored under key
func (s *MinioStorage) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get result object: %w", err)
	}
	defer obj.Close()

	buf, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read result object: %w", err)
	}
	return buf, nil
}

// Health returns storage health status
func (s *MinioStorage) Health(ctx context.Context) map[string]interface{} {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return map[string]interface{}{
			"status":  "unhealthy",
			"backend": "minio",
			"error":   err.Error(),
		}
	}
	if !exists {
		return map[string]interface{}{
			"status":  "unhealthy",
			"backend": "minio",
			"error":   fmt.Sprintf("bucket %s missing", s.bucket),
		}
	}
	return map[string]interface{}{
		"status":  "healthy",
		"backend": "minio",
		"bucket":  s.bucket,
	}
}
