// Package artifact provides optional S3-compatible storage for built
// NDJSON artifacts. When storage is not configured (empty bucket), the
// NoopUploader is used and uploads are skipped.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/coursewise/coursewise/internal/config"
)

// ErrNotConfigured is returned when artifact storage is not configured.
var ErrNotConfigured = errors.New("artifact storage not configured")

// Uploader stores a built artifact under the index it was built for.
type Uploader interface {
	// Upload pushes the NDJSON file at filePath to storage, keyed by index.
	Upload(ctx context.Context, index string, filePath string) error
}

// s3Client defines the minimal minio.Client operations used by S3Uploader.
// This interface enables testing with mock implementations.
type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath string) error
}

// minioClientWrapper wraps *minio.Client to satisfy the s3Client
// interface with the NDJSON content type fixed.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) FPutObject(ctx context.Context, bucket, objectName, filePath string) error {
	putOpts := minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	}
	_, err := w.client.FPutObject(ctx, bucket, objectName, filePath, putOpts)
	return err
}

// S3Uploader uploads artifacts to S3-compatible storage.
type S3Uploader struct {
	client s3Client
	bucket string
}

// Upload pushes the artifact for the given index.
func (u *S3Uploader) Upload(ctx context.Context, index string, filePath string) error {
	key := objectKey(index, filePath)
	if err := u.client.FPutObject(ctx, u.bucket, key, filePath); err != nil {
		return fmt.Errorf("upload artifact to S3: %w", err)
	}
	return nil
}

// NoopUploader is used when artifact storage is not configured.
type NoopUploader struct{}

// Upload returns ErrNotConfigured; callers decide whether that matters.
func (u *NoopUploader) Upload(ctx context.Context, index string, filePath string) error {
	return ErrNotConfigured
}

// NewUploader creates the appropriate Uploader based on configuration.
// Returns NoopUploader when bucket is empty, S3Uploader otherwise.
func NewUploader(cfg config.ArtifactConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client: &minioClientWrapper{client: client},
		bucket: cfg.Bucket,
	}, nil
}

// objectKey returns the object key for an index's artifact.
// Convention: {index}/{artifact file name}
func objectKey(index, filePath string) string {
	return index + "/" + filepath.Base(filePath)
}
