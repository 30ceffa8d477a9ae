package artifact

import (
	"context"
	"errors"
	"testing"

	"github.com/coursewise/coursewise/internal/config"
)

type mockS3Client struct {
	bucket     string
	objectName string
	filePath   string
	err        error
}

func (m *mockS3Client) FPutObject(ctx context.Context, bucket, objectName, filePath string) error {
	m.bucket = bucket
	m.objectName = objectName
	m.filePath = filePath
	return m.err
}

func TestS3UploaderUpload(t *testing.T) {
	mock := &mockS3Client{}
	u := &S3Uploader{client: mock, bucket: "artifacts"}

	err := u.Upload(context.Background(), "courses", "/tmp/out/vectors.ndjson")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if mock.bucket != "artifacts" {
		t.Errorf("bucket = %q, want artifacts", mock.bucket)
	}
	if mock.objectName != "courses/vectors.ndjson" {
		t.Errorf("objectName = %q, want courses/vectors.ndjson", mock.objectName)
	}
	if mock.filePath != "/tmp/out/vectors.ndjson" {
		t.Errorf("filePath = %q", mock.filePath)
	}
}

func TestS3UploaderUploadError(t *testing.T) {
	cause := errors.New("connection refused")
	u := &S3Uploader{client: &mockS3Client{err: cause}, bucket: "artifacts"}

	err := u.Upload(context.Background(), "courses", "/tmp/vectors.ndjson")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, cause) {
		t.Errorf("error should wrap cause, got %v", err)
	}
}

func TestNoopUploader(t *testing.T) {
	u := &NoopUploader{}
	if err := u.Upload(context.Background(), "courses", "x.ndjson"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Upload() error = %v, want ErrNotConfigured", err)
	}
}

func TestNewUploader(t *testing.T) {
	u, err := NewUploader(config.ArtifactConfig{})
	if err != nil {
		t.Fatalf("NewUploader() error = %v", err)
	}
	if _, ok := u.(*NoopUploader); !ok {
		t.Errorf("empty bucket should yield NoopUploader, got %T", u)
	}

	u, err = NewUploader(config.ArtifactConfig{
		Endpoint:  "minio.internal:9000",
		Bucket:    "artifacts",
		AccessKey: "key",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewUploader() error = %v", err)
	}
	if _, ok := u.(*S3Uploader); !ok {
		t.Errorf("configured bucket should yield S3Uploader, got %T", u)
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		index    string
		filePath string
		want     string
	}{
		{"courses", "vectors.ndjson", "courses/vectors.ndjson"},
		{"courses", "/data/out/vectors.ndjson", "courses/vectors.ndjson"},
		{"fall2026", "./build/embeddings.ndjson", "fall2026/embeddings.ndjson"},
	}

	for _, tt := range tests {
		if got := objectKey(tt.index, tt.filePath); got != tt.want {
			t.Errorf("objectKey(%q, %q) = %q, want %q", tt.index, tt.filePath, got, tt.want)
		}
	}
}
