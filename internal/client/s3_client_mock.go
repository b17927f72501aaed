package client

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// MockS3Client implements S3ClientInterface for tests and local runs without a bucket
type MockS3Client struct {
	Bucket string
	Region string

	// Optional function overrides for custom test behavior
	GeneratePresignedURLFunc func(ctx context.Context, projectID, fileName, contentType string) (string, string, error)
	DeleteFileFunc           func(ctx context.Context, key string) error

	mu      sync.Mutex
	Deleted []string
}

// NewMockS3Client creates a new mock S3 client for testing
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{
		Bucket: "test-bucket",
		Region: "ap-northeast-2",
	}
}

func (m *MockS3Client) GenerateFileKey(projectID, fileExt string) (string, error) {
	return newFileKey(projectID, fileExt, time.Now())
}

func (m *MockS3Client) GeneratePresignedURL(ctx context.Context, projectID, fileName, contentType string) (string, string, error) {
	if m.GeneratePresignedURLFunc != nil {
		return m.GeneratePresignedURLFunc(ctx, projectID, fileName, contentType)
	}

	fileKey, err := m.GenerateFileKey(projectID, filepath.Ext(fileName))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate file key: %w", err)
	}
	url := fmt.Sprintf("%s?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Expires=%d&X-Amz-Signature=mocksignature",
		m.GetFileURL(fileKey), int(PresignExpiry.Seconds()))
	return url, fileKey, nil
}

// DeleteFile records the key and succeeds unless overridden
func (m *MockS3Client) DeleteFile(ctx context.Context, key string) error {
	if m.DeleteFileFunc != nil {
		return m.DeleteFileFunc(ctx, key)
	}
	m.mu.Lock()
	m.Deleted = append(m.Deleted, key)
	m.mu.Unlock()
	return nil
}

func (m *MockS3Client) GetFileURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.Bucket, m.Region, key)
}

// Ensure MockS3Client implements S3ClientInterface
var _ S3ClientInterface = (*MockS3Client)(nil)
