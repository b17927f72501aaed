package client

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-board-api/internal/config"
)

func testS3Config() *config.S3Config {
	return &config.S3Config{
		Bucket:    "test-bucket",
		Region:    "ap-northeast-2",
		AccessKey: "test-access-key",
		SecretKey: "test-secret-key",
	}
}

func TestGenerateFileKey(t *testing.T) {
	client, err := NewS3Client(testS3Config())
	require.NoError(t, err)

	projectID := uuid.New().String()

	tests := []struct {
		name      string
		projectID string
		fileExt   string
		wantExt   string
		wantErr   bool
	}{
		{"jpg", projectID, ".jpg", ".jpg", false},
		{"uppercase ext is lowered", projectID, ".PDF", ".pdf", false},
		{"ext without dot", projectID, "png", ".png", false},
		{"no ext", projectID, "", "", false},
		{"invalid project id", "workspace-123", ".jpg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := client.GenerateFileKey(tt.projectID, tt.fileExt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			// tasks/{projectId}/{year}/{month}/{uuid}_{timestamp}.ext
			parts := strings.Split(key, "/")
			require.Len(t, parts, 5)
			assert.Equal(t, "tasks", parts[0])
			assert.Equal(t, tt.projectID, parts[1])
			assert.Len(t, parts[2], 4)
			assert.Len(t, parts[3], 2)
			assert.Contains(t, parts[4], "_")
			if tt.wantExt != "" {
				assert.True(t, strings.HasSuffix(parts[4], tt.wantExt))
			}
		})
	}
}

func TestGenerateFileKey_Uniqueness(t *testing.T) {
	client, err := NewS3Client(testS3Config())
	require.NoError(t, err)
	projectID := uuid.New().String()

	keys := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := client.GenerateFileKey(projectID, ".jpg")
		require.NoError(t, err)
		assert.False(t, keys[key], "Generated key should be unique")
		keys[key] = true
	}
}

func TestGeneratePresignedURL(t *testing.T) {
	client, err := NewS3Client(testS3Config())
	require.NoError(t, err)
	projectID := uuid.New().String()

	url, key, err := client.GeneratePresignedURL(context.Background(), projectID, "design.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "tasks/"+projectID+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Contains(t, url, "test-bucket")
	assert.Contains(t, url, "X-Amz-Signature")
	assert.Contains(t, url, "X-Amz-Expires=300")
}

func TestGeneratePresignedURL_MinIOHostRewrite(t *testing.T) {
	cfg := testS3Config()
	cfg.Endpoint = "http://minio:9000"
	client, err := NewS3Client(cfg)
	require.NoError(t, err)
	client.endpoint = "http://localhost:9000"

	url, _, err := client.GeneratePresignedURL(context.Background(), uuid.New().String(), "a.txt", "text/plain")
	require.NoError(t, err)
	assert.Contains(t, url, "localhost:9000")
	assert.NotContains(t, url, "minio:9000")
}

func TestNewS3Client_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.S3Config
		msg  string
	}{
		{"missing bucket", &config.S3Config{Region: "ap-northeast-2"}, "bucket is required"},
		{"missing region", &config.S3Config{Bucket: "b"}, "region is required"},
		{"minio without keys", &config.S3Config{Bucket: "b", Region: "r", Endpoint: "http://localhost:9000"}, "access key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewS3Client(tt.cfg)
			assert.Nil(t, client)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestGetFileURL(t *testing.T) {
	client, err := NewS3Client(testS3Config())
	require.NoError(t, err)
	assert.Equal(t, "https://test-bucket.s3.ap-northeast-2.amazonaws.com/tasks/k.png", client.GetFileURL("tasks/k.png"))

	cfg := testS3Config()
	cfg.Endpoint = "http://localhost:9000/"
	minio, err := NewS3Client(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/test-bucket/tasks/k.png", minio.GetFileURL("tasks/k.png"))
}

func TestGeneratePresignedURL_ContextCancellation(t *testing.T) {
	client, err := NewS3Client(testS3Config())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// presigning is local, so a live context always succeeds
	_, _, err = client.GeneratePresignedURL(ctx, uuid.New().String(), "f.bin", "application/octet-stream")
	assert.NoError(t, err)
}

func TestGeneratePresignedURL_ConcurrentCalls(t *testing.T) {
	client, err := NewS3Client(testS3Config())
	require.NoError(t, err)
	projectID := uuid.New().String()

	var wg sync.WaitGroup
	var mu sync.Mutex
	keys := make(map[string]bool)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, key, err := client.GeneratePresignedURL(context.Background(), projectID, "f.jpg", "image/jpeg")
			assert.NoError(t, err)
			mu.Lock()
			keys[key] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, keys, 20)
}

func TestMockS3Client_RecordsDeletes(t *testing.T) {
	m := NewMockS3Client()
	_, key, err := m.GeneratePresignedURL(context.Background(), uuid.New().String(), "x.pdf", "application/pdf")
	require.NoError(t, err)
	require.NoError(t, m.DeleteFile(context.Background(), key))
	assert.Equal(t, []string{key}, m.Deleted)
}
