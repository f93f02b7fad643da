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

	"crm-api/internal/config"
	"crm-api/internal/domain"
)

func newTestS3Client(t *testing.T, endpoint string) *S3Client {
	t.Helper()
	cfg := &config.S3Config{
		Bucket:    "crm-attachments",
		Region:    "me-south-1",
		Endpoint:  endpoint,
		AccessKey: "test-access-key",
		SecretKey: "test-secret-key",
	}
	client, err := NewS3Client(context.Background(), cfg, nil)
	require.NoError(t, err)
	return client
}

func TestGenerateFileKey(t *testing.T) {
	uploader := uuid.New()
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		entityType domain.EntityType
		fileName   string
		wantPrefix string
		wantExt    string
		wantErr    bool
	}{
		{"opportunity pdf", domain.EntityTypeOpportunity, "offer.PDF", "crm/opportunity/" + uploader.String() + "/2026/03/", ".pdf", false},
		{"client image", domain.EntityTypeClient, "logo.png", "crm/client/" + uploader.String() + "/2026/03/", ".png", false},
		{"no extension", domain.EntityTypeLead, "notes", "crm/lead/", "", false},
		{"invalid type", domain.EntityType("BOARD"), "x.jpg", "", "", true},
		{"empty type", domain.EntityType(""), "x.jpg", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := generateFileKey(tt.entityType, uploader, tt.fileName, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid entity type")
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(key, tt.wantPrefix), key)
			assert.True(t, strings.HasSuffix(key, tt.wantExt), key)
			assert.Len(t, strings.Split(key, "/"), 6)
		})
	}
}

func TestGenerateFileKey_Uniqueness(t *testing.T) {
	client := newTestS3Client(t, "")
	uploader := uuid.New()

	keys := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := client.GenerateFileKey(domain.EntityTypeProject, uploader, "plan.xlsx")
		require.NoError(t, err)
		assert.False(t, keys[key], "duplicate key %s", key)
		keys[key] = true
	}
}

func TestGeneratePresignedURL(t *testing.T) {
	client := newTestS3Client(t, "")

	url, key, err := client.GeneratePresignedURL(context.Background(), domain.EntityTypeOpportunity, uuid.New(), "offer.pdf", "application/pdf")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "crm/opportunity/"))
	assert.Contains(t, url, "crm-attachments")
	assert.Contains(t, url, "X-Amz-Algorithm")
	assert.Contains(t, url, "X-Amz-Signature")
	assert.Contains(t, url, "X-Amz-Expires=900", "upload URLs expire after 15 minutes")
}

func TestGeneratePresignedURL_InvalidEntity(t *testing.T) {
	client := newTestS3Client(t, "")

	_, _, err := client.GeneratePresignedURL(context.Background(), domain.EntityType("TASK"), uuid.New(), "a.txt", "text/plain")
	require.Error(t, err)
}

func TestGeneratePresignedURL_CustomEndpoint(t *testing.T) {
	client := newTestS3Client(t, "http://localhost:9000/")

	url, _, err := client.GeneratePresignedURL(context.Background(), domain.EntityTypeClient, uuid.New(), "a.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/crm-attachments/crm/client/"), url)
}

func TestGeneratePresignedURL_ConcurrentCalls(t *testing.T) {
	client := newTestS3Client(t, "")
	uploader := uuid.New()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		keys = map[string]bool{}
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, key, err := client.GeneratePresignedURL(context.Background(), domain.EntityTypeLead, uploader, "cv.pdf", "application/pdf")
			assert.NoError(t, err)
			mu.Lock()
			keys[key] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, keys, 20)
}

func TestNewS3Client_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{"missing bucket", config.S3Config{Region: "me-south-1"}, "bucket is required"},
		{"missing region", config.S3Config{Bucket: "b"}, "region is required"},
		{"endpoint without keys", config.S3Config{Bucket: "b", Region: "r", Endpoint: "http://minio:9000"}, "access key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Client(context.Background(), &tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetFileURL(t *testing.T) {
	assert.Equal(t,
		"https://crm-attachments.s3.me-south-1.amazonaws.com/crm/lead/x.pdf",
		newTestS3Client(t, "").GetFileURL("crm/lead/x.pdf"))
	assert.Equal(t,
		"http://localhost:9000/crm-attachments/crm/lead/x.pdf",
		newTestS3Client(t, "http://localhost:9000").GetFileURL("crm/lead/x.pdf"))
}

func TestMockFileStorage_RecordsDeletes(t *testing.T) {
	m := NewMockFileStorage()

	url, key, err := m.GeneratePresignedURL(context.Background(), domain.EntityTypeProject, uuid.New(), "a.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Contains(t, url, key)

	require.NoError(t, m.DeleteFile(context.Background(), key))
	assert.Equal(t, []string{key}, m.Deleted())
}
