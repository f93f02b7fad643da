package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"crm-api/internal/domain"
)

// MockFileStorage implements FileStorage without AWS credentials. Deleted keys are recorded.
type MockFileStorage struct {
	Bucket string
	Region string

	GeneratePresignedURLFunc func(ctx context.Context, entityType domain.EntityType, uploaderID uuid.UUID, fileName, contentType string) (string, string, error)
	DeleteFileFunc           func(ctx context.Context, key string) error

	mu      sync.Mutex
	deleted []string
}

func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{Bucket: "test-bucket", Region: "me-south-1"}
}

func (m *MockFileStorage) GenerateFileKey(entityType domain.EntityType, uploaderID uuid.UUID, fileName string) (string, error) {
	return generateFileKey(entityType, uploaderID, fileName, time.Now().UTC())
}

func (m *MockFileStorage) GeneratePresignedURL(ctx context.Context, entityType domain.EntityType, uploaderID uuid.UUID, fileName, contentType string) (string, string, error) {
	if m.GeneratePresignedURLFunc != nil {
		return m.GeneratePresignedURLFunc(ctx, entityType, uploaderID, fileName, contentType)
	}

	key, err := m.GenerateFileKey(entityType, uploaderID, fileName)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate file key: %w", err)
	}
	url := fmt.Sprintf("%s?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Expires=%d&X-Amz-Signature=mock",
		m.GetFileURL(key), int(PresignExpiry.Seconds()))
	return url, key, nil
}

func (m *MockFileStorage) DeleteFile(ctx context.Context, key string) error {
	if m.DeleteFileFunc != nil {
		if err := m.DeleteFileFunc(ctx, key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()
	return nil
}

func (m *MockFileStorage) GetFileURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.Bucket, m.Region, key)
}

// Deleted returns the keys passed to successful DeleteFile calls.
func (m *MockFileStorage) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

var _ FileStorage = (*MockFileStorage)(nil)
