package client

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appConfig "crm-api/internal/config"
	"crm-api/internal/domain"
	"crm-api/internal/metrics"
)

// PresignExpiry is how long an upload URL stays valid.
const PresignExpiry = 15 * time.Minute

// FileStorage is the attachment object store.
type FileStorage interface {
	GenerateFileKey(entityType domain.EntityType, uploaderID uuid.UUID, fileName string) (string, error)
	GeneratePresignedURL(ctx context.Context, entityType domain.EntityType, uploaderID uuid.UUID, fileName, contentType string) (url string, key string, err error)
	DeleteFile(ctx context.Context, key string) error
	GetFileURL(key string) string
}

// S3Client wraps the AWS S3 client. It also works against S3 compatible stores when an endpoint is set.
type S3Client struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	region        string
	endpoint      string
	metrics       *metrics.Metrics
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, cfg *appConfig.S3Config, m *metrics.Metrics) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}
	if cfg.Endpoint != "" && (cfg.AccessKey == "" || cfg.SecretKey == "") {
		return nil, fmt.Errorf("access key and secret key are required for a custom S3 endpoint")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	// Without static keys the default chain (env, shared config, instance role) applies.
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:        s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		endpoint:      endpoint,
		metrics:       m,
	}, nil
}

// GenerateFileKey builds a unique object key.
// Format: crm/{entityType}/{uploaderId}/{yyyy}/{mm}/{uuid}{ext}
func (c *S3Client) GenerateFileKey(entityType domain.EntityType, uploaderID uuid.UUID, fileName string) (string, error) {
	return generateFileKey(entityType, uploaderID, fileName, time.Now().UTC())
}

func generateFileKey(entityType domain.EntityType, uploaderID uuid.UUID, fileName string, now time.Time) (string, error) {
	if _, ok := domain.ParseEntityType(string(entityType)); !ok {
		return "", fmt.Errorf("invalid entity type: %q", entityType)
	}
	ext := strings.ToLower(filepath.Ext(fileName))

	return fmt.Sprintf("crm/%s/%s/%s/%s/%s%s",
		strings.ToLower(string(entityType)),
		uploaderID,
		now.Format("2006"),
		now.Format("01"),
		uuid.New(),
		ext,
	), nil
}

// GeneratePresignedURL returns a PUT url valid for PresignExpiry and the key it writes to.
func (c *S3Client) GeneratePresignedURL(ctx context.Context, entityType domain.EntityType, uploaderID uuid.UUID, fileName, contentType string) (string, string, error) {
	fileKey, err := c.GenerateFileKey(entityType, uploaderID, fileName)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate file key: %w", err)
	}

	req, err := c.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(fileKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return req.URL, fileKey, nil
}

// DeleteFile deletes an object. Deleting a missing key is not an error on S3.
func (c *S3Client) DeleteFile(ctx context.Context, key string) error {
	start := time.Now()
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	status := 204
	if err != nil {
		status = 0
	}
	c.metrics.RecordExternalAPICall("s3:DeleteObject", "DELETE", status, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// GetFileURL returns the download URL for a key
func (c *S3Client) GetFileURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}

var _ FileStorage = (*S3Client)(nil)

// ErrStorageDisabled is returned by DisabledStorage
var ErrStorageDisabled = fmt.Errorf("file storage is not configured")

// DisabledStorage is the FileStorage used when no bucket is configured. Uploads fail;
// listing still works with empty URLs.
type DisabledStorage struct{}

func (DisabledStorage) GenerateFileKey(domain.EntityType, uuid.UUID, string) (string, error) {
	return "", ErrStorageDisabled
}

func (DisabledStorage) GeneratePresignedURL(context.Context, domain.EntityType, uuid.UUID, string, string) (string, string, error) {
	return "", "", ErrStorageDisabled
}

func (DisabledStorage) DeleteFile(context.Context, string) error {
	return ErrStorageDisabled
}

func (DisabledStorage) GetFileURL(string) string {
	return ""
}
