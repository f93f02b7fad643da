package dto

import (
	"time"

	"github.com/google/uuid"
)

// PresignedURLRequest represents the request to generate a presigned upload URL
type PresignedURLRequest struct {
	EntityType  string `json:"entityType" binding:"required,oneof=OPPORTUNITY CLIENT LEAD PROJECT opportunity client lead project"`
	FileName    string `json:"fileName" binding:"required,max=255"`
	FileSize    int64  `json:"fileSize" binding:"required,min=1"`
	ContentType string `json:"contentType" binding:"required,max=100"`
}

// PresignedURLResponse represents the response containing the presigned URL
type PresignedURLResponse struct {
	AttachmentID uuid.UUID `json:"attachmentId"`
	UploadURL    string    `json:"uploadUrl"`
	FileKey      string    `json:"fileKey"`
	ExpiresIn    int       `json:"expiresIn"` // seconds
}

// ConfirmAttachmentsRequest links uploaded attachments to an entity
type ConfirmAttachmentsRequest struct {
	AttachmentIDs []uuid.UUID `json:"attachmentIds" binding:"required,min=1,max=20"`
}

// AttachmentResponse represents attachment metadata
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	EntityType  string     `json:"entityType"`
	EntityID    *uuid.UUID `json:"entityId"`
	Status      string     `json:"status"`
	FileName    string     `json:"fileName"`
	FileURL     string     `json:"fileUrl"`
	FileSize    int64      `json:"fileSize"`
	ContentType string     `json:"contentType"`
	UploadedBy  uuid.UUID  `json:"uploadedBy"`
	UploadedAt  time.Time  `json:"uploadedAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}
