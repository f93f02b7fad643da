package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/client"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
	"crm-api/internal/response"
)

// MaxFileSize defines the maximum allowed file size for uploads (50MB).
const MaxFileSize = 50 * 1024 * 1024

// TempAttachmentTTL is how long an unconfirmed upload is kept before the cleanup job purges it.
const TempAttachmentTTL = time.Hour

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/heic":      true,
	"application/pdf": true,
	"text/plain":      true,
	"text/csv":        true,

	"application/msword":       true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,

	"application/zip": true,
}

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
	".pdf": true, ".txt": true, ".csv": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".zip": true,
}

// AttachmentCleaner removes the files of a deleted entity
type AttachmentCleaner interface {
	RemoveForEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID)
}

// AttachmentService defines the interface for attachment business logic
type AttachmentService interface {
	AttachmentCleaner
	CreatePresignedURL(ctx context.Context, p authz.Principal, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error)
	Confirm(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID, ids []uuid.UUID) ([]dto.AttachmentResponse, error)
	ListByEntity(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID) ([]dto.AttachmentResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	CleanupExpired(ctx context.Context, now time.Time) (deleted int, failed int, err error)
}

// EntityOwners loads the ownership data attachments are authorized against
type EntityOwners struct {
	Opportunities repository.OpportunityRepository
	Clients       repository.ClientRepository
	Leads         repository.LeadRepository
	Projects      repository.ProjectRepository
}

type attachmentServiceImpl struct {
	repo    repository.AttachmentRepository
	storage client.FileStorage
	owners  EntityOwners
	logger  *zap.Logger
}

// NewAttachmentService creates a new instance of AttachmentService
func NewAttachmentService(repo repository.AttachmentRepository, storage client.FileStorage, owners EntityOwners, logger *zap.Logger) AttachmentService {
	return &attachmentServiceImpl{repo: repo, storage: storage, owners: owners, logger: logger}
}

// entityResource maps an attachment entity type to the resource guarding it
func entityResource(entityType domain.EntityType) authz.Resource {
	switch entityType {
	case domain.EntityTypeOpportunity:
		return authz.ResourceOpportunities
	case domain.EntityTypeClient:
		return authz.ResourceClients
	case domain.EntityTypeLead:
		return authz.ResourceLeads
	default:
		return authz.ResourceProjects
	}
}

// entityRecord loads the entity an attachment belongs to. Projects carry no owner.
func (s *attachmentServiceImpl) entityRecord(ctx context.Context, entityType domain.EntityType, id uuid.UUID) (*authz.Record, error) {
	var (
		owned authz.Owned
		err   error
	)
	switch entityType {
	case domain.EntityTypeOpportunity:
		owned, err = s.owners.Opportunities.FindByID(ctx, id)
	case domain.EntityTypeClient:
		owned, err = s.owners.Clients.FindByID(ctx, id)
	case domain.EntityTypeLead:
		owned, err = s.owners.Leads.FindByID(ctx, id)
	case domain.EntityTypeProject:
		if _, err = s.owners.Projects.FindByID(ctx, id); err == nil {
			return nil, nil
		}
	default:
		return nil, response.NewValidationError("Invalid entity type", string(entityType))
	}
	if err != nil {
		return nil, repoError(err, "Entity not found", "Failed to load entity")
	}
	return authz.RecordOf(owned), nil
}

// authorizeEntity checks action on the entity, reporting NotFound only to principals whose role allows the action
func (s *attachmentServiceImpl) authorizeEntity(ctx context.Context, p authz.Principal, action authz.Action, entityType domain.EntityType, id uuid.UUID) error {
	resource := entityResource(entityType)
	if err := authorize(p, action, resource, nil); err != nil {
		return err
	}
	record, err := s.entityRecord(ctx, entityType, id)
	if err != nil {
		return err
	}
	return authorize(p, action, resource, record)
}

func validateUpload(req *dto.PresignedURLRequest) error {
	var fields []response.FieldError
	if req.FileSize > MaxFileSize {
		fields = append(fields, response.FieldError{Field: "fileSize", Message: "حجم الملف يتجاوز 50 ميجابايت"})
	}
	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !allowedExtensions[ext] {
		fields = append(fields, response.FieldError{Field: "fileName", Message: "امتداد الملف غير مسموح"})
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(req.ContentType, ";", 2)[0]))
	if !allowedContentTypes[contentType] {
		fields = append(fields, response.FieldError{Field: "contentType", Message: "نوع الملف غير مسموح"})
	}
	if len(fields) > 0 {
		return response.NewFieldValidationError(fields)
	}
	return nil
}

func (s *attachmentServiceImpl) CreatePresignedURL(ctx context.Context, p authz.Principal, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error) {
	entityType, ok := domain.ParseEntityType(strings.ToUpper(req.EntityType))
	if !ok {
		return nil, response.NewFieldValidationError([]response.FieldError{{Field: "entityType", Message: "نوع الكيان غير صحيح"}})
	}
	if err := authorize(p, authz.ActionUpdate, entityResource(entityType), nil); err != nil {
		return nil, err
	}
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	uploadURL, fileKey, err := s.storage.GeneratePresignedURL(ctx, entityType, p.UserID, req.FileName, req.ContentType)
	if errors.Is(err, client.ErrStorageDisabled) {
		return nil, response.NewValidationError("Attachment storage is not configured", "")
	}
	if err != nil {
		s.logger.Error("Failed to generate presigned URL", zap.String("entity_type", string(entityType)), zap.Error(err))
		return nil, response.NewInternalError("Failed to generate presigned URL", err)
	}

	expiresAt := time.Now().UTC().Add(TempAttachmentTTL)
	attachment := &domain.Attachment{
		BaseModel:   domain.BaseModel{ID: uuid.New()},
		EntityType:  entityType,
		Status:      domain.AttachmentStatusTemp,
		FileName:    req.FileName,
		FileKey:     fileKey,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
		UploadedBy:  p.UserID,
		ExpiresAt:   &expiresAt,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		return nil, repoError(err, "", "Failed to create attachment record")
	}

	return &dto.PresignedURLResponse{
		AttachmentID: attachment.ID,
		UploadURL:    uploadURL,
		FileKey:      fileKey,
		ExpiresIn:    int(client.PresignExpiry.Seconds()),
	}, nil
}

func (s *attachmentServiceImpl) Confirm(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID, ids []uuid.UUID) ([]dto.AttachmentResponse, error) {
	if err := s.authorizeEntity(ctx, p, authz.ActionUpdate, entityType, entityID); err != nil {
		return nil, err
	}

	ids = uniqueIDs(ids)
	if err := s.repo.Confirm(ctx, ids, entityType, entityID); err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		s.logger.Warn("Attachment confirmation rejected",
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
		return nil, response.NewValidationError("Attachments are missing, expired or already confirmed", err.Error())
	}

	s.logger.Info("Attachments confirmed",
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID.String()),
		zap.Int("count", len(ids)),
	)
	return s.list(ctx, entityType, entityID)
}

func (s *attachmentServiceImpl) ListByEntity(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID) ([]dto.AttachmentResponse, error) {
	if err := authorize(p, authz.ActionView, entityResource(entityType), nil); err != nil {
		return nil, err
	}
	return s.list(ctx, entityType, entityID)
}

func (s *attachmentServiceImpl) list(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]dto.AttachmentResponse, error) {
	attachments, err := s.repo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, repoError(err, "", "Failed to retrieve attachments")
	}
	out := make([]dto.AttachmentResponse, len(attachments))
	for i, a := range attachments {
		out[i] = toAttachmentResponse(a, s.storage.GetFileURL(a.FileKey))
	}
	return out, nil
}

// Delete removes an attachment. Unconfirmed uploads may only be removed by their uploader.
func (s *attachmentServiceImpl) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return repoError(err, "Attachment not found", "Failed to get attachment")
	}

	if attachment.EntityID == nil {
		if attachment.UploadedBy != p.UserID {
			return response.NewForbiddenError("Only the uploader can delete an unconfirmed attachment")
		}
	} else if err := s.authorizeEntity(ctx, p, authz.ActionUpdate, attachment.EntityType, *attachment.EntityID); err != nil {
		return err
	}

	if err := s.storage.DeleteFile(ctx, attachment.FileKey); err != nil {
		s.logger.Warn("Failed to delete attachment file",
			zap.String("attachment_id", id.String()),
			zap.String("file_key", attachment.FileKey),
			zap.Error(err),
		)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Attachment not found", "Failed to delete attachment")
	}
	return nil
}

// RemoveForEntity drops the rows and files of a deleted entity. Failures are logged only.
func (s *attachmentServiceImpl) RemoveForEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) {
	removed, err := s.repo.DeleteByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Error("Failed to delete entity attachments",
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
		return
	}
	for _, a := range removed {
		if err := s.storage.DeleteFile(ctx, a.FileKey); err != nil {
			s.logger.Warn("Failed to delete attachment file",
				zap.String("attachment_id", a.ID.String()),
				zap.String("file_key", a.FileKey),
				zap.Error(err),
			)
		}
	}
}

// CleanupExpired purges TEMP uploads past their expiry. Rows are only deleted once their file is gone.
func (s *attachmentServiceImpl) CleanupExpired(ctx context.Context, now time.Time) (int, int, error) {
	expired, err := s.repo.FindExpiredTemp(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	var ids []uuid.UUID
	failed := 0
	for _, a := range expired {
		if err := s.storage.DeleteFile(ctx, a.FileKey); err != nil {
			s.logger.Error("Failed to delete file from S3",
				zap.String("attachment_id", a.ID.String()),
				zap.String("file_key", a.FileKey),
				zap.Error(err),
			)
			failed++
			continue
		}
		ids = append(ids, a.ID)
	}

	if err := s.repo.DeleteBatch(ctx, ids); err != nil {
		return 0, len(expired), err
	}
	return len(ids), failed, nil
}

// uniqueIDs removes duplicates while keeping the first occurrence order
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
