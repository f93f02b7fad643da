package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/domain"
)

// AttachmentRepository defines the interface for attachment data access
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	FindByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindExpiredTemp(ctx context.Context, now time.Time) ([]*domain.Attachment, error)
	Confirm(ctx context.Context, ids []uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
	DeleteByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error)
}

type attachmentRepositoryImpl struct {
	crudRepository[domain.Attachment]
}

// NewAttachmentRepository creates a new instance of AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepositoryImpl{crudRepository[domain.Attachment]{db: db}}
}

// FindByEntity lists the confirmed attachments of an entity, newest first
func (r *attachmentRepositoryImpl) FindByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	var attachments []*domain.Attachment
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND status = ?", entityType, entityID, domain.AttachmentStatusConfirmed).
		Order("created_at DESC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// FindExpiredTemp finds uploads that were never confirmed before expiring
func (r *attachmentRepositoryImpl) FindExpiredTemp(ctx context.Context, now time.Time) ([]*domain.Attachment, error) {
	var attachments []*domain.Attachment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", domain.AttachmentStatusTemp, now).
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// Confirm links TEMP attachments of the given type to an entity. Every id must be a TEMP upload.
func (r *attachmentRepositoryImpl) Confirm(ctx context.Context, ids []uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Attachment{}).
			Where("id IN ? AND status = ? AND entity_type = ?", ids, domain.AttachmentStatusTemp, entityType).
			Updates(map[string]interface{}{
				"status":     domain.AttachmentStatusConfirmed,
				"entity_id":  entityID,
				"expires_at": nil,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(ids)) {
			return fmt.Errorf("expected to confirm %d attachment(s) but only confirmed %d", len(ids), result.RowsAffected)
		}
		return nil
	})
}

// DeleteBatch deletes multiple attachments by their IDs
func (r *attachmentRepositoryImpl) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Attachment{}).Error
}

// DeleteByEntity removes every attachment row of an entity and returns them so files can be purged
func (r *attachmentRepositoryImpl) DeleteByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	var attachments []*domain.Attachment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_type = ? AND entity_id = ?", entityType, entityID).Find(&attachments).Error; err != nil {
			return err
		}
		if len(attachments) == 0 {
			return nil
		}
		return tx.Where("entity_type = ? AND entity_id = ?", entityType, entityID).Delete(&domain.Attachment{}).Error
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}
