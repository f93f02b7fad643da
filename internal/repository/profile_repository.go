package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-api/internal/domain"
)

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	EnsureExists(ctx context.Context, profile *domain.Profile) error
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
}

type profileRepositoryImpl struct {
	crudRepository[domain.Profile]
}

// NewProfileRepository creates a new instance of ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepositoryImpl{crudRepository[domain.Profile]{db: db}}
}

// EnsureExists inserts the profile unless a row with the same id exists
func (r *profileRepositoryImpl) EnsureExists(ctx context.Context, profile *domain.Profile) error {
	return mapDBError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(profile).Error)
}

// UpdateRole sets the role; an empty role removes every permission
func (r *profileRepositoryImpl) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
