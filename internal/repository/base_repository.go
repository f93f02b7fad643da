package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// crudRepository implements the single-row operations shared by entity repositories
type crudRepository[T any] struct {
	db *gorm.DB
}

// Create inserts a new row
func (r *crudRepository[T]) Create(ctx context.Context, entity *T) error {
	return mapDBError(r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error)
}

// FindByID returns gorm.ErrRecordNotFound when no row matches
func (r *crudRepository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update writes every column of entity. Associations are left untouched.
func (r *crudRepository[T]) Update(ctx context.Context, entity *T) error {
	return mapDBError(r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error)
}

// Delete hard-deletes the row, returning gorm.ErrRecordNotFound when none matched
func (r *crudRepository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var entity T
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity)
	if result.Error != nil {
		return mapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
