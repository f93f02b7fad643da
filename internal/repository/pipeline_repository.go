package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/domain"
)

// PipelineRepository defines the interface for pipeline and stage data access
type PipelineRepository interface {
	List(ctx context.Context) ([]domain.Pipeline, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Pipeline, error)
	FindStages(ctx context.Context, pipelineID uuid.UUID) ([]domain.Stage, error)
	FindStageByID(ctx context.Context, id uuid.UUID) (*domain.Stage, error)
	Create(ctx context.Context, pipeline *domain.Pipeline) error
}

type pipelineRepositoryImpl struct {
	db *gorm.DB
}

// NewPipelineRepository creates a new instance of PipelineRepository
func NewPipelineRepository(db *gorm.DB) PipelineRepository {
	return &pipelineRepositoryImpl{db: db}
}

func orderStages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("id ASC")
}

// List returns all pipelines sorted by name, each with stages sorted by position
func (r *pipelineRepositoryImpl) List(ctx context.Context) ([]domain.Pipeline, error) {
	var pipelines []domain.Pipeline
	if err := r.db.WithContext(ctx).
		Preload("Stages", orderStages).
		Order("name ASC").
		Find(&pipelines).Error; err != nil {
		return nil, err
	}
	return pipelines, nil
}

// FindByID loads pipeline metadata without stages
func (r *pipelineRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Pipeline, error) {
	var pipeline domain.Pipeline
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pipeline).Error; err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// FindStages returns the stages of a pipeline in display order
func (r *pipelineRepositoryImpl) FindStages(ctx context.Context, pipelineID uuid.UUID) ([]domain.Stage, error) {
	var stages []domain.Stage
	if err := r.db.WithContext(ctx).
		Where("pipeline_id = ?", pipelineID).
		Scopes(orderStages).
		Find(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *pipelineRepositoryImpl) FindStageByID(ctx context.Context, id uuid.UUID) (*domain.Stage, error) {
	var stage domain.Stage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&stage).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

// Create inserts a pipeline together with its stages
func (r *pipelineRepositoryImpl) Create(ctx context.Context, pipeline *domain.Pipeline) error {
	return mapDBError(r.db.WithContext(ctx).Create(pipeline).Error)
}
