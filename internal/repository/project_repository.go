package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/domain"
	"crm-api/internal/dto"
)

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.ProjectFilter) ([]domain.Project, int64, error)
}

var projectSortColumns = map[string]string{
	"name":       "name",
	"status":     "status",
	"start_date": "start_date",
	"end_date":   "end_date",
	"created_at": "created_at",
}

type projectRepositoryImpl struct {
	crudRepository[domain.Project]
}

// NewProjectRepository creates a new instance of ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepositoryImpl{crudRepository[domain.Project]{db: db}}
}

func (r *projectRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	if err := r.db.WithContext(ctx).
		Preload("Client", selectSummary).
		Where("id = ?", id).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepositoryImpl) List(ctx context.Context, filter dto.ProjectFilter) ([]domain.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Project{}).Scopes(
		search(filter.Q, "name"),
		whereEq("status", filter.Status),
		whereEq("client_id", filter.ClientID),
	)

	var projects []domain.Project
	total, err := listPage(query, filter.ListParams, projectSortColumns, &projects, "Client")
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}
