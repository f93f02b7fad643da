package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/domain"
	"crm-api/internal/dto"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.TaskFilter) ([]domain.Task, int64, error)
	CountDueOn(ctx context.Context, day time.Time) (int64, error)
}

var taskSortColumns = map[string]string{
	"title":      "title",
	"status":     "status",
	"priority":   "priority",
	"due_date":   "due_date",
	"created_at": "created_at",
}

type taskRepositoryImpl struct {
	crudRepository[domain.Task]
}

// NewTaskRepository creates a new instance of TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepositoryImpl{crudRepository[domain.Task]{db: db}}
}

func (r *taskRepositoryImpl) List(ctx context.Context, filter dto.TaskFilter) ([]domain.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Task{}).Scopes(
		search(filter.Q, "title"),
		whereEq("status", filter.Status),
		whereEq("priority", filter.Priority),
		whereEq("project_id", filter.ProjectID),
	)

	var tasks []domain.Task
	total, err := listPage(query, filter.ListParams, taskSortColumns, &tasks)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// CountDueOn counts unfinished tasks due on the calendar day of day
func (r *taskRepositoryImpl) CountDueOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("due_date >= ? AND due_date < ?", start, end).
		Where("status <> ?", domain.TaskStatusCompleted).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
