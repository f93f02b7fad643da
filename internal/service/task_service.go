package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
)

// TaskService defines the interface for task business logic
type TaskService interface {
	List(ctx context.Context, p authz.Principal, filter dto.TaskFilter) (*dto.Page[dto.TaskResponse], error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.TaskResponse, error)
	Create(ctx context.Context, p authz.Principal, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type taskServiceImpl struct {
	repo   repository.TaskRepository
	logger *zap.Logger
}

// NewTaskService creates a new instance of TaskService
func NewTaskService(repo repository.TaskRepository, logger *zap.Logger) TaskService {
	return &taskServiceImpl{repo: repo, logger: logger}
}

func (s *taskServiceImpl) List(ctx context.Context, p authz.Principal, filter dto.TaskFilter) (*dto.Page[dto.TaskResponse], error) {
	if err := authorize(p, authz.ActionView, authz.ResourceTasks, nil); err != nil {
		return nil, err
	}
	filter.Normalize()

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, repoError(err, "", "Failed to list tasks")
	}
	page := dto.NewPage(mapSlice(items, toTaskResponse), total, filter.ListParams)
	return &page, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.TaskResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceTasks, nil); err != nil {
		return nil, err
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Task not found", "Failed to get task")
	}
	resp := toTaskResponse(task)
	return &resp, nil
}

func (s *taskServiceImpl) Create(ctx context.Context, p authz.Principal, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if err := authorize(p, authz.ActionCreate, authz.ResourceTasks, nil); err != nil {
		return nil, err
	}

	dueDate, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		Assignee:    req.Assignee,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
		DueDate:     dueDate,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, repoError(err, "", "Failed to create task")
	}
	resp := toTaskResponse(task)
	return &resp, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	if err := authorize(p, authz.ActionUpdate, authz.ResourceTasks, nil); err != nil {
		return nil, err
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Task not found", "Failed to get task")
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.ProjectID != nil {
		task.ProjectID = req.ProjectID
	}
	if req.Assignee != nil {
		task.Assignee = *req.Assignee
	}
	if req.Status != nil {
		task.Status = domain.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		task.Priority = domain.TaskPriority(*req.Priority)
	}
	if req.DueDate != nil {
		if task.DueDate, err = parseDate("dueDate", req.DueDate); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, repoError(err, "Task not found", "Failed to update task")
	}
	resp := toTaskResponse(task)
	return &resp, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if err := authorize(p, authz.ActionDelete, authz.ResourceTasks, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Task not found", "Failed to delete task")
	}
	return nil
}
