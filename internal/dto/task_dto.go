package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest represents the request to create a task
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=2,max=255" example:"متابعة العرض"`
	Description string     `json:"description" binding:"max=5000"`
	ProjectID   *uuid.UUID `json:"projectId"`
	Assignee    string     `json:"assignee" binding:"max=255"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in_progress completed" example:"pending"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high" example:"medium"`
	DueDate     *string    `json:"dueDate" binding:"omitempty,datetime=2006-01-02" example:"2025-02-01"`
}

// UpdateTaskRequest represents a partial task update
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=2,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	ProjectID   *uuid.UUID `json:"projectId"`
	Assignee    *string    `json:"assignee" binding:"omitempty,max=255"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *string    `json:"dueDate" binding:"omitempty,datetime=2006-01-02"`
}

// TaskFilter narrows the task list
type TaskFilter struct {
	ListParams
	Status    string `form:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority  string `form:"priority" binding:"omitempty,oneof=low medium high"`
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
}

// TaskResponse represents a task
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   *uuid.UUID `json:"projectId"`
	Assignee    string     `json:"assignee"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *string    `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
