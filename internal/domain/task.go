package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task is a unit of work, optionally inside a project
type Task struct {
	BaseModel
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	ProjectID   *uuid.UUID      `gorm:"type:uuid;index:idx_tasks_project_id" json:"project_id"`
	Assignee    string          `gorm:"type:varchar(255)" json:"assignee"`
	Status      TaskStatus      `gorm:"type:varchar(20);not null;default:'pending';index:idx_tasks_status" json:"status"`
	Priority    TaskPriority    `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate     *datatypes.Date `gorm:"type:date;index:idx_tasks_due_date" json:"due_date"`
	Project     *Project        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
}

// TableName specifies the table name for Task
func (Task) TableName() string {
	return "tasks"
}
