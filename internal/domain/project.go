package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProjectStatus is the delivery state of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
)

// Project is delivery work for a client
type Project struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	ClientID    *uuid.UUID      `gorm:"type:uuid;index:idx_projects_client_id" json:"client_id"`
	Status      ProjectStatus   `gorm:"type:varchar(20);not null;default:'active';index:idx_projects_status" json:"status"`
	Budget      *float64        `gorm:"type:numeric(14,2)" json:"budget"`
	StartDate   *datatypes.Date `gorm:"type:date" json:"start_date"`
	EndDate     *datatypes.Date `gorm:"type:date" json:"end_date"`
	Client      *Client         `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}
