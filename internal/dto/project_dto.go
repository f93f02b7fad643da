package dto

import (
	"time"

	"crm-api/internal/response"

	"github.com/google/uuid"
)

// CreateProjectRequest represents the request to create a project
// @Description endDate must be on or after startDate when both are provided
type CreateProjectRequest struct {
	Name        string     `json:"name" binding:"required,min=2,max=255" example:"تركيب النظام"`
	Description string     `json:"description" binding:"max=5000"`
	ClientID    *uuid.UUID `json:"clientId"`
	Status      string     `json:"status" binding:"omitempty,oneof=active completed on_hold" example:"active"`
	Budget      *float64   `json:"budget" binding:"omitempty,gte=0" example:"50000"`
	StartDate   *string    `json:"startDate" binding:"omitempty,datetime=2006-01-02" example:"2025-01-01"`
	EndDate     *string    `json:"endDate" binding:"omitempty,datetime=2006-01-02" example:"2025-03-31"`
}

func (r *CreateProjectRequest) CheckFields() []response.FieldError {
	return checkDateRange(r.StartDate, r.EndDate)
}

// UpdateProjectRequest represents a partial project update
type UpdateProjectRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=2,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	ClientID    *uuid.UUID `json:"clientId"`
	Status      *string    `json:"status" binding:"omitempty,oneof=active completed on_hold"`
	Budget      *float64   `json:"budget" binding:"omitempty,gte=0"`
	StartDate   *string    `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string    `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
}

func (r *UpdateProjectRequest) CheckFields() []response.FieldError {
	return checkDateRange(r.StartDate, r.EndDate)
}

// checkDateRange compares ISO dates lexically, which matches chronological order
func checkDateRange(start, end *string) []response.FieldError {
	if start == nil || end == nil || *start == "" || *end == "" {
		return nil
	}
	if *end < *start {
		return []response.FieldError{{Field: "endDate", Message: "تاريخ الانتهاء يجب أن يكون بعد تاريخ البدء"}}
	}
	return nil
}

// ProjectFilter narrows the project list
type ProjectFilter struct {
	ListParams
	Status   string `form:"status" binding:"omitempty,oneof=active completed on_hold"`
	ClientID string `form:"clientId" binding:"omitempty,uuid"`
}

// ProjectResponse represents a project
type ProjectResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ClientID    *uuid.UUID     `json:"clientId"`
	Client      *ClientSummary `json:"client,omitempty"`
	Status      string         `json:"status"`
	Budget      *float64       `json:"budget"`
	StartDate   *string        `json:"startDate"`
	EndDate     *string        `json:"endDate"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
