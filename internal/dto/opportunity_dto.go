package dto

import (
	"time"

	"crm-api/internal/response"

	"github.com/google/uuid"
)

// CreateOpportunityRequest represents the request to create an opportunity
// @Description currency defaults to EGP, status to open and probability to 0
type CreateOpportunityRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=255" example:"توريد أجهزة"`
	ClientID    uuid.UUID  `json:"clientId" binding:"required" example:"539167fb-b599-41ba-9ead-344a6d0b3a2f"`
	StageID     uuid.UUID  `json:"stageId" binding:"required" example:"1275eac5-f0f9-4bee-8235-576a0042f42b"`
	Amount      float64    `json:"amount" binding:"gte=0" example:"150000"`
	Currency    string     `json:"currency" binding:"omitempty,currency" example:"EGP"`
	Status      string     `json:"status" binding:"omitempty,oneof=open won lost" example:"open"`
	Probability *int       `json:"probability" binding:"omitempty,min=0,max=100" example:"20"`
	CloseDate   *string    `json:"closeDate" binding:"omitempty,datetime=2006-01-02" example:"2025-06-30"`
	OwnerID     *uuid.UUID `json:"ownerId"`
	ContactID   *uuid.UUID `json:"contactId"`
	Notes       string     `json:"notes" binding:"max=5000"`
}

// UpdateOpportunityRequest represents a partial update. Absent fields are left unchanged.
type UpdateOpportunityRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=1,max=255"`
	ClientID    *uuid.UUID `json:"clientId"`
	StageID     *uuid.UUID `json:"stageId"`
	Amount      *float64   `json:"amount" binding:"omitempty,gte=0"`
	Currency    *string    `json:"currency" binding:"omitempty,currency"`
	Status      *string    `json:"status" binding:"omitempty,oneof=open won lost"`
	Probability *int       `json:"probability" binding:"omitempty,min=0,max=100"`
	CloseDate   *string    `json:"closeDate" binding:"omitempty,datetime=2006-01-02"`
	OwnerID     *uuid.UUID `json:"ownerId"`
	ContactID   *uuid.UUID `json:"contactId"`
	Notes       *string    `json:"notes" binding:"omitempty,max=5000"`
}

// CheckFields rejects explicit nil-UUID references
func (r *UpdateOpportunityRequest) CheckFields() []response.FieldError {
	var fields []response.FieldError
	if r.ClientID != nil && *r.ClientID == uuid.Nil {
		fields = append(fields, response.FieldError{Field: "clientId", Message: "هذا الحقل مطلوب"})
	}
	if r.StageID != nil && *r.StageID == uuid.Nil {
		fields = append(fields, response.FieldError{Field: "stageId", Message: "هذا الحقل مطلوب"})
	}
	return fields
}

// MoveOpportunityRequest moves an opportunity to another stage of its pipeline
type MoveOpportunityRequest struct {
	StageID uuid.UUID `json:"stageId" binding:"required" example:"1275eac5-f0f9-4bee-8235-576a0042f42b"`
}

// OpportunityFilter narrows the opportunity list
type OpportunityFilter struct {
	ListParams
	StageID   string   `form:"stageId" binding:"omitempty,uuid"`
	OwnerID   string   `form:"ownerId" binding:"omitempty,uuid"`
	ContactID string   `form:"contactId" binding:"omitempty,uuid"`
	ClientID  string   `form:"clientId" binding:"omitempty,uuid"`
	Status    string   `form:"status" binding:"omitempty,oneof=open won lost"`
	MinAmount *float64 `form:"minAmount" binding:"omitempty,gte=0"`
	MaxAmount *float64 `form:"maxAmount" binding:"omitempty,gte=0"`
}

// ClientSummary is the minimal client data shown on a board card
type ClientSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// OpportunityResponse represents an opportunity
type OpportunityResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	ClientID    uuid.UUID      `json:"clientId"`
	Client      *ClientSummary `json:"client,omitempty"`
	StageID     uuid.UUID      `json:"stageId"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	Probability int            `json:"probability"`
	CloseDate   *string        `json:"closeDate"`
	OwnerID     *uuid.UUID     `json:"ownerId"`
	ContactID   *uuid.UUID     `json:"contactId"`
	Notes       string         `json:"notes"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Owner returns the owning user, used by ownership-scoped permission checks
func (o *OpportunityResponse) Owner() *uuid.UUID {
	return o.OwnerID
}

// StageStat aggregates the opportunities of one stage
type StageStat struct {
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// OpportunityStatsResponse summarises all opportunities
type OpportunityStatsResponse struct {
	Total      int64                `json:"total"`
	TotalValue float64              `json:"totalValue"`
	ByStage    map[string]StageStat `json:"byStage"`
}
