package dto

import "github.com/google/uuid"

// StageResponse represents a pipeline stage
type StageResponse struct {
	ID          uuid.UUID `json:"id"`
	PipelineID  uuid.UUID `json:"pipelineId"`
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	Probability int       `json:"probability"`
}

// PipelineResponse represents a pipeline with its stages in position order
type PipelineResponse struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Stages []StageResponse `json:"stages"`
}

// StageColumn is one board column with a page of opportunities.
// @Description degraded is true when this stage's opportunities could not be fetched; the list is then empty.
type StageColumn struct {
	StageResponse
	Opportunities []OpportunityResponse `json:"opportunities"`
	Page          int                   `json:"page"`
	HasMore       bool                  `json:"hasMore"`
	Degraded      bool                  `json:"degraded"`
}

// PipelineBoard is a pipeline with one page of opportunities per stage
type PipelineBoard struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	Stages []StageColumn `json:"stages"`
}

// StagePage is one page of a single stage
type StagePage struct {
	StageID       uuid.UUID             `json:"stageId"`
	PipelineID    uuid.UUID             `json:"pipelineId"`
	Opportunities []OpportunityResponse `json:"opportunities"`
	Page          int                   `json:"page"`
	HasMore       bool                  `json:"hasMore"`
}

// BoardPageParams selects a page of a board or stage. A zero limit uses the configured board page size.
type BoardPageParams struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
