package domain

import "github.com/google/uuid"

// Pipeline is a named sales process composed of ordered stages
type Pipeline struct {
	BaseModel
	Name   string  `gorm:"type:varchar(255);not null;index:idx_pipelines_name" json:"name"`
	Stages []Stage `gorm:"foreignKey:PipelineID;constraint:OnDelete:CASCADE" json:"stages,omitempty"`
}

// TableName specifies the table name for Pipeline
func (Pipeline) TableName() string {
	return "pipelines"
}

// Stage is one column of a pipeline. Columns are displayed by ascending Position.
type Stage struct {
	BaseModel
	PipelineID  uuid.UUID `gorm:"type:uuid;not null;index:idx_stages_pipeline_position,priority:1" json:"pipeline_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Position    int       `gorm:"not null;default:0;index:idx_stages_pipeline_position,priority:2" json:"position"`
	Probability int       `gorm:"not null;default:0" json:"probability"`
}

// TableName specifies the table name for Stage
func (Stage) TableName() string {
	return "stages"
}
