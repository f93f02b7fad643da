package dto

import "time"

// SourceCount is the number of leads from one source
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// DashboardKPIResponse holds the dashboard headline numbers.
// @Description pipelineValue sums open opportunity amounts; expectedRevenue weights them by probability.
type DashboardKPIResponse struct {
	PipelineValue     float64       `json:"pipelineValue"`
	ExpectedRevenue   float64       `json:"expectedRevenue"`
	OpenOpportunities int64         `json:"openOpportunities"`
	LeadsBySource     []SourceCount `json:"leadsBySource"`
	TasksDueToday     int64         `json:"tasksDueToday"`
	TasksDueTomorrow  int64         `json:"tasksDueTomorrow"`
	GeneratedAt       time.Time     `json:"generatedAt"`
}
