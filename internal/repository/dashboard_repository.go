package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"crm-api/internal/domain"
)

// PipelineTotals are the open-opportunity aggregates shown on the dashboard
type PipelineTotals struct {
	OpenCount       int64
	PipelineValue   float64
	ExpectedRevenue float64
}

// SourceCount is the number of leads from one source
type SourceCount struct {
	Source string
	Count  int64
}

// DashboardRepository computes dashboard KPIs
type DashboardRepository interface {
	PipelineTotals(ctx context.Context) (*PipelineTotals, error)
	LeadsBySource(ctx context.Context, since time.Time) ([]SourceCount, error)
}

type dashboardRepositoryImpl struct {
	db *gorm.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepositoryImpl{db: db}
}

// PipelineTotals sums open opportunities, weighting expected revenue by probability
func (r *dashboardRepositoryImpl) PipelineTotals(ctx context.Context) (*PipelineTotals, error) {
	var totals PipelineTotals
	if err := r.db.WithContext(ctx).
		Model(&domain.Opportunity{}).
		Select("COUNT(*) AS open_count, "+
			"COALESCE(SUM(amount), 0) AS pipeline_value, "+
			"COALESCE(SUM(amount * probability / 100.0), 0) AS expected_revenue").
		Where("status = ?", domain.OpportunityStatusOpen).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return &totals, nil
}

// LeadsBySource counts leads created since the given time, largest source first
func (r *dashboardRepositoryImpl) LeadsBySource(ctx context.Context, since time.Time) ([]SourceCount, error) {
	var rows []SourceCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Select("source, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("source").
		Order("count DESC").
		Order("source ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
