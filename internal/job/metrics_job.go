package job

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-api/internal/database"
)

// Collector refreshes gauges derived from business data
type Collector interface {
	Collect(ctx context.Context)
}

// MetricsJob refreshes the business gauges and the connection pool gauges
type MetricsJob struct {
	collector Collector
	db        *gorm.DB
	recorder  database.MetricsRecorder
	logger    *zap.Logger
}

// NewMetricsJob creates a new MetricsJob. db and recorder may be nil to skip pool stats.
func NewMetricsJob(collector Collector, db *gorm.DB, recorder database.MetricsRecorder, logger *zap.Logger) *MetricsJob {
	return &MetricsJob{
		collector: collector,
		db:        db,
		recorder:  recorder,
		logger:    logger,
	}
}

// Name implements Job
func (j *MetricsJob) Name() string {
	return "metrics_refresh"
}

// Run implements Job
func (j *MetricsJob) Run(ctx context.Context) {
	if j.collector != nil {
		j.collector.Collect(ctx)
	}

	if j.db == nil || j.recorder == nil {
		return
	}
	if err := database.ReportPoolStats(j.db, j.recorder); err != nil {
		j.logger.Warn("Failed to read connection pool stats", zap.Error(err))
	}
}
