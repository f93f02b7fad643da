package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BusinessMetricsCollector refreshes the opportunity and lead gauges from the database
type BusinessMetricsCollector struct {
	db      *gorm.DB
	metrics *Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewBusinessMetricsCollector creates a new collector
func NewBusinessMetricsCollector(db *gorm.DB, metrics *Metrics, logger *zap.Logger) *BusinessMetricsCollector {
	return &BusinessMetricsCollector{
		db:      db,
		metrics: metrics,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Collect gathers business metrics once. It is driven by the job scheduler.
func (c *BusinessMetricsCollector) Collect(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in business metrics collection",
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if counts, err := c.countByStatus(ctx, "opportunities"); err != nil {
		c.logger.Error("Failed to count opportunities", zap.Error(err))
	} else {
		c.metrics.SetOpportunitiesTotal(counts)
	}

	if counts, err := c.countByStatus(ctx, "leads"); err != nil {
		c.logger.Error("Failed to count leads", zap.Error(err))
	} else {
		c.metrics.SetLeadsTotal(counts)
	}
}

func (c *BusinessMetricsCollector) countByStatus(ctx context.Context, table string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := c.db.WithContext(ctx).
		Table(table).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
