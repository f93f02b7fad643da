package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-api/internal/domain"
)

// modelInfo holds information about a domain model and its table name
type modelInfo struct {
	model     interface{}
	tableName string
}

// models are listed parents first so foreign keys resolve
func models() []modelInfo {
	return []modelInfo{
		{&domain.Profile{}, "profiles"},
		{&domain.Pipeline{}, "pipelines"},
		{&domain.Stage{}, "stages"},
		{&domain.Client{}, "clients"},
		{&domain.Contact{}, "contacts"},
		{&domain.Opportunity{}, "opportunities"},
		{&domain.Lead{}, "leads"},
		{&domain.Project{}, "projects"},
		{&domain.Task{}, "tasks"},
		{&domain.Attachment{}, "attachments"},
	}
}

// AutoMigrate runs GORM auto-migration for all domain models
func AutoMigrate(db *gorm.DB) error {
	list := models()
	all := make([]interface{}, 0, len(list))
	for _, m := range list {
		all = append(all, m.model)
	}

	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}

// SafeAutoMigrate migrates table by table, logging whether each one was created or updated
func SafeAutoMigrate(db *gorm.DB, logger *zap.Logger) error {
	migrator := db.Migrator()
	list := models()

	logger.Info("Starting safe auto-migration", zap.Int("total_models", len(list)))

	for _, m := range list {
		existed := migrator.HasTable(m.model)

		if err := db.AutoMigrate(m.model); err != nil {
			logger.Error("Failed to migrate table",
				zap.String("table", m.tableName),
				zap.Bool("table_existed", existed),
				zap.Error(err),
			)
			return fmt.Errorf("failed to migrate table %s: %w", m.tableName, err)
		}

		logger.Debug("Migrated table",
			zap.String("table", m.tableName),
			zap.Bool("was_existing", existed),
		)
	}

	logger.Info("Safe auto-migration completed successfully", zap.Int("tables_migrated", len(list)))
	return nil
}

// SafeAutoMigrateWithRetry runs SafeAutoMigrate up to maxRetries times with linear backoff
func SafeAutoMigrateWithRetry(db *gorm.DB, logger *zap.Logger, maxRetries int) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = SafeAutoMigrate(db, logger)
		if err == nil {
			return nil
		}

		if attempt < maxRetries {
			backoff := time.Duration(attempt) * time.Second
			logger.Warn("Migration attempt failed, retrying...",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			time.Sleep(backoff)
		}
	}

	return fmt.Errorf("migration failed after %d attempts: %w", maxRetries, err)
}

// DefaultPipelineName is the pipeline created on an empty database
const DefaultPipelineName = "خط المبيعات"

// defaultStages are the stages of the default pipeline in position order
var defaultStages = []struct {
	name        string
	probability int
}{
	{"عميل محتمل", 10},
	{"تواصل أولي", 20},
	{"عرض سعر", 50},
	{"تفاوض", 75},
	{"تم الإغلاق", 100},
}

// SeedDefaultPipeline creates the default pipeline when no pipeline exists.
// It reports whether a pipeline was created.
func SeedDefaultPipeline(ctx context.Context, db *gorm.DB, logger *zap.Logger) (bool, error) {
	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Pipeline{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		pipeline := domain.Pipeline{Name: DefaultPipelineName}
		for i, s := range defaultStages {
			pipeline.Stages = append(pipeline.Stages, domain.Stage{
				Name:        s.name,
				Position:    i,
				Probability: s.probability,
			})
		}
		if err := tx.Create(&pipeline).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed default pipeline: %w", err)
	}

	if created {
		logger.Info("Seeded default pipeline", zap.String("name", DefaultPipelineName), zap.Int("stages", len(defaultStages)))
	}
	return created, nil
}
