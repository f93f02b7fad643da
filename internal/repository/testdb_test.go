package repository

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crm-api/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&domain.Pipeline{}, &domain.Stage{}, &domain.Client{}, &domain.Contact{},
		&domain.Opportunity{}, &domain.Lead{}, &domain.Project{}, &domain.Task{},
		&domain.Profile{}, &domain.Attachment{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// seedPipeline creates a pipeline whose stages have the given probabilities, positions 0..n-1
func seedPipeline(t *testing.T, db *gorm.DB, name string, probabilities ...int) (*domain.Pipeline, []domain.Stage) {
	t.Helper()
	pipeline := &domain.Pipeline{Name: name}
	if err := db.Create(pipeline).Error; err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	stages := make([]domain.Stage, len(probabilities))
	for i, p := range probabilities {
		stages[i] = domain.Stage{PipelineID: pipeline.ID, Name: name + "-stage", Position: i, Probability: p}
		if err := db.Create(&stages[i]).Error; err != nil {
			t.Fatalf("failed to create stage: %v", err)
		}
	}
	return pipeline, stages
}

func seedClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	t.Helper()
	client := &domain.Client{Name: name}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func seedOpportunity(t *testing.T, db *gorm.DB, name string, clientID, stageID uuid.UUID, amount float64) *domain.Opportunity {
	t.Helper()
	opp := &domain.Opportunity{
		Name:     name,
		ClientID: clientID,
		StageID:  stageID,
		Amount:   amount,
		Currency: domain.DefaultCurrency,
		Status:   domain.OpportunityStatusOpen,
	}
	if err := db.Omit("Client", "Stage", "Contact").Create(opp).Error; err != nil {
		t.Fatalf("failed to create opportunity: %v", err)
	}
	return opp
}
