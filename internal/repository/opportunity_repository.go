package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/domain"
	"crm-api/internal/dto"
)

// OpportunityRepository defines the interface for opportunity data access
type OpportunityRepository interface {
	Create(ctx context.Context, opportunity *domain.Opportunity) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error)
	Update(ctx context.Context, opportunity *domain.Opportunity) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.OpportunityFilter, ids []uuid.UUID) ([]domain.Opportunity, int64, error)
	FindByStage(ctx context.Context, stageID uuid.UUID, offset, limit int) ([]domain.Opportunity, error)
	MoveToStage(ctx context.Context, id, targetStageID uuid.UUID) (*domain.Opportunity, error)
	Stats(ctx context.Context) (*OpportunityStats, error)
	CountByStatus(ctx context.Context) (map[domain.OpportunityStatus]int64, error)
}

// OpportunityStats aggregates opportunity counts and amounts
type OpportunityStats struct {
	Total      int64
	TotalValue float64
	ByStage    map[uuid.UUID]StageAggregate
}

// StageAggregate is the count and amount sum of one stage
type StageAggregate struct {
	StageID uuid.UUID
	Count   int64
	Value   float64
}

var opportunitySortColumns = map[string]string{
	"name":        "name",
	"amount":      "amount",
	"probability": "probability",
	"close_date":  "close_date",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

type opportunityRepositoryImpl struct {
	crudRepository[domain.Opportunity]
}

// NewOpportunityRepository creates a new instance of OpportunityRepository
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepositoryImpl{crudRepository[domain.Opportunity]{db: db}}
}

// FindByID loads an opportunity with its client
func (r *opportunityRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var opportunity domain.Opportunity
	if err := r.db.WithContext(ctx).
		Preload("Client", selectSummary).
		Where("id = ?", id).
		First(&opportunity).Error; err != nil {
		return nil, err
	}
	return &opportunity, nil
}

// List returns one filtered page. When ids is non-nil the result is restricted to those ids.
func (r *opportunityRepositoryImpl) List(ctx context.Context, filter dto.OpportunityFilter, ids []uuid.UUID) ([]domain.Opportunity, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Scopes(
		whereEq("stage_id", filter.StageID),
		whereEq("owner_id", filter.OwnerID),
		whereEq("contact_id", filter.ContactID),
		whereEq("client_id", filter.ClientID),
		whereEq("status", filter.Status),
	)
	if ids != nil {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Scopes(search(filter.Q, "name"))
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	var opportunities []domain.Opportunity
	total, err := listPage(query, filter.ListParams, opportunitySortColumns, &opportunities, "Client")
	if err != nil {
		return nil, 0, err
	}
	return opportunities, total, nil
}

// FindByStage returns one page of a stage, newest first
func (r *opportunityRepositoryImpl) FindByStage(ctx context.Context, stageID uuid.UUID, offset, limit int) ([]domain.Opportunity, error) {
	var opportunities []domain.Opportunity
	if err := r.db.WithContext(ctx).
		Preload("Client", selectSummary).
		Where("stage_id = ?", stageID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&opportunities).Error; err != nil {
		return nil, err
	}
	return opportunities, nil
}

// MoveToStage reassigns the stage and takes the probability of the target stage, atomically.
// The target must belong to the same pipeline as the current stage.
func (r *opportunityRepositoryImpl) MoveToStage(ctx context.Context, id, targetStageID uuid.UUID) (*domain.Opportunity, error) {
	var moved domain.Opportunity

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Opportunity
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}

		var from, to domain.Stage
		if err := tx.Where("id = ?", current.StageID).First(&from).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", targetStageID).First(&to).Error; err != nil {
			return err
		}
		if from.PipelineID != to.PipelineID {
			return ErrStageNotInPipeline
		}

		if err := tx.Model(&domain.Opportunity{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"stage_id":    to.ID,
				"probability": to.Probability,
				"updated_at":  time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		return tx.Preload("Client", selectSummary).Where("id = ?", id).First(&moved).Error
	})
	if err != nil {
		return nil, mapDBError(err)
	}
	return &moved, nil
}

// Stats aggregates counts and amounts per stage
func (r *opportunityRepositoryImpl) Stats(ctx context.Context) (*OpportunityStats, error) {
	var rows []StageAggregate
	if err := r.db.WithContext(ctx).
		Model(&domain.Opportunity{}).
		Select("stage_id, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS value").
		Group("stage_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &OpportunityStats{ByStage: make(map[uuid.UUID]StageAggregate, len(rows))}
	for _, row := range rows {
		stats.Total += row.Count
		stats.TotalValue += row.Value
		stats.ByStage[row.StageID] = row
	}
	return stats, nil
}

// CountByStatus counts opportunities per lifecycle status
func (r *opportunityRepositoryImpl) CountByStatus(ctx context.Context) (map[domain.OpportunityStatus]int64, error) {
	var rows []struct {
		Status domain.OpportunityStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.Opportunity{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.OpportunityStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
