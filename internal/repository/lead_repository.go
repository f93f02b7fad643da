package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-api/internal/domain"
	"crm-api/internal/dto"
)

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	Update(ctx context.Context, lead *domain.Lead) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.LeadFilter, ids []uuid.UUID) ([]domain.Lead, int64, error)
	Stats(ctx context.Context) (*LeadStats, error)
	Convert(ctx context.Context, leadID uuid.UUID, plan ConvertPlan) (*ConvertResult, error)
}

// LeadStats counts leads by status and source
type LeadStats struct {
	Total    int64
	ByStatus map[string]int64
	BySource map[string]int64
}

// ConvertPlan describes which records a conversion creates.
// ClientID, when set, attaches the lead to an existing client instead of creating one.
type ConvertPlan struct {
	ClientID      *uuid.UUID
	CreateClient  bool
	CreateContact bool
	ActorID       uuid.UUID
}

// ConvertResult holds the ids produced by a conversion
type ConvertResult struct {
	LeadID    uuid.UUID
	ClientID  uuid.UUID
	ContactID *uuid.UUID
}

var leadSortColumns = map[string]string{
	"first_name": "first_name",
	"company":    "company",
	"score":      "score",
	"status":     "status",
	"created_at": "created_at",
}

type leadRepositoryImpl struct {
	crudRepository[domain.Lead]
}

// NewLeadRepository creates a new instance of LeadRepository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepositoryImpl{crudRepository[domain.Lead]{db: db}}
}

// List returns one filtered page. When ids is non-nil the result is restricted to those ids.
func (r *leadRepositoryImpl) List(ctx context.Context, filter dto.LeadFilter, ids []uuid.UUID) ([]domain.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Lead{}).Scopes(
		whereEq("status", filter.Status),
		whereEq("source", filter.Source),
		whereEq("owner_id", filter.OwnerID),
	)
	if ids != nil {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Scopes(search(filter.Q, "first_name", "last_name", "company", "email"))
	}

	var leads []domain.Lead
	total, err := listPage(query, filter.ListParams, leadSortColumns, &leads)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *leadRepositoryImpl) Stats(ctx context.Context) (*LeadStats, error) {
	stats := &LeadStats{
		ByStatus: map[string]int64{},
		BySource: map[string]int64{},
	}

	if err := r.db.WithContext(ctx).Model(&domain.Lead{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Bucket string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("status AS bucket, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Bucket] = row.Count
	}

	rows = nil
	if err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("source AS bucket, COUNT(*) AS count").
		Group("source").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.BySource[row.Bucket] = row.Count
	}
	return stats, nil
}

// Convert creates the client and contact for a lead and marks it qualified, in one transaction.
func (r *leadRepositoryImpl) Convert(ctx context.Context, leadID uuid.UUID, plan ConvertPlan) (*ConvertResult, error) {
	result := &ConvertResult{LeadID: leadID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lead domain.Lead
		if err := tx.Where("id = ?", leadID).First(&lead).Error; err != nil {
			return err
		}
		if lead.IsConverted() {
			return ErrLeadAlreadyConverted
		}

		owner := lead.OwnerID
		if owner == nil {
			owner = &plan.ActorID
		}

		switch {
		case plan.ClientID != nil:
			var existing domain.Client
			if err := tx.Where("id = ?", *plan.ClientID).First(&existing).Error; err != nil {
				return err
			}
			result.ClientID = existing.ID
		case plan.CreateClient:
			if strings.TrimSpace(lead.Company) == "" {
				return ErrLeadMissingCompany
			}
			client := &domain.Client{
				Name:    lead.Company,
				Email:   lead.Email,
				Phone:   lead.Phone,
				Company: lead.Company,
				OwnerID: owner,
			}
			if err := tx.Create(client).Error; err != nil {
				return err
			}
			result.ClientID = client.ID
		default:
			return ErrLeadMissingCompany
		}

		// A contact needs a person's name; company-only leads convert to a client alone.
		if plan.CreateContact && strings.TrimSpace(lead.FirstName) != "" {
			clientID := result.ClientID
			contact := &domain.Contact{
				FirstName: lead.FirstName,
				LastName:  lead.LastName,
				Email:     lead.Email,
				Phone:     lead.Phone,
				Company:   lead.Company,
				ClientID:  &clientID,
				OwnerID:   owner,
				Notes:     lead.Notes,
			}
			if err := tx.Omit(clause.Associations).Create(contact).Error; err != nil {
				return err
			}
			result.ContactID = &contact.ID
		}

		now := time.Now().UTC()
		clientID := result.ClientID
		// Guard on converted_at so a concurrent conversion cannot win twice.
		update := tx.Model(&domain.Lead{}).
			Where("id = ? AND converted_at IS NULL", leadID).
			Updates(map[string]interface{}{
				"status":               domain.LeadStatusQualified,
				"converted_client_id":  clientID,
				"converted_contact_id": result.ContactID,
				"converted_at":         now,
				"updated_at":           now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrLeadAlreadyConverted
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLeadAlreadyConverted) || errors.Is(err, ErrLeadMissingCompany) {
			return nil, err
		}
		return nil, mapDBError(err)
	}
	return result, nil
}
