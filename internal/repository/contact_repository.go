package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/domain"
	"crm-api/internal/dto"
)

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.ContactFilter, ids []uuid.UUID) ([]domain.Contact, int64, error)
}

var contactSortColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"company":    "company",
	"created_at": "created_at",
}

type contactRepositoryImpl struct {
	crudRepository[domain.Contact]
}

// NewContactRepository creates a new instance of ContactRepository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepositoryImpl{crudRepository[domain.Contact]{db: db}}
}

func (r *contactRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.db.WithContext(ctx).
		Preload("Client", selectSummary).
		Where("id = ?", id).
		First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// List returns one filtered page. When ids is non-nil the result is restricted to those ids.
func (r *contactRepositoryImpl) List(ctx context.Context, filter dto.ContactFilter, ids []uuid.UUID) ([]domain.Contact, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Contact{}).Scopes(
		whereEq("client_id", filter.ClientID),
		whereEq("owner_id", filter.OwnerID),
	)
	if ids != nil {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Scopes(search(filter.Q, "first_name", "last_name", "email"))
	}

	var contacts []domain.Contact
	total, err := listPage(query, filter.ListParams, contactSortColumns, &contacts, "Client")
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}
