package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/domain"
	"crm-api/internal/dto"
)

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.ClientFilter) ([]domain.Client, int64, error)
	CountContacts(ctx context.Context, clientID uuid.UUID) (int64, error)
}

var clientSortColumns = map[string]string{
	"name":       "name",
	"company":    "company",
	"created_at": "created_at",
}

type clientRepositoryImpl struct {
	crudRepository[domain.Client]
}

// NewClientRepository creates a new instance of ClientRepository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepositoryImpl{crudRepository[domain.Client]{db: db}}
}

func (r *clientRepositoryImpl) List(ctx context.Context, filter dto.ClientFilter) ([]domain.Client, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Client{}).Scopes(
		search(filter.Q, "name", "email", "company"),
		whereEq("owner_id", filter.OwnerID),
	)

	var clients []domain.Client
	total, err := listPage(query, filter.ListParams, clientSortColumns, &clients)
	if err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

// CountContacts counts the contacts attached to a client
func (r *clientRepositoryImpl) CountContacts(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("client_id = ?", clientID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
