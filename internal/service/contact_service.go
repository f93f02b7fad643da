package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
	"crm-api/internal/search"
)

// ContactService defines the interface for contact business logic
type ContactService interface {
	List(ctx context.Context, p authz.Principal, filter dto.ContactFilter) (*dto.Page[dto.ContactResponse], error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.ContactResponse, error)
	Create(ctx context.Context, p authz.Principal, req *dto.CreateContactRequest) (*dto.ContactResponse, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateContactRequest) (*dto.ContactResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type contactServiceImpl struct {
	repo   repository.ContactRepository
	index  search.Index
	logger *zap.Logger
}

// NewContactService creates a new instance of ContactService
func NewContactService(repo repository.ContactRepository, index search.Index, logger *zap.Logger) ContactService {
	return &contactServiceImpl{repo: repo, index: index, logger: logger}
}

func (s *contactServiceImpl) List(ctx context.Context, p authz.Principal, filter dto.ContactFilter) (*dto.Page[dto.ContactResponse], error) {
	if err := authorize(p, authz.ActionView, authz.ResourceContacts, nil); err != nil {
		return nil, err
	}
	filter.Normalize()

	ids := searchIDs(ctx, s.index, search.KindContacts, filter.Q, s.logger)
	items, total, err := s.repo.List(ctx, filter, ids)
	if err != nil {
		return nil, repoError(err, "", "Failed to list contacts")
	}
	page := dto.NewPage(mapSlice(items, toContactResponse), total, filter.ListParams)
	return &page, nil
}

func (s *contactServiceImpl) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.ContactResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceContacts, nil); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Contact not found", "Failed to get contact")
	}
	resp := toContactResponse(c)
	return &resp, nil
}

func (s *contactServiceImpl) Create(ctx context.Context, p authz.Principal, req *dto.CreateContactRequest) (*dto.ContactResponse, error) {
	if err := authorize(p, authz.ActionCreate, authz.ResourceContacts, nil); err != nil {
		return nil, err
	}

	c := &domain.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Position:  req.Position,
		ClientID:  req.ClientID,
		OwnerID:   ownerOrActor(req.OwnerID, p),
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, repoError(err, "", "Failed to create contact")
	}
	s.index.Upsert(search.KindContacts, contactDocument(c))

	return s.reload(ctx, c)
}

func (s *contactServiceImpl) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateContactRequest) (*dto.ContactResponse, error) {
	c, err := loadOwned(ctx, p, authz.ActionUpdate, authz.ResourceContacts, id, s.repo.FindByID, "Contact not found")
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		c.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		c.LastName = *req.LastName
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Company != nil {
		c.Company = *req.Company
	}
	if req.Position != nil {
		c.Position = *req.Position
	}
	if req.ClientID != nil {
		c.ClientID = req.ClientID
	}
	if req.OwnerID != nil {
		c.OwnerID = req.OwnerID
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, repoError(err, "Contact not found", "Failed to update contact")
	}
	s.index.Upsert(search.KindContacts, contactDocument(c))

	return s.reload(ctx, c)
}

func (s *contactServiceImpl) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if _, err := loadOwned(ctx, p, authz.ActionDelete, authz.ResourceContacts, id, s.repo.FindByID, "Contact not found"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Contact not found", "Failed to delete contact")
	}
	s.index.Remove(search.KindContacts, id)
	return nil
}

// reload returns the stored row with its client preloaded, falling back to the in-memory copy
func (s *contactServiceImpl) reload(ctx context.Context, c *domain.Contact) (*dto.ContactResponse, error) {
	if fresh, err := s.repo.FindByID(ctx, c.ID); err == nil {
		c = fresh
	}
	resp := toContactResponse(c)
	return &resp, nil
}
