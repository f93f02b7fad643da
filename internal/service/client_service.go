package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
)

// ClientService defines the interface for client business logic
type ClientService interface {
	List(ctx context.Context, p authz.Principal, filter dto.ClientFilter) (*dto.Page[dto.ClientResponse], error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.ClientResponse, error)
	Create(ctx context.Context, p authz.Principal, req *dto.CreateClientRequest) (*dto.ClientResponse, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateClientRequest) (*dto.ClientResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	CountContacts(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.CountResponse, error)
}

type clientServiceImpl struct {
	repo        repository.ClientRepository
	attachments AttachmentCleaner
	logger      *zap.Logger
}

// NewClientService creates a new instance of ClientService
func NewClientService(repo repository.ClientRepository, attachments AttachmentCleaner, logger *zap.Logger) ClientService {
	return &clientServiceImpl{repo: repo, attachments: attachments, logger: logger}
}

func (s *clientServiceImpl) List(ctx context.Context, p authz.Principal, filter dto.ClientFilter) (*dto.Page[dto.ClientResponse], error) {
	if err := authorize(p, authz.ActionView, authz.ResourceClients, nil); err != nil {
		return nil, err
	}
	filter.Normalize()

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, repoError(err, "", "Failed to list clients")
	}
	page := dto.NewPage(mapSlice(items, toClientResponse), total, filter.ListParams)
	return &page, nil
}

func (s *clientServiceImpl) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.ClientResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceClients, nil); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Client not found", "Failed to get client")
	}
	resp := toClientResponse(c)
	return &resp, nil
}

func (s *clientServiceImpl) Create(ctx context.Context, p authz.Principal, req *dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if err := authorize(p, authz.ActionCreate, authz.ResourceClients, nil); err != nil {
		return nil, err
	}

	c := &domain.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		OwnerID: ownerOrActor(req.OwnerID, p),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, repoError(err, "", "Failed to create client")
	}

	s.logger.Info("Client created", zap.String("client_id", c.ID.String()), zap.String("actor_id", p.UserID.String()))
	resp := toClientResponse(c)
	return &resp, nil
}

func (s *clientServiceImpl) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	c, err := loadOwned(ctx, p, authz.ActionUpdate, authz.ResourceClients, id, s.repo.FindByID, "Client not found")
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
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
	if req.OwnerID != nil {
		c.OwnerID = req.OwnerID
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, repoError(err, "Client not found", "Failed to update client")
	}
	resp := toClientResponse(c)
	return &resp, nil
}

func (s *clientServiceImpl) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if _, err := loadOwned(ctx, p, authz.ActionDelete, authz.ResourceClients, id, s.repo.FindByID, "Client not found"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Client not found", "Failed to delete client")
	}
	s.attachments.RemoveForEntity(ctx, domain.EntityTypeClient, id)

	s.logger.Info("Client deleted", zap.String("client_id", id.String()), zap.String("actor_id", p.UserID.String()))
	return nil
}

func (s *clientServiceImpl) CountContacts(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.CountResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceContacts, nil); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, repoError(err, "Client not found", "Failed to get client")
	}
	count, err := s.repo.CountContacts(ctx, id)
	if err != nil {
		return nil, repoError(err, "", "Failed to count contacts")
	}
	return &dto.CountResponse{Count: count}, nil
}
