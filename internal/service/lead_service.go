package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/client"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/metrics"
	"crm-api/internal/repository"
	"crm-api/internal/response"
	"crm-api/internal/search"
)

// LeadService defines the interface for lead business logic
type LeadService interface {
	List(ctx context.Context, p authz.Principal, filter dto.LeadFilter) (*dto.Page[dto.LeadResponse], error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.LeadResponse, error)
	Create(ctx context.Context, p authz.Principal, req *dto.CreateLeadRequest) (*dto.LeadResponse, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateLeadRequest) (*dto.LeadResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	Stats(ctx context.Context, p authz.Principal) (*dto.LeadStatsResponse, error)
	Convert(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.ConvertLeadRequest) (*dto.ConvertLeadResponse, error)
}

type leadServiceImpl struct {
	repo          repository.LeadRepository
	attachments   AttachmentCleaner
	index         search.Index
	notifications client.NotificationClient
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewLeadService creates a new instance of LeadService
func NewLeadService(
	repo repository.LeadRepository,
	attachments AttachmentCleaner,
	index search.Index,
	notifications client.NotificationClient,
	m *metrics.Metrics,
	logger *zap.Logger,
) LeadService {
	return &leadServiceImpl{
		repo:          repo,
		attachments:   attachments,
		index:         index,
		notifications: notifications,
		metrics:       m,
		logger:        logger,
	}
}

func (s *leadServiceImpl) List(ctx context.Context, p authz.Principal, filter dto.LeadFilter) (*dto.Page[dto.LeadResponse], error) {
	if err := authorize(p, authz.ActionView, authz.ResourceLeads, nil); err != nil {
		return nil, err
	}
	filter.Normalize()

	ids := searchIDs(ctx, s.index, search.KindLeads, filter.Q, s.logger)
	items, total, err := s.repo.List(ctx, filter, ids)
	if err != nil {
		return nil, repoError(err, "", "Failed to list leads")
	}
	page := dto.NewPage(mapSlice(items, toLeadResponse), total, filter.ListParams)
	return &page, nil
}

func (s *leadServiceImpl) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.LeadResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceLeads, nil); err != nil {
		return nil, err
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Lead not found", "Failed to get lead")
	}
	resp := toLeadResponse(l)
	return &resp, nil
}

func (s *leadServiceImpl) Create(ctx context.Context, p authz.Principal, req *dto.CreateLeadRequest) (*dto.LeadResponse, error) {
	if err := authorize(p, authz.ActionCreate, authz.ResourceLeads, nil); err != nil {
		return nil, err
	}
	if fields := req.CheckFields(); len(fields) > 0 {
		return nil, response.NewFieldValidationError(fields)
	}

	l := &domain.Lead{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Email:     req.Email,
		Phone:     req.Phone,
		Source:    domain.LeadSource(req.Source),
		Status:    domain.LeadStatus(req.Status),
		Score:     req.Score,
		OwnerID:   ownerOrActor(req.OwnerID, p),
		Notes:     req.Notes,
	}
	if l.Source == "" {
		l.Source = domain.LeadSourceOther
	}
	if l.Status == "" {
		l.Status = domain.LeadStatusNew
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, repoError(err, "", "Failed to create lead")
	}
	s.index.Upsert(search.KindLeads, leadDocument(l))

	s.logger.Info("Lead created",
		zap.String("lead_id", l.ID.String()),
		zap.String("source", string(l.Source)),
		zap.String("actor_id", p.UserID.String()),
	)
	resp := toLeadResponse(l)
	return &resp, nil
}

func (s *leadServiceImpl) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateLeadRequest) (*dto.LeadResponse, error) {
	l, err := loadOwned(ctx, p, authz.ActionUpdate, authz.ResourceLeads, id, s.repo.FindByID, "Lead not found")
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		l.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		l.LastName = *req.LastName
	}
	if req.Company != nil {
		l.Company = *req.Company
	}
	if req.Email != nil {
		l.Email = *req.Email
	}
	if req.Phone != nil {
		l.Phone = *req.Phone
	}
	if req.Source != nil {
		l.Source = domain.LeadSource(*req.Source)
	}
	if req.Status != nil {
		l.Status = domain.LeadStatus(*req.Status)
	}
	if req.Score != nil {
		l.Score = *req.Score
	}
	if req.OwnerID != nil {
		l.OwnerID = req.OwnerID
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
	}

	// The name rule applies to the merged record, not just the patch.
	if l.FirstName == "" && l.Company == "" {
		return nil, response.NewFieldValidationError([]response.FieldError{
			{Field: "firstName", Message: "الاسم الأول أو اسم الشركة مطلوب"},
			{Field: "company", Message: "الاسم الأول أو اسم الشركة مطلوب"},
		})
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, repoError(err, "Lead not found", "Failed to update lead")
	}
	s.index.Upsert(search.KindLeads, leadDocument(l))

	resp := toLeadResponse(l)
	return &resp, nil
}

func (s *leadServiceImpl) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if _, err := loadOwned(ctx, p, authz.ActionDelete, authz.ResourceLeads, id, s.repo.FindByID, "Lead not found"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Lead not found", "Failed to delete lead")
	}
	s.index.Remove(search.KindLeads, id)
	s.attachments.RemoveForEntity(ctx, domain.EntityTypeLead, id)
	return nil
}

func (s *leadServiceImpl) Stats(ctx context.Context, p authz.Principal) (*dto.LeadStatsResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceLeads, nil); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, repoError(err, "", "Failed to compute lead stats")
	}
	return &dto.LeadStatsResponse{
		Total:    stats.Total,
		ByStatus: stats.ByStatus,
		BySource: stats.BySource,
	}, nil
}

// Convert turns a lead into a client and, when the lead names a person, a contact.
func (s *leadServiceImpl) Convert(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.ConvertLeadRequest) (*dto.ConvertLeadResponse, error) {
	lead, err := loadOwned(ctx, p, authz.ActionUpdate, authz.ResourceLeads, id, s.repo.FindByID, "Lead not found")
	if err != nil {
		return nil, err
	}
	if lead.IsConverted() {
		return nil, response.NewConflictError("Lead already converted", "")
	}

	result, err := s.repo.Convert(ctx, id, repository.ConvertPlan{
		ClientID:      req.ClientID,
		CreateClient:  req.WantsClient(),
		CreateContact: req.WantsContact(),
		ActorID:       p.UserID,
	})
	switch {
	case errors.Is(err, repository.ErrLeadAlreadyConverted):
		return nil, response.NewConflictError("Lead already converted", "")
	case errors.Is(err, repository.ErrLeadMissingCompany):
		return nil, response.NewFieldValidationError([]response.FieldError{
			{Field: "company", Message: "يجب إدخال اسم الشركة لإنشاء عميل"},
		})
	case err != nil:
		return nil, repoError(err, "Client not found", "Failed to convert lead")
	}

	s.metrics.IncrementLeadConverted()
	if converted, err := s.repo.FindByID(ctx, id); err == nil {
		s.index.Upsert(search.KindLeads, leadDocument(converted))
	}

	if lead.OwnerID != nil && *lead.OwnerID != p.UserID {
		s.notifications.SendNotification(ctx, client.NotificationEvent{
			Type:         client.NotificationLeadConverted,
			ActorID:      p.UserID,
			TargetUserID: *lead.OwnerID,
			ResourceType: "lead",
			ResourceID:   id,
			ResourceName: joinNonEmpty(lead.FirstName, lead.LastName, lead.Company),
			Metadata:     map[string]interface{}{"clientId": result.ClientID.String()},
		})
	}

	s.logger.Info("Lead converted",
		zap.String("lead_id", id.String()),
		zap.String("client_id", result.ClientID.String()),
		zap.Bool("contact_created", result.ContactID != nil),
		zap.String("actor_id", p.UserID.String()),
	)
	return &dto.ConvertLeadResponse{
		LeadID:    result.LeadID,
		ClientID:  result.ClientID,
		ContactID: result.ContactID,
	}, nil
}
