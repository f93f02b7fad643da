package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-api/internal/authz"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
	"crm-api/internal/response"
	"crm-api/internal/search"
)

// OpportunityService defines the interface for opportunity business logic
type OpportunityService interface {
	List(ctx context.Context, p authz.Principal, filter dto.OpportunityFilter) (*dto.Page[dto.OpportunityResponse], error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.OpportunityResponse, error)
	Create(ctx context.Context, p authz.Principal, req *dto.CreateOpportunityRequest) (*dto.OpportunityResponse, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateOpportunityRequest) (*dto.OpportunityResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	Stats(ctx context.Context, p authz.Principal) (*dto.OpportunityStatsResponse, error)
}

type opportunityServiceImpl struct {
	repo        repository.OpportunityRepository
	stages      repository.PipelineRepository
	attachments AttachmentCleaner
	index       search.Index
	logger      *zap.Logger
}

// NewOpportunityService creates a new instance of OpportunityService
func NewOpportunityService(
	repo repository.OpportunityRepository,
	stages repository.PipelineRepository,
	attachments AttachmentCleaner,
	index search.Index,
	logger *zap.Logger,
) OpportunityService {
	return &opportunityServiceImpl{
		repo:        repo,
		stages:      stages,
		attachments: attachments,
		index:       index,
		logger:      logger,
	}
}

func (s *opportunityServiceImpl) List(ctx context.Context, p authz.Principal, filter dto.OpportunityFilter) (*dto.Page[dto.OpportunityResponse], error) {
	if err := authorize(p, authz.ActionView, authz.ResourceOpportunities, nil); err != nil {
		return nil, err
	}
	filter.Normalize()

	ids := searchIDs(ctx, s.index, search.KindOpportunities, filter.Q, s.logger)
	items, total, err := s.repo.List(ctx, filter, ids)
	if err != nil {
		return nil, repoError(err, "", "Failed to list opportunities")
	}

	page := dto.NewPage(mapSlice(items, toOpportunityResponse), total, filter.ListParams)
	return &page, nil
}

func (s *opportunityServiceImpl) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.OpportunityResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceOpportunities, nil); err != nil {
		return nil, err
	}
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Opportunity not found", "Failed to get opportunity")
	}
	resp := toOpportunityResponse(o)
	return &resp, nil
}

func (s *opportunityServiceImpl) Create(ctx context.Context, p authz.Principal, req *dto.CreateOpportunityRequest) (*dto.OpportunityResponse, error) {
	if err := authorize(p, authz.ActionCreate, authz.ResourceOpportunities, nil); err != nil {
		return nil, err
	}

	closeDate, err := parseDate("closeDate", req.CloseDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.stages.FindStageByID(ctx, req.StageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewFieldValidationError([]response.FieldError{{Field: "stageId", Message: "المرحلة غير موجودة"}})
		}
		return nil, repoError(err, "", "Failed to verify stage")
	}

	o := &domain.Opportunity{
		Name:      req.Name,
		ClientID:  req.ClientID,
		StageID:   req.StageID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    domain.OpportunityStatus(req.Status),
		CloseDate: closeDate,
		OwnerID:   ownerOrActor(req.OwnerID, p),
		ContactID: req.ContactID,
		Notes:     req.Notes,
	}
	if o.Currency == "" {
		o.Currency = domain.DefaultCurrency
	}
	if o.Status == "" {
		o.Status = domain.OpportunityStatusOpen
	}
	if req.Probability != nil {
		o.Probability = *req.Probability
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, repoError(err, "", "Failed to create opportunity")
	}

	created, err := s.repo.FindByID(ctx, o.ID)
	if err != nil {
		created = o
	}
	s.index.Upsert(search.KindOpportunities, opportunityDocument(created))

	s.logger.Info("Opportunity created",
		zap.String("opportunity_id", created.ID.String()),
		zap.String("stage_id", created.StageID.String()),
		zap.String("actor_id", p.UserID.String()),
	)
	resp := toOpportunityResponse(created)
	return &resp, nil
}

func (s *opportunityServiceImpl) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateOpportunityRequest) (*dto.OpportunityResponse, error) {
	o, err := loadOwned(ctx, p, authz.ActionUpdate, authz.ResourceOpportunities, id, s.repo.FindByID, "Opportunity not found")
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		o.Name = *req.Name
	}
	if req.ClientID != nil {
		o.ClientID = *req.ClientID
	}
	if req.StageID != nil && *req.StageID != o.StageID {
		// Stage changes from the edit form follow the same rules as a board move.
		moved, err := s.repo.MoveToStage(ctx, o.ID, *req.StageID)
		if err != nil {
			return nil, moveError(err)
		}
		o.StageID = moved.StageID
		o.Probability = moved.Probability
	}
	if req.Amount != nil {
		o.Amount = *req.Amount
	}
	if req.Currency != nil {
		o.Currency = *req.Currency
	}
	if req.Status != nil {
		o.Status = domain.OpportunityStatus(*req.Status)
	}
	if req.Probability != nil {
		o.Probability = *req.Probability
	}
	if req.CloseDate != nil {
		closeDate, err := parseDate("closeDate", req.CloseDate)
		if err != nil {
			return nil, err
		}
		o.CloseDate = closeDate
	}
	if req.OwnerID != nil {
		o.OwnerID = req.OwnerID
	}
	if req.ContactID != nil {
		o.ContactID = req.ContactID
	}
	if req.Notes != nil {
		o.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, repoError(err, "Opportunity not found", "Failed to update opportunity")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		updated = o
	}
	s.index.Upsert(search.KindOpportunities, opportunityDocument(updated))

	resp := toOpportunityResponse(updated)
	return &resp, nil
}

func (s *opportunityServiceImpl) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if _, err := loadOwned(ctx, p, authz.ActionDelete, authz.ResourceOpportunities, id, s.repo.FindByID, "Opportunity not found"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Opportunity not found", "Failed to delete opportunity")
	}
	s.index.Remove(search.KindOpportunities, id)
	s.attachments.RemoveForEntity(ctx, domain.EntityTypeOpportunity, id)

	s.logger.Info("Opportunity deleted",
		zap.String("opportunity_id", id.String()),
		zap.String("actor_id", p.UserID.String()),
	)
	return nil
}

func (s *opportunityServiceImpl) Stats(ctx context.Context, p authz.Principal) (*dto.OpportunityStatsResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceOpportunities, nil); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, repoError(err, "", "Failed to compute opportunity stats")
	}

	resp := &dto.OpportunityStatsResponse{
		Total:      stats.Total,
		TotalValue: stats.TotalValue,
		ByStage:    make(map[string]dto.StageStat, len(stats.ByStage)),
	}
	for stageID, agg := range stats.ByStage {
		resp.ByStage[stageID.String()] = dto.StageStat{Count: agg.Count, Value: agg.Value}
	}
	return resp, nil
}
