package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-api/internal/authz"
	"crm-api/internal/cache"
	"crm-api/internal/client"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/metrics"
	"crm-api/internal/repository"
	"crm-api/internal/response"
	"crm-api/internal/search"
	"crm-api/internal/tracing"
)

// DefaultStagePageSize is the number of opportunities loaded per stage and page
const DefaultStagePageSize = 25

// PipelineService defines the interface for pipeline board data access
type PipelineService interface {
	ListPipelines(ctx context.Context, p authz.Principal) ([]dto.PipelineResponse, error)
	FetchPipeline(ctx context.Context, pipelineID uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error)
	FetchStagePage(ctx context.Context, stageID uuid.UUID, page, pageSize int) (*dto.StagePage, error)
	MoveOpportunity(ctx context.Context, p authz.Principal, opportunityID, targetStageID uuid.UUID) (*dto.OpportunityResponse, error)
}

type pipelineServiceImpl struct {
	pipelines     repository.PipelineRepository
	opportunities repository.OpportunityRepository
	cache         *cache.Cache
	index         search.Index
	notifications client.NotificationClient
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewPipelineService creates a new instance of PipelineService
func NewPipelineService(
	pipelines repository.PipelineRepository,
	opportunities repository.OpportunityRepository,
	c *cache.Cache,
	index search.Index,
	notifications client.NotificationClient,
	m *metrics.Metrics,
	logger *zap.Logger,
) PipelineService {
	return &pipelineServiceImpl{
		pipelines:     pipelines,
		opportunities: opportunities,
		cache:         c,
		index:         index,
		notifications: notifications,
		metrics:       m,
		logger:        logger,
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultStagePageSize
	}
	return page, pageSize
}

// ListPipelines returns every pipeline sorted by name with stages in position order
func (s *pipelineServiceImpl) ListPipelines(ctx context.Context, p authz.Principal) ([]dto.PipelineResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceOpportunities, nil); err != nil {
		return nil, err
	}
	pipelines, err := cache.GetOrLoad(ctx, s.cache, cache.PipelinesKey, func(ctx context.Context) ([]dto.PipelineResponse, error) {
		rows, err := s.pipelines.List(ctx)
		if err != nil {
			return nil, err
		}
		return mapSlice(rows, toPipelineResponse), nil
	})
	if err != nil {
		return nil, repoError(err, "", "Failed to list pipelines")
	}
	return pipelines, nil
}

// FetchPipeline loads the pipeline, its stages and one page of opportunities per stage.
// It returns (nil, nil) when the pipeline does not exist. A stage whose opportunities
// cannot be loaded is returned empty and flagged degraded.
func (s *pipelineServiceImpl) FetchPipeline(ctx context.Context, pipelineID uuid.UUID, page, pageSize int) (board *dto.PipelineBoard, err error) {
	page, pageSize = normalizePage(page, pageSize)

	ctx, span := tracing.Start(ctx, "pipeline.fetch",
		attribute.String("pipeline.id", pipelineID.String()),
		attribute.Int("page", page),
	)
	defer func() { tracing.End(span, err) }()

	pipeline, err := s.pipelines.FindByID(ctx, pipelineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, response.NewInternalError("Failed to load pipeline", err)
	}

	stages, err := s.pipelines.FindStages(ctx, pipelineID)
	if err != nil {
		return nil, response.NewInternalError("Failed to load pipeline stages", err)
	}

	columns := make([]dto.StageColumn, len(stages))
	var wg sync.WaitGroup
	for i := range stages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			columns[i] = s.fetchColumn(ctx, &stages[i], page, pageSize)
		}(i)
	}
	wg.Wait()

	span.SetAttributes(attribute.Int("stages", len(stages)))
	return &dto.PipelineBoard{
		ID:     pipeline.ID,
		Name:   pipeline.Name,
		Stages: columns,
	}, nil
}

// fetchColumn never fails: errors degrade the column to an empty list
func (s *pipelineServiceImpl) fetchColumn(ctx context.Context, stage *domain.Stage, page, pageSize int) dto.StageColumn {
	column := dto.StageColumn{
		StageResponse: toStageResponse(stage),
		Opportunities: []dto.OpportunityResponse{},
		Page:          page,
	}

	items, err := s.opportunities.FindByStage(ctx, stage.ID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Warn("Stage fetch failed, returning degraded column",
			zap.String("pipeline_id", stage.PipelineID.String()),
			zap.String("stage_id", stage.ID.String()),
			zap.Int("page", page),
			zap.Error(err),
		)
		s.metrics.IncrementStageDegraded()
		column.Degraded = true
		return column
	}

	column.Opportunities = mapSlice(items, toOpportunityResponse)
	column.HasMore = len(items) == pageSize
	return column
}

// FetchStagePage loads one page of a single stage
func (s *pipelineServiceImpl) FetchStagePage(ctx context.Context, stageID uuid.UUID, page, pageSize int) (*dto.StagePage, error) {
	page, pageSize = normalizePage(page, pageSize)

	stage, err := s.pipelines.FindStageByID(ctx, stageID)
	if err != nil {
		return nil, repoError(err, "Stage not found", "Failed to load stage")
	}
	items, err := s.opportunities.FindByStage(ctx, stageID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, response.NewInternalError("Failed to load stage opportunities", err)
	}

	return &dto.StagePage{
		StageID:       stageID,
		PipelineID:    stage.PipelineID,
		Opportunities: mapSlice(items, toOpportunityResponse),
		Page:          page,
		HasMore:       len(items) == pageSize,
	}, nil
}

// MoveOpportunity moves an opportunity to another stage of the same pipeline.
// The returned row is the stored state after the move.
func (s *pipelineServiceImpl) MoveOpportunity(ctx context.Context, p authz.Principal, opportunityID, targetStageID uuid.UUID) (resp *dto.OpportunityResponse, err error) {
	ctx, span := tracing.Start(ctx, "opportunity.move",
		attribute.String("opportunity.id", opportunityID.String()),
		attribute.String("stage.id", targetStageID.String()),
	)
	defer func() { tracing.End(span, err) }()

	current, err := loadOwned(ctx, p, authz.ActionUpdate, authz.ResourceOpportunities, opportunityID, s.opportunities.FindByID, "Opportunity not found")
	if err != nil {
		s.recordMove(err)
		return nil, err
	}

	moved, err := s.opportunities.MoveToStage(ctx, opportunityID, targetStageID)
	if err != nil {
		err = moveError(err)
		s.recordMove(err)
		s.logger.Warn("Opportunity move failed",
			zap.String("opportunity_id", opportunityID.String()),
			zap.String("stage_id", targetStageID.String()),
			zap.String("actor_id", p.UserID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	s.recordMove(nil)

	s.cache.Delete(ctx, cache.DashboardKPIKey)
	s.index.Upsert(search.KindOpportunities, opportunityDocument(moved))

	if moved.OwnerID != nil && *moved.OwnerID != p.UserID && current.StageID != moved.StageID {
		s.notifications.SendNotification(ctx, client.NotificationEvent{
			Type:         client.NotificationOpportunityStageChanged,
			ActorID:      p.UserID,
			TargetUserID: *moved.OwnerID,
			ResourceType: "opportunity",
			ResourceID:   moved.ID,
			ResourceName: moved.Name,
			Metadata: map[string]interface{}{
				"fromStageId": current.StageID.String(),
				"toStageId":   moved.StageID.String(),
			},
		})
	}

	s.logger.Info("Opportunity moved",
		zap.String("opportunity_id", opportunityID.String()),
		zap.String("from_stage_id", current.StageID.String()),
		zap.String("to_stage_id", moved.StageID.String()),
		zap.String("actor_id", p.UserID.String()),
	)
	out := toOpportunityResponse(moved)
	return &out, nil
}

func (s *pipelineServiceImpl) recordMove(err error) {
	var appErr *response.AppError
	switch {
	case err == nil:
		s.metrics.RecordOpportunityMove(metrics.MoveResultSuccess)
	case errors.As(err, &appErr) && appErr.Code == response.ErrCodeForbidden:
		s.metrics.RecordOpportunityMove(metrics.MoveResultDenied)
	default:
		s.metrics.RecordOpportunityMove(metrics.MoveResultFailure)
	}
}

// moveError maps MoveToStage failures to AppErrors
func moveError(err error) error {
	if errors.Is(err, repository.ErrStageNotInPipeline) {
		return response.NewFieldValidationError([]response.FieldError{
			{Field: "stageId", Message: "المرحلة لا تنتمي إلى نفس مسار المبيعات"},
		})
	}
	return repoError(err, "Opportunity or stage not found", "Failed to move opportunity")
}
