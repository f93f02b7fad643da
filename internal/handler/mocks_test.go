package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm-api/internal/authz"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/middleware"
	"crm-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	form.Install()
}

// newTestRouter returns an engine whose requests run as the given principal.
// A nil principal leaves the context unauthenticated.
func newTestRouter(p *authz.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.ContextKeyUserID, p.UserID)
			c.Set(middleware.ContextKeyRole, p.Role)
			c.Set(middleware.ContextKeyEmail, "rep@example.com")
			c.Set(middleware.ContextKeyFullName, "سارة أحمد")
		}
		c.Next()
	})
	return r
}

func principal(role authz.Role) *authz.Principal {
	return &authz.Principal{UserID: uuid.New(), Role: role}
}

// MockPipelineService is a mock implementation of PipelineService
type MockPipelineService struct {
	ListPipelinesFunc   func(ctx context.Context, p authz.Principal) ([]dto.PipelineResponse, error)
	FetchPipelineFunc   func(ctx context.Context, pipelineID uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error)
	FetchStagePageFunc  func(ctx context.Context, stageID uuid.UUID, page, pageSize int) (*dto.StagePage, error)
	MoveOpportunityFunc func(ctx context.Context, p authz.Principal, opportunityID, targetStageID uuid.UUID) (*dto.OpportunityResponse, error)
}

func (m *MockPipelineService) ListPipelines(ctx context.Context, p authz.Principal) ([]dto.PipelineResponse, error) {
	if m.ListPipelinesFunc != nil {
		return m.ListPipelinesFunc(ctx, p)
	}
	return []dto.PipelineResponse{}, nil
}

func (m *MockPipelineService) FetchPipeline(ctx context.Context, pipelineID uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error) {
	if m.FetchPipelineFunc != nil {
		return m.FetchPipelineFunc(ctx, pipelineID, page, pageSize)
	}
	return nil, nil
}

func (m *MockPipelineService) FetchStagePage(ctx context.Context, stageID uuid.UUID, page, pageSize int) (*dto.StagePage, error) {
	if m.FetchStagePageFunc != nil {
		return m.FetchStagePageFunc(ctx, stageID, page, pageSize)
	}
	return &dto.StagePage{StageID: stageID, Page: page, Opportunities: []dto.OpportunityResponse{}}, nil
}

func (m *MockPipelineService) MoveOpportunity(ctx context.Context, p authz.Principal, opportunityID, targetStageID uuid.UUID) (*dto.OpportunityResponse, error) {
	if m.MoveOpportunityFunc != nil {
		return m.MoveOpportunityFunc(ctx, p, opportunityID, targetStageID)
	}
	return &dto.OpportunityResponse{ID: opportunityID, StageID: targetStageID}, nil
}

var _ service.PipelineService = (*MockPipelineService)(nil)

// MockOpportunityService is a mock implementation of OpportunityService
type MockOpportunityService struct {
	GetFunc func(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.OpportunityResponse, error)
}

func (m *MockOpportunityService) List(ctx context.Context, p authz.Principal, filter dto.OpportunityFilter) (*dto.Page[dto.OpportunityResponse], error) {
	return &dto.Page[dto.OpportunityResponse]{Items: []dto.OpportunityResponse{}}, nil
}

func (m *MockOpportunityService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.OpportunityResponse, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, p, id)
	}
	return &dto.OpportunityResponse{ID: id}, nil
}

func (m *MockOpportunityService) Create(ctx context.Context, p authz.Principal, req *dto.CreateOpportunityRequest) (*dto.OpportunityResponse, error) {
	return &dto.OpportunityResponse{ID: uuid.New(), Name: req.Name}, nil
}

func (m *MockOpportunityService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateOpportunityRequest) (*dto.OpportunityResponse, error) {
	return &dto.OpportunityResponse{ID: id}, nil
}

func (m *MockOpportunityService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	return nil
}

func (m *MockOpportunityService) Stats(ctx context.Context, p authz.Principal) (*dto.OpportunityStatsResponse, error) {
	return &dto.OpportunityStatsResponse{}, nil
}

var _ service.OpportunityService = (*MockOpportunityService)(nil)

// MockAttachmentService is a mock implementation of AttachmentService
type MockAttachmentService struct {
	CreatePresignedURLFunc func(ctx context.Context, p authz.Principal, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error)
	ConfirmFunc            func(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID, ids []uuid.UUID) ([]dto.AttachmentResponse, error)
	ListByEntityFunc       func(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID) ([]dto.AttachmentResponse, error)
	DeleteFunc             func(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

func (m *MockAttachmentService) RemoveForEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) {
}

func (m *MockAttachmentService) CreatePresignedURL(ctx context.Context, p authz.Principal, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error) {
	if m.CreatePresignedURLFunc != nil {
		return m.CreatePresignedURLFunc(ctx, p, req)
	}
	return &dto.PresignedURLResponse{}, nil
}

func (m *MockAttachmentService) Confirm(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID, ids []uuid.UUID) ([]dto.AttachmentResponse, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, p, entityType, entityID, ids)
	}
	return []dto.AttachmentResponse{}, nil
}

func (m *MockAttachmentService) ListByEntity(ctx context.Context, p authz.Principal, entityType domain.EntityType, entityID uuid.UUID) ([]dto.AttachmentResponse, error) {
	if m.ListByEntityFunc != nil {
		return m.ListByEntityFunc(ctx, p, entityType, entityID)
	}
	return []dto.AttachmentResponse{}, nil
}

func (m *MockAttachmentService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, p, id)
	}
	return nil
}

func (m *MockAttachmentService) CleanupExpired(ctx context.Context, now time.Time) (int, int, error) {
	return 0, 0, nil
}

var _ service.AttachmentService = (*MockAttachmentService)(nil)

// MockProfileService is a mock implementation of ProfileService
type MockProfileService struct {
	MeFunc         func(ctx context.Context, id service.Identity) (*dto.MeResponse, error)
	UpdateRoleFunc func(ctx context.Context, p authz.Principal, userID uuid.UUID, req *dto.UpdateRoleRequest) (*dto.ProfileResponse, error)
}

func (m *MockProfileService) Me(ctx context.Context, id service.Identity) (*dto.MeResponse, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, id)
	}
	return &dto.MeResponse{}, nil
}

func (m *MockProfileService) UpdateRole(ctx context.Context, p authz.Principal, userID uuid.UUID, req *dto.UpdateRoleRequest) (*dto.ProfileResponse, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, p, userID, req)
	}
	return &dto.ProfileResponse{}, nil
}

func (m *MockProfileService) ResolveRole(ctx context.Context, userID uuid.UUID) (authz.Role, error) {
	return "", nil
}

var _ service.ProfileService = (*MockProfileService)(nil)
