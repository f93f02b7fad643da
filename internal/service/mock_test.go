package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"crm-api/internal/client"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
	"crm-api/internal/search"
)

// MockOpportunityRepository is a mock implementation of OpportunityRepository
type MockOpportunityRepository struct {
	CreateFunc        func(ctx context.Context, o *domain.Opportunity) error
	FindByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error)
	UpdateFunc        func(ctx context.Context, o *domain.Opportunity) error
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
	ListFunc          func(ctx context.Context, filter dto.OpportunityFilter, ids []uuid.UUID) ([]domain.Opportunity, int64, error)
	FindByStageFunc   func(ctx context.Context, stageID uuid.UUID, offset, limit int) ([]domain.Opportunity, error)
	MoveToStageFunc   func(ctx context.Context, id, targetStageID uuid.UUID) (*domain.Opportunity, error)
	StatsFunc         func(ctx context.Context) (*repository.OpportunityStats, error)
	CountByStatusFunc func(ctx context.Context) (map[domain.OpportunityStatus]int64, error)
}

func (m *MockOpportunityRepository) Create(ctx context.Context, o *domain.Opportunity) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	return nil
}

func (m *MockOpportunityRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockOpportunityRepository) Update(ctx context.Context, o *domain.Opportunity) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, o)
	}
	return nil
}

func (m *MockOpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockOpportunityRepository) List(ctx context.Context, filter dto.OpportunityFilter, ids []uuid.UUID) ([]domain.Opportunity, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, ids)
	}
	return nil, 0, nil
}

func (m *MockOpportunityRepository) FindByStage(ctx context.Context, stageID uuid.UUID, offset, limit int) ([]domain.Opportunity, error) {
	if m.FindByStageFunc != nil {
		return m.FindByStageFunc(ctx, stageID, offset, limit)
	}
	return nil, nil
}

func (m *MockOpportunityRepository) MoveToStage(ctx context.Context, id, targetStageID uuid.UUID) (*domain.Opportunity, error) {
	if m.MoveToStageFunc != nil {
		return m.MoveToStageFunc(ctx, id, targetStageID)
	}
	return nil, nil
}

func (m *MockOpportunityRepository) Stats(ctx context.Context) (*repository.OpportunityStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &repository.OpportunityStats{}, nil
}

func (m *MockOpportunityRepository) CountByStatus(ctx context.Context) (map[domain.OpportunityStatus]int64, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	return map[domain.OpportunityStatus]int64{}, nil
}

// MockPipelineRepository is a mock implementation of PipelineRepository
type MockPipelineRepository struct {
	ListFunc          func(ctx context.Context) ([]domain.Pipeline, error)
	FindByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Pipeline, error)
	FindStagesFunc    func(ctx context.Context, pipelineID uuid.UUID) ([]domain.Stage, error)
	FindStageByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Stage, error)
	CreateFunc        func(ctx context.Context, pipeline *domain.Pipeline) error
}

func (m *MockPipelineRepository) List(ctx context.Context) ([]domain.Pipeline, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockPipelineRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Pipeline, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPipelineRepository) FindStages(ctx context.Context, pipelineID uuid.UUID) ([]domain.Stage, error) {
	if m.FindStagesFunc != nil {
		return m.FindStagesFunc(ctx, pipelineID)
	}
	return nil, nil
}

func (m *MockPipelineRepository) FindStageByID(ctx context.Context, id uuid.UUID) (*domain.Stage, error) {
	if m.FindStageByIDFunc != nil {
		return m.FindStageByIDFunc(ctx, id)
	}
	return &domain.Stage{BaseModel: domain.BaseModel{ID: id}}, nil
}

func (m *MockPipelineRepository) Create(ctx context.Context, pipeline *domain.Pipeline) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, pipeline)
	}
	return nil
}

// MockLeadRepository is a mock implementation of LeadRepository
type MockLeadRepository struct {
	CreateFunc   func(ctx context.Context, lead *domain.Lead) error
	FindByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	UpdateFunc   func(ctx context.Context, lead *domain.Lead) error
	DeleteFunc   func(ctx context.Context, id uuid.UUID) error
	ListFunc     func(ctx context.Context, filter dto.LeadFilter, ids []uuid.UUID) ([]domain.Lead, int64, error)
	StatsFunc    func(ctx context.Context) (*repository.LeadStats, error)
	ConvertFunc  func(ctx context.Context, leadID uuid.UUID, plan repository.ConvertPlan) (*repository.ConvertResult, error)
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, lead)
	}
	return nil
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, lead)
	}
	return nil
}

func (m *MockLeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockLeadRepository) List(ctx context.Context, filter dto.LeadFilter, ids []uuid.UUID) ([]domain.Lead, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, ids)
	}
	return nil, 0, nil
}

func (m *MockLeadRepository) Stats(ctx context.Context) (*repository.LeadStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &repository.LeadStats{}, nil
}

func (m *MockLeadRepository) Convert(ctx context.Context, leadID uuid.UUID, plan repository.ConvertPlan) (*repository.ConvertResult, error) {
	if m.ConvertFunc != nil {
		return m.ConvertFunc(ctx, leadID, plan)
	}
	return nil, nil
}

// MockAttachmentRepository is a mock implementation of AttachmentRepository
type MockAttachmentRepository struct {
	CreateFunc          func(ctx context.Context, a *domain.Attachment) error
	FindByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	FindByEntityFunc    func(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error)
	DeleteFunc          func(ctx context.Context, id uuid.UUID) error
	FindExpiredTempFunc func(ctx context.Context, now time.Time) ([]*domain.Attachment, error)
	ConfirmFunc         func(ctx context.Context, ids []uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error
	DeleteBatchFunc     func(ctx context.Context, ids []uuid.UUID) error
	DeleteByEntityFunc  func(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error)
}

func (m *MockAttachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return nil
}

func (m *MockAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAttachmentRepository) FindByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	if m.FindByEntityFunc != nil {
		return m.FindByEntityFunc(ctx, entityType, entityID)
	}
	return nil, nil
}

func (m *MockAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockAttachmentRepository) FindExpiredTemp(ctx context.Context, now time.Time) ([]*domain.Attachment, error) {
	if m.FindExpiredTempFunc != nil {
		return m.FindExpiredTempFunc(ctx, now)
	}
	return nil, nil
}

func (m *MockAttachmentRepository) Confirm(ctx context.Context, ids []uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, ids, entityType, entityID)
	}
	return nil
}

func (m *MockAttachmentRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if m.DeleteBatchFunc != nil {
		return m.DeleteBatchFunc(ctx, ids)
	}
	return nil
}

func (m *MockAttachmentRepository) DeleteByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	if m.DeleteByEntityFunc != nil {
		return m.DeleteByEntityFunc(ctx, entityType, entityID)
	}
	return nil, nil
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	FindByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	EnsureExistsFunc func(ctx context.Context, profile *domain.Profile) error
	UpdateRoleFunc   func(ctx context.Context, id uuid.UUID, role string) error
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockProfileRepository) EnsureExists(ctx context.Context, profile *domain.Profile) error {
	if m.EnsureExistsFunc != nil {
		return m.EnsureExistsFunc(ctx, profile)
	}
	return nil
}

func (m *MockProfileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil
}

// MockNotificationClient records every event it is asked to send
type MockNotificationClient struct {
	mu     sync.Mutex
	events []client.NotificationEvent
}

func (m *MockNotificationClient) SendNotification(ctx context.Context, event client.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockNotificationClient) SendBulkNotifications(ctx context.Context, events []client.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockNotificationClient) Events() []client.NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]client.NotificationEvent(nil), m.events...)
}

// recordingCleaner records RemoveForEntity calls
type recordingCleaner struct {
	mu      sync.Mutex
	removed []uuid.UUID
}

func (c *recordingCleaner) RemoveForEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, entityID)
}

// recordingIndex is a healthy in-memory search index returning fixed ids
type recordingIndex struct {
	search.Noop
	healthy bool
	ids     []uuid.UUID
	err     error

	mu       sync.Mutex
	upserted []search.Document
	removed  []uuid.UUID
}

func (i *recordingIndex) Healthy() bool { return i.healthy }

func (i *recordingIndex) SearchIDs(ctx context.Context, kind search.Kind, q string, limit int) ([]uuid.UUID, error) {
	return i.ids, i.err
}

func (i *recordingIndex) Upsert(kind search.Kind, doc search.Document) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.upserted = append(i.upserted, doc)
}

func (i *recordingIndex) Remove(kind search.Kind, id uuid.UUID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.removed = append(i.removed, id)
}

var (
	_ repository.OpportunityRepository = (*MockOpportunityRepository)(nil)
	_ repository.PipelineRepository    = (*MockPipelineRepository)(nil)
	_ repository.LeadRepository        = (*MockLeadRepository)(nil)
	_ repository.AttachmentRepository  = (*MockAttachmentRepository)(nil)
	_ repository.ProfileRepository     = (*MockProfileRepository)(nil)
	_ client.NotificationClient        = (*MockNotificationClient)(nil)
	_ search.Index                     = (*recordingIndex)(nil)
)
