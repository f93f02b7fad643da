package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/cache"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
)

const (
	dashboardCacheTTL = 30 * time.Second
	leadSourceWindow  = 30 * 24 * time.Hour
)

// DashboardService computes the dashboard headline numbers
type DashboardService interface {
	KPIs(ctx context.Context, p authz.Principal) (*dto.DashboardKPIResponse, error)
}

type dashboardServiceImpl struct {
	repo   repository.DashboardRepository
	tasks  repository.TaskRepository
	cache  *cache.Cache
	now    func() time.Time
	logger *zap.Logger
}

// NewDashboardService creates a new instance of DashboardService
func NewDashboardService(repo repository.DashboardRepository, tasks repository.TaskRepository, c *cache.Cache, logger *zap.Logger) DashboardService {
	return &dashboardServiceImpl{
		repo:   repo,
		tasks:  tasks,
		cache:  c,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (s *dashboardServiceImpl) KPIs(ctx context.Context, p authz.Principal) (*dto.DashboardKPIResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceOpportunities, nil); err != nil {
		return nil, err
	}

	var cached dto.DashboardKPIResponse
	if s.cache.Get(ctx, cache.DashboardKPIKey, &cached) {
		return &cached, nil
	}

	kpis, err := s.compute(ctx)
	if err != nil {
		return nil, repoError(err, "", "Failed to compute dashboard KPIs")
	}
	s.cache.SetWithTTL(ctx, cache.DashboardKPIKey, kpis, dashboardCacheTTL)
	return kpis, nil
}

func (s *dashboardServiceImpl) compute(ctx context.Context) (*dto.DashboardKPIResponse, error) {
	now := s.now()

	totals, err := s.repo.PipelineTotals(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := s.repo.LeadsBySource(ctx, now.Add(-leadSourceWindow))
	if err != nil {
		return nil, err
	}
	dueToday, err := s.tasks.CountDueOn(ctx, now)
	if err != nil {
		return nil, err
	}
	dueTomorrow, err := s.tasks.CountDueOn(ctx, now.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	bySource := make([]dto.SourceCount, len(sources))
	for i, sc := range sources {
		bySource[i] = dto.SourceCount{Source: sc.Source, Count: sc.Count}
	}

	return &dto.DashboardKPIResponse{
		PipelineValue:     totals.PipelineValue,
		ExpectedRevenue:   totals.ExpectedRevenue,
		OpenOpportunities: totals.OpenCount,
		LeadsBySource:     bySource,
		TasksDueToday:     dueToday,
		TasksDueTomorrow:  dueTomorrow,
		GeneratedAt:       now,
	}, nil
}
