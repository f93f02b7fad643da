package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
	"crm-api/internal/response"
)

// ProjectService defines the interface for project business logic
type ProjectService interface {
	List(ctx context.Context, p authz.Principal, filter dto.ProjectFilter) (*dto.Page[dto.ProjectResponse], error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.ProjectResponse, error)
	Create(ctx context.Context, p authz.Principal, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type projectServiceImpl struct {
	repo        repository.ProjectRepository
	attachments AttachmentCleaner
	logger      *zap.Logger
}

// NewProjectService creates a new instance of ProjectService
func NewProjectService(repo repository.ProjectRepository, attachments AttachmentCleaner, logger *zap.Logger) ProjectService {
	return &projectServiceImpl{repo: repo, attachments: attachments, logger: logger}
}

func (s *projectServiceImpl) List(ctx context.Context, p authz.Principal, filter dto.ProjectFilter) (*dto.Page[dto.ProjectResponse], error) {
	if err := authorize(p, authz.ActionView, authz.ResourceProjects, nil); err != nil {
		return nil, err
	}
	filter.Normalize()

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, repoError(err, "", "Failed to list projects")
	}
	page := dto.NewPage(mapSlice(items, toProjectResponse), total, filter.ListParams)
	return &page, nil
}

func (s *projectServiceImpl) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*dto.ProjectResponse, error) {
	if err := authorize(p, authz.ActionView, authz.ResourceProjects, nil); err != nil {
		return nil, err
	}
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Project not found", "Failed to get project")
	}
	resp := toProjectResponse(project)
	return &resp, nil
}

func (s *projectServiceImpl) Create(ctx context.Context, p authz.Principal, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	if err := authorize(p, authz.ActionCreate, authz.ResourceProjects, nil); err != nil {
		return nil, err
	}
	if fields := req.CheckFields(); len(fields) > 0 {
		return nil, response.NewFieldValidationError(fields)
	}

	startDate, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		ClientID:    req.ClientID,
		Status:      domain.ProjectStatus(req.Status),
		Budget:      req.Budget,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if project.Status == "" {
		project.Status = domain.ProjectStatusActive
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, repoError(err, "", "Failed to create project")
	}

	s.logger.Info("Project created", zap.String("project_id", project.ID.String()), zap.String("actor_id", p.UserID.String()))
	resp := toProjectResponse(project)
	return &resp, nil
}

func (s *projectServiceImpl) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	if err := authorize(p, authz.ActionUpdate, authz.ResourceProjects, nil); err != nil {
		return nil, err
	}
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Project not found", "Failed to get project")
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.ClientID != nil {
		project.ClientID = req.ClientID
	}
	if req.Status != nil {
		project.Status = domain.ProjectStatus(*req.Status)
	}
	if req.Budget != nil {
		project.Budget = req.Budget
	}
	if req.StartDate != nil {
		if project.StartDate, err = parseDate("startDate", req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if project.EndDate, err = parseDate("endDate", req.EndDate); err != nil {
			return nil, err
		}
	}

	// A patch may move only one end of the range, so check the merged record.
	if project.StartDate != nil && project.EndDate != nil &&
		time.Time(*project.EndDate).Before(time.Time(*project.StartDate)) {
		return nil, response.NewFieldValidationError([]response.FieldError{
			{Field: "endDate", Message: "تاريخ الانتهاء يجب أن يكون بعد تاريخ البدء"},
		})
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, repoError(err, "Project not found", "Failed to update project")
	}
	resp := toProjectResponse(project)
	return &resp, nil
}

func (s *projectServiceImpl) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if err := authorize(p, authz.ActionDelete, authz.ResourceProjects, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Project not found", "Failed to delete project")
	}
	s.attachments.RemoveForEntity(ctx, domain.EntityTypeProject, id)

	s.logger.Info("Project deleted", zap.String("project_id", id.String()), zap.String("actor_id", p.UserID.String()))
	return nil
}
