package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// ProjectHandler handles project requests
type ProjectHandler struct {
	projectService service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// ListProjects godoc
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Param        q        query string false "Search text"
// @Param        page     query int    false "Page (default 1)"
// @Param        limit    query int    false "Page size (default 25, max 100)"
// @Param        status   query string false "active|completed|on_hold"
// @Param        clientId query string false "Client ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.Page[dto.ProjectResponse]}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Router       /projects [get]
// @Security     BearerAuth
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var filter dto.ProjectFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, form.FromError(err))
		return
	}

	page, err := h.projectService.List(c.Request.Context(), p, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, page)
}

// GetProject godoc
// @Summary      Get project
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.ProjectResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /projects/{id} [get]
// @Security     BearerAuth
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := pathID(c, "id", "project")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), p, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, project)
}

// CreateProject godoc
// @Summary      Create project
// @Description  endDate must not be before startDate
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateProjectRequest true "Project"
// @Success      201 {object} response.SuccessResponse{data=dto.ProjectResponse}
// @Failure      400 {object} response.ErrorResponse "Per-field validation errors"
// @Failure      403 {object} response.ErrorResponse
// @Router       /projects [post]
// @Security     BearerAuth
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateProjectRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, project)
}

// UpdateProject godoc
// @Summary      Update project
// @Description  The date range is checked against the stored record when only one end changes
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Project ID (UUID)"
// @Param        request body dto.UpdateProjectRequest true "Fields to change"
// @Success      200 {object} response.SuccessResponse{data=dto.ProjectResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /projects/{id} [put]
// @Security     BearerAuth
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := pathID(c, "id", "project")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.UpdateProjectRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, project)
}

// DeleteProject godoc
// @Summary      Delete project
// @Description  Admin only. Removes the project's attachments as well.
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=map[string]string}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /projects/{id} [delete]
// @Security     BearerAuth
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := pathID(c, "id", "project")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), p, id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}
