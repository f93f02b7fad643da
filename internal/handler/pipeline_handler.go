package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/authz"
	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// PipelineHandler serves the pipeline board over HTTP
type PipelineHandler struct {
	pipelineService service.PipelineService
	pageSize        int
}

// NewPipelineHandler creates a new PipelineHandler. pageSize is the default stage page size.
func NewPipelineHandler(pipelineService service.PipelineService, pageSize int) *PipelineHandler {
	if pageSize <= 0 {
		pageSize = dto.DefaultLimit
	}
	return &PipelineHandler{pipelineService: pipelineService, pageSize: pageSize}
}

// ListPipelines godoc
// @Summary      List pipelines
// @Description  Every pipeline sorted by name, stages in position order
// @Tags         pipelines
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=[]dto.PipelineResponse}
// @Failure      403 {object} response.ErrorResponse
// @Router       /pipelines [get]
// @Security     BearerAuth
func (h *PipelineHandler) ListPipelines(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	pipelines, err := h.pipelineService.ListPipelines(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, pipelines)
}

// GetPipelineBoard godoc
// @Summary      Get pipeline board
// @Description  Pipeline with one page of opportunities per stage, newest first. A stage whose
// @Description  opportunities could not be loaded is returned empty with degraded=true.
// @Tags         pipelines
// @Produce      json
// @Param        id    path  string true  "Pipeline ID (UUID)"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Cards per stage"
// @Success      200 {object} response.SuccessResponse{data=dto.PipelineBoard}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /pipelines/{id} [get]
// @Security     BearerAuth
func (h *PipelineHandler) GetPipelineBoard(c *gin.Context) {
	id, ok := pathID(c, "id", "pipeline")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if !requirePermission(c, p, authz.ActionView, authz.ResourceOpportunities) {
		return
	}
	params, ok := h.bindPage(c)
	if !ok {
		return
	}

	board, err := h.pipelineService.FetchPipeline(c.Request.Context(), id, params.Page, params.Limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if board == nil {
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Pipeline not found")
		return
	}
	response.SendSuccess(c, http.StatusOK, board)
}

// GetStageOpportunities godoc
// @Summary      Get a page of one stage
// @Tags         pipelines
// @Produce      json
// @Param        id      path  string true  "Pipeline ID (UUID)"
// @Param        stageId path  string true  "Stage ID (UUID)"
// @Param        page    query int    false "Page (default 1)"
// @Param        limit   query int    false "Cards per page"
// @Success      200 {object} response.SuccessResponse{data=dto.StagePage}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /pipelines/{id}/stages/{stageId}/opportunities [get]
// @Security     BearerAuth
func (h *PipelineHandler) GetStageOpportunities(c *gin.Context) {
	pipelineID, ok := pathID(c, "id", "pipeline")
	if !ok {
		return
	}
	stageID, ok := pathID(c, "stageId", "stage")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if !requirePermission(c, p, authz.ActionView, authz.ResourceOpportunities) {
		return
	}
	params, ok := h.bindPage(c)
	if !ok {
		return
	}

	page, err := h.pipelineService.FetchStagePage(c.Request.Context(), stageID, params.Page, params.Limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if page.PipelineID != pipelineID {
		handleServiceError(c, response.NewNotFoundError("Stage not found", stageID.String()))
		return
	}
	response.SendSuccess(c, http.StatusOK, page)
}

func (h *PipelineHandler) bindPage(c *gin.Context) (dto.BoardPageParams, bool) {
	var params dto.BoardPageParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, form.FromError(err))
		return params, false
	}
	if params.Page < 1 {
		params.Page = dto.DefaultPage
	}
	if params.Limit < 1 {
		params.Limit = h.pageSize
	}
	return params, true
}
