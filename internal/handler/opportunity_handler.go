package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// OpportunityHandler handles opportunity requests. Moves go through the pipeline service.
type OpportunityHandler struct {
	opportunityService service.OpportunityService
	pipelineService    service.PipelineService
}

// NewOpportunityHandler creates a new OpportunityHandler
func NewOpportunityHandler(opportunityService service.OpportunityService, pipelineService service.PipelineService) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		pipelineService:    pipelineService,
	}
}

// ListOpportunities godoc
// @Summary      List opportunities
// @Description  Flat opportunity list with filters; the board view uses /pipelines/{id}
// @Tags         opportunities
// @Produce      json
// @Param        q         query string  false "Search text"
// @Param        page      query int     false "Page (default 1)"
// @Param        limit     query int     false "Page size (default 25, max 100)"
// @Param        stageId   query string  false "Stage ID (UUID)"
// @Param        clientId  query string  false "Client ID (UUID)"
// @Param        contactId query string  false "Contact ID (UUID)"
// @Param        ownerId   query string  false "Owner ID (UUID)"
// @Param        status    query string  false "open|won|lost"
// @Param        minAmount query number  false "Minimum amount"
// @Param        maxAmount query number  false "Maximum amount"
// @Success      200 {object} response.SuccessResponse{data=dto.Page[dto.OpportunityResponse]}
// @Failure      400 {object} response.ErrorResponse
// @Router       /opportunities [get]
// @Security     BearerAuth
func (h *OpportunityHandler) ListOpportunities(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var filter dto.OpportunityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, form.FromError(err))
		return
	}

	page, err := h.opportunityService.List(c.Request.Context(), p, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, page)
}

// GetOpportunityStats godoc
// @Summary      Opportunity statistics
// @Description  Totals and per-stage count and value
// @Tags         opportunities
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=dto.OpportunityStatsResponse}
// @Router       /opportunities/stats [get]
// @Security     BearerAuth
func (h *OpportunityHandler) GetOpportunityStats(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	stats, err := h.opportunityService.Stats(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, stats)
}

// GetOpportunity godoc
// @Summary      Get opportunity
// @Tags         opportunities
// @Produce      json
// @Param        id path string true "Opportunity ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.OpportunityResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /opportunities/{id} [get]
// @Security     BearerAuth
func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	id, ok := pathID(c, "id", "opportunity")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	opp, err := h.opportunityService.Get(c.Request.Context(), p, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, opp)
}

// CreateOpportunity godoc
// @Summary      Create opportunity
// @Description  Probability defaults to the stage probability; owner defaults to the caller
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateOpportunityRequest true "Opportunity"
// @Success      201 {object} response.SuccessResponse{data=dto.OpportunityResponse}
// @Failure      400 {object} response.ErrorResponse "Per-field validation errors"
// @Failure      403 {object} response.ErrorResponse
// @Router       /opportunities [post]
// @Security     BearerAuth
func (h *OpportunityHandler) CreateOpportunity(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateOpportunityRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	opp, err := h.opportunityService.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, opp)
}

// UpdateOpportunity godoc
// @Summary      Update opportunity
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Opportunity ID (UUID)"
// @Param        request body dto.UpdateOpportunityRequest true "Fields to change"
// @Success      200 {object} response.SuccessResponse{data=dto.OpportunityResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /opportunities/{id} [put]
// @Security     BearerAuth
func (h *OpportunityHandler) UpdateOpportunity(c *gin.Context) {
	id, ok := pathID(c, "id", "opportunity")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.UpdateOpportunityRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	opp, err := h.opportunityService.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, opp)
}

// DeleteOpportunity godoc
// @Summary      Delete opportunity
// @Tags         opportunities
// @Produce      json
// @Param        id path string true "Opportunity ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=map[string]string}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /opportunities/{id} [delete]
// @Security     BearerAuth
func (h *OpportunityHandler) DeleteOpportunity(c *gin.Context) {
	id, ok := pathID(c, "id", "opportunity")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.opportunityService.Delete(c.Request.Context(), p, id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, map[string]string{"message": "Opportunity deleted successfully"})
}

// MoveOpportunity godoc
// @Summary      Move opportunity to another stage
// @Description  Server-side stage transition. The stage must belong to the same pipeline; probability
// @Description  is set from the stage. The returned row is authoritative.
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Opportunity ID (UUID)"
// @Param        request body dto.MoveOpportunityRequest true "Target stage"
// @Success      200 {object} response.SuccessResponse{data=dto.OpportunityResponse}
// @Failure      400 {object} response.ErrorResponse "Stage belongs to another pipeline"
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /opportunities/{id}/move [post]
// @Security     BearerAuth
func (h *OpportunityHandler) MoveOpportunity(c *gin.Context) {
	id, ok := pathID(c, "id", "opportunity")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.MoveOpportunityRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	opp, err := h.pipelineService.MoveOpportunity(c.Request.Context(), p, id, req.StageID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, opp)
}
