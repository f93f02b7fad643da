package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// LeadHandler handles lead requests
type LeadHandler struct {
	leadService service.LeadService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService service.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// ListLeads godoc
// @Summary      List leads
// @Tags         leads
// @Produce      json
// @Param        q       query string false "Search text"
// @Param        page    query int    false "Page (default 1)"
// @Param        limit   query int    false "Page size (default 25, max 100)"
// @Param        status  query string false "new|contacted|qualified|unqualified"
// @Param        source  query string false "website|referral|ads|social|cold_call|other"
// @Param        ownerId query string false "Owner ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.Page[dto.LeadResponse]}
// @Failure      400 {object} response.ErrorResponse
// @Router       /leads [get]
// @Security     BearerAuth
func (h *LeadHandler) ListLeads(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var filter dto.LeadFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, form.FromError(err))
		return
	}

	page, err := h.leadService.List(c.Request.Context(), p, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, page)
}

// GetLeadStats godoc
// @Summary      Lead statistics
// @Tags         leads
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=dto.LeadStatsResponse}
// @Router       /leads/stats [get]
// @Security     BearerAuth
func (h *LeadHandler) GetLeadStats(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	stats, err := h.leadService.Stats(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, stats)
}

// GetLead godoc
// @Summary      Get lead
// @Tags         leads
// @Produce      json
// @Param        id path string true "Lead ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.LeadResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /leads/{id} [get]
// @Security     BearerAuth
func (h *LeadHandler) GetLead(c *gin.Context) {
	id, ok := pathID(c, "id", "lead")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	lead, err := h.leadService.Get(c.Request.Context(), p, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, lead)
}

// CreateLead godoc
// @Summary      Create lead
// @Description  Either a first name or a company is required
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateLeadRequest true "Lead"
// @Success      201 {object} response.SuccessResponse{data=dto.LeadResponse}
// @Failure      400 {object} response.ErrorResponse "Per-field validation errors"
// @Router       /leads [post]
// @Security     BearerAuth
func (h *LeadHandler) CreateLead(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateLeadRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	lead, err := h.leadService.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, lead)
}

// UpdateLead godoc
// @Summary      Update lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Lead ID (UUID)"
// @Param        request body dto.UpdateLeadRequest true "Fields to change"
// @Success      200 {object} response.SuccessResponse{data=dto.LeadResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /leads/{id} [put]
// @Security     BearerAuth
func (h *LeadHandler) UpdateLead(c *gin.Context) {
	id, ok := pathID(c, "id", "lead")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.UpdateLeadRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	lead, err := h.leadService.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, lead)
}

// DeleteLead godoc
// @Summary      Delete lead
// @Tags         leads
// @Produce      json
// @Param        id path string true "Lead ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=map[string]string}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /leads/{id} [delete]
// @Security     BearerAuth
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	id, ok := pathID(c, "id", "lead")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.leadService.Delete(c.Request.Context(), p, id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, map[string]string{"message": "Lead deleted successfully"})
}

// ConvertLead godoc
// @Summary      Convert lead
// @Description  Creates a client and a contact from the lead in one transaction and marks it qualified
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Lead ID (UUID)"
// @Param        request body dto.ConvertLeadRequest false "Conversion options"
// @Success      200 {object} response.SuccessResponse{data=dto.ConvertLeadResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse "Lead already converted"
// @Router       /leads/{id}/convert [post]
// @Security     BearerAuth
func (h *LeadHandler) ConvertLead(c *gin.Context) {
	id, ok := pathID(c, "id", "lead")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	req := dto.ConvertLeadRequest{}
	if c.Request.ContentLength != 0 {
		if err := form.Bind(c, &req); err != nil {
			bindError(c, err)
			return
		}
	}

	result, err := h.leadService.Convert(c.Request.Context(), p, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, result)
}
