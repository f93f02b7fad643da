package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/response"
	"crm-api/internal/service"
)

// DashboardHandler serves the dashboard KPIs
type DashboardHandler struct {
	dashboardService service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetKPIs godoc
// @Summary      Dashboard KPIs
// @Description  Pipeline value, expected revenue, open opportunities, leads by source and tasks due.
// @Description  Task counts are zero for roles that may not view tasks.
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=dto.DashboardKPIResponse}
// @Failure      403 {object} response.ErrorResponse
// @Router       /dashboard/kpis [get]
// @Security     BearerAuth
func (h *DashboardHandler) GetKPIs(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	kpis, err := h.dashboardService.KPIs(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, kpis)
}
