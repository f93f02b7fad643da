package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/middleware"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// ProfileHandler handles the caller's profile and role administration
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetMe godoc
// @Summary      Current user
// @Description  Returns the caller's profile, role and permission keys. The profile is created
// @Description  without a role on first access; a user without a role can do nothing else.
// @Tags         profiles
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=dto.MeResponse}
// @Failure      401 {object} response.ErrorResponse
// @Router       /me [get]
// @Security     BearerAuth
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User ID not found in context")
		return
	}

	me, err := h.profileService.Me(c.Request.Context(), service.Identity{
		UserID:   userID,
		Email:    c.GetString(middleware.ContextKeyEmail),
		FullName: c.GetString(middleware.ContextKeyFullName),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, me)
}

// UpdateRole godoc
// @Summary      Set a user's role
// @Description  Admin only. An empty role revokes access.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        id      path string                true "User ID (UUID)"
// @Param        request body dto.UpdateRoleRequest true "Role"
// @Success      200 {object} response.SuccessResponse{data=dto.ProfileResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /profiles/{id}/role [put]
// @Security     BearerAuth
func (h *ProfileHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.UpdateRoleRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.profileService.UpdateRole(c.Request.Context(), p, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, profile)
}
