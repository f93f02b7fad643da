package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// ContactHandler handles contact requests
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ListContacts godoc
// @Summary      List contacts
// @Tags         contacts
// @Produce      json
// @Param        q        query string false "Search text"
// @Param        page     query int    false "Page (default 1)"
// @Param        limit    query int    false "Page size (default 25, max 100)"
// @Param        clientId query string false "Client ID (UUID)"
// @Param        ownerId  query string false "Owner ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.Page[dto.ContactResponse]}
// @Failure      400 {object} response.ErrorResponse
// @Router       /contacts [get]
// @Security     BearerAuth
func (h *ContactHandler) ListContacts(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var filter dto.ContactFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, form.FromError(err))
		return
	}

	page, err := h.contactService.List(c.Request.Context(), p, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, page)
}

// GetContact godoc
// @Summary      Get contact
// @Tags         contacts
// @Produce      json
// @Param        id path string true "Contact ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.ContactResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /contacts/{id} [get]
// @Security     BearerAuth
func (h *ContactHandler) GetContact(c *gin.Context) {
	id, ok := pathID(c, "id", "contact")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	contact, err := h.contactService.Get(c.Request.Context(), p, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, contact)
}

// CreateContact godoc
// @Summary      Create contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateContactRequest true "Contact"
// @Success      201 {object} response.SuccessResponse{data=dto.ContactResponse}
// @Failure      400 {object} response.ErrorResponse "Per-field validation errors"
// @Failure      403 {object} response.ErrorResponse
// @Router       /contacts [post]
// @Security     BearerAuth
func (h *ContactHandler) CreateContact(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateContactRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	contact, err := h.contactService.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, contact)
}

// UpdateContact godoc
// @Summary      Update contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Contact ID (UUID)"
// @Param        request body dto.UpdateContactRequest true "Fields to change"
// @Success      200 {object} response.SuccessResponse{data=dto.ContactResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /contacts/{id} [put]
// @Security     BearerAuth
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	id, ok := pathID(c, "id", "contact")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.UpdateContactRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	contact, err := h.contactService.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, contact)
}

// DeleteContact godoc
// @Summary      Delete contact
// @Tags         contacts
// @Produce      json
// @Param        id path string true "Contact ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=map[string]string}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /contacts/{id} [delete]
// @Security     BearerAuth
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id, ok := pathID(c, "id", "contact")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), p, id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, map[string]string{"message": "Contact deleted successfully"})
}
