package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// ClientHandler handles client requests
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// ListClients godoc
// @Summary      List clients
// @Description  Paginated client list, searchable by name, email, phone or company
// @Tags         clients
// @Produce      json
// @Param        q       query string false "Search text"
// @Param        page    query int    false "Page (default 1)"
// @Param        limit   query int    false "Page size (default 25, max 100)"
// @Param        ownerId query string false "Owner ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.Page[dto.ClientResponse]}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Router       /clients [get]
// @Security     BearerAuth
func (h *ClientHandler) ListClients(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var filter dto.ClientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, form.FromError(err))
		return
	}

	page, err := h.clientService.List(c.Request.Context(), p, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, page)
}

// GetClient godoc
// @Summary      Get client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.ClientResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /clients/{id} [get]
// @Security     BearerAuth
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, ok := pathID(c, "id", "client")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	client, err := h.clientService.Get(c.Request.Context(), p, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, client)
}

// CreateClient godoc
// @Summary      Create client
// @Description  Creates a client owned by the caller unless ownerId is given
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateClientRequest true "Client"
// @Success      201 {object} response.SuccessResponse{data=dto.ClientResponse}
// @Failure      400 {object} response.ErrorResponse "Per-field validation errors"
// @Failure      403 {object} response.ErrorResponse
// @Router       /clients [post]
// @Security     BearerAuth
func (h *ClientHandler) CreateClient(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateClientRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, client)
}

// UpdateClient godoc
// @Summary      Update client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Client ID (UUID)"
// @Param        request body dto.UpdateClientRequest true "Fields to change"
// @Success      200 {object} response.SuccessResponse{data=dto.ClientResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /clients/{id} [put]
// @Security     BearerAuth
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, ok := pathID(c, "id", "client")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, client)
}

// DeleteClient godoc
// @Summary      Delete client
// @Description  Admin only. Removes the client's attachments as well.
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=map[string]string}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /clients/{id} [delete]
// @Security     BearerAuth
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, ok := pathID(c, "id", "client")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.clientService.Delete(c.Request.Context(), p, id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, map[string]string{"message": "Client deleted successfully"})
}

// CountContacts godoc
// @Summary      Count client contacts
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.CountResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /clients/{id}/contacts/count [get]
// @Security     BearerAuth
func (h *ClientHandler) CountContacts(c *gin.Context) {
	id, ok := pathID(c, "id", "client")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	count, err := h.clientService.CountContacts(c.Request.Context(), p, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, count)
}
