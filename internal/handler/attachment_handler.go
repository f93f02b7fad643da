package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/form"
	"crm-api/internal/response"
	"crm-api/internal/service"
)

// AttachmentHandler handles attachment-related requests
type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// GeneratePresignedURL godoc
// @Summary      Presigned upload URL
// @Description  Returns an S3 PUT URL valid for 15 minutes and records a temporary attachment.
// @Description  Unconfirmed uploads are purged after one hour. Max 50MB.
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Param        request body dto.PresignedURLRequest true "File metadata"
// @Success      200 {object} response.SuccessResponse{data=dto.PresignedURLResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Router       /attachments/presigned-url [post]
// @Security     BearerAuth
func (h *AttachmentHandler) GeneratePresignedURL(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.PresignedURLRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.attachmentService.CreatePresignedURL(c.Request.Context(), p, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// ConfirmAttachments godoc
// @Summary      Confirm uploads
// @Description  Links temporary attachments uploaded by the caller to an entity the caller may update
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Param        entityType path string                         true "OPPORTUNITY|CLIENT|LEAD|PROJECT"
// @Param        entityId   path string                         true "Entity ID (UUID)"
// @Param        request    body dto.ConfirmAttachmentsRequest  true "Attachment IDs"
// @Success      200 {object} response.SuccessResponse{data=[]dto.AttachmentResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /attachments/{entityType}/{entityId}/confirm [post]
// @Security     BearerAuth
func (h *AttachmentHandler) ConfirmAttachments(c *gin.Context) {
	entityType, ok := entityTypeParam(c)
	if !ok {
		return
	}
	entityID, ok := pathID(c, "entityId", "entity")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req dto.ConfirmAttachmentsRequest
	if err := form.Bind(c, &req); err != nil {
		bindError(c, err)
		return
	}

	attachments, err := h.attachmentService.Confirm(c.Request.Context(), p, entityType, entityID, req.AttachmentIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, attachments)
}

// ListAttachments godoc
// @Summary      List attachments of an entity
// @Tags         attachments
// @Produce      json
// @Param        entityType path string true "OPPORTUNITY|CLIENT|LEAD|PROJECT"
// @Param        entityId   path string true "Entity ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.AttachmentResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Router       /attachments/{entityType}/{entityId} [get]
// @Security     BearerAuth
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	entityType, ok := entityTypeParam(c)
	if !ok {
		return
	}
	entityID, ok := pathID(c, "entityId", "entity")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	attachments, err := h.attachmentService.ListByEntity(c.Request.Context(), p, entityType, entityID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, attachments)
}

// DeleteAttachment godoc
// @Summary      Delete attachment
// @Description  Removes the S3 object and the record. Only the uploader or an admin may delete.
// @Tags         attachments
// @Produce      json
// @Param        id path string true "Attachment ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=map[string]string}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /attachments/{id} [delete]
// @Security     BearerAuth
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	id, ok := pathID(c, "id", "attachment")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), p, id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, map[string]string{"message": "Attachment deleted successfully"})
}

func entityTypeParam(c *gin.Context) (domain.EntityType, bool) {
	entityType, ok := domain.ParseEntityType(strings.ToUpper(c.Param("entityType")))
	if !ok {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid entity type")
		return "", false
	}
	return entityType, true
}
