// Package handler provides the HTTP and websocket handlers of the CRM API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-api/internal/authz"
	"crm-api/internal/middleware"
	"crm-api/internal/response"
)

// handleServiceError maps service layer errors to HTTP responses. The error is
// attached to the gin context so the request logger records it.
func handleServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Resource not found")
		return
	}

	var appErr *response.AppError
	if errors.As(err, &appErr) {
		status := mapErrorCodeToHTTPStatus(appErr.Code)
		if status == http.StatusInternalServerError {
			// details carry driver errors
			response.SendError(c, status, appErr.Code, appErr.Message)
			return
		}
		response.SendAppError(c, status, appErr)
		return
	}

	response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(code string) int {
	switch code {
	case response.ErrCodeNotFound:
		return http.StatusNotFound
	case response.ErrCodeAlreadyExists:
		return http.StatusConflict
	case response.ErrCodeValidation:
		return http.StatusBadRequest
	case response.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case response.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// currentPrincipal returns the caller, writing a 401 when the auth middleware did not run
func currentPrincipal(c *gin.Context) (authz.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User ID not found in context")
		return authz.Principal{}, false
	}
	return p, true
}

// pathID parses a uuid path parameter, writing a 400 when it is malformed
func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindError writes the 400 for a failed form.Bind or query binding
func bindError(c *gin.Context, err error) {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		response.SendAppError(c, http.StatusBadRequest, appErr)
		return
	}
	response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
}

// requirePermission writes a 403 when p may not perform action on resource
func requirePermission(c *gin.Context, p authz.Principal, action authz.Action, resource authz.Resource) bool {
	if !authz.Can(p, action, resource, nil) {
		response.SendError(c, http.StatusForbidden, response.ErrCodeForbidden, response.LocalizedMessage(response.ErrCodeForbidden))
		return false
	}
	return true
}
