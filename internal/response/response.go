// Package response defines the JSON envelopes and application errors shared by handlers and services.
package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// localizedMessages is the Arabic text shown next to the English error message.
var localizedMessages = map[string]string{
	ErrCodeNotFound:      "العنصر المطلوب غير موجود",
	ErrCodeAlreadyExists: "العنصر موجود بالفعل",
	ErrCodeValidation:    "البيانات المدخلة غير صحيحة",
	ErrCodeUnauthorized:  "يجب تسجيل الدخول",
	ErrCodeForbidden:     "غير مسموح لك بتنفيذ هذا الإجراء",
	ErrCodeInternal:      "حدث خطأ في الخادم",
}

// LocalizedMessage returns the Arabic message for an error code.
func LocalizedMessage(code string) string {
	if msg, ok := localizedMessages[code]; ok {
		return msg
	}
	return localizedMessages[ErrCodeInternal]
}

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the error type returned by services.
type AppError struct {
	Code    string
	Message string
	Details string
	Fields  []FieldError
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

func NewValidationError(message, details string) *AppError {
	return NewAppError(ErrCodeValidation, message, details)
}

// NewFieldValidationError reports per-field validation failures.
func NewFieldValidationError(fields []FieldError) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

func NewNotFoundError(message, details string) *AppError {
	return NewAppError(ErrCodeNotFound, message, details)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, "")
}

func NewConflictError(message, details string) *AppError {
	return NewAppError(ErrCodeAlreadyExists, message, details)
}

func NewInternalError(message string, err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewAppError(ErrCodeInternal, message, details)
}

// SuccessResponse wraps successful payloads.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorDetail is the body of the "error" key.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// ErrorResponse wraps failures. Message carries the localized text.
type ErrorResponse struct {
	Error   interface{} `json:"error"`
	Message string      `json:"message,omitempty"`
}

func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{Data: data})
}

func SendError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error:   ErrorDetail{Code: code, Message: message},
		Message: LocalizedMessage(code),
	})
}

// SendAppError writes an AppError including any field errors.
func SendAppError(c *gin.Context, status int, err *AppError) {
	c.JSON(status, ErrorResponse{
		Error:   ErrorDetail{Code: err.Code, Message: err.Message, Fields: err.Fields},
		Message: LocalizedMessage(err.Code),
	})
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, code, message string) {
	SendError(c, status, code, message)
	c.Abort()
}
