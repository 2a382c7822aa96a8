package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		errors,
	)
}

// NewPathNotAllowed rejects request paths outside the server's root directory
func NewPathNotAllowed(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusForbidden,
		"PATH_NOT_ALLOWED",
		"Path outside the server root directory",
		errors,
	)
}

// FromAppError maps a pipeline error onto an HTTP error
func FromAppError(err *AppError) *APIError {
	status := http.StatusInternalServerError
	switch err.Type {
	case ErrTypeRead, ErrTypeValidation, ErrTypeTimestamp:
		status = http.StatusUnprocessableEntity
	case ErrTypeConfig:
		status = http.StatusBadRequest
	case ErrTypeCancelled:
		status = http.StatusServiceUnavailable
	}
	return NewWithDetails(status, string(err.Type), err.Message, causeText(err))
}

func causeText(err *AppError) interface{} {
	if err.Cause == nil {
		return nil
	}
	return fmt.Sprintf("%v", err.Cause)
}
