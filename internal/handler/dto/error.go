package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/taskescrow/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Creation-time validation
	case errors.Is(err, domain.ErrInvalidReward):
		return http.StatusUnprocessableEntity, "INVALID_REWARD", message
	case errors.Is(err, domain.ErrEmptyDescription):
		return http.StatusUnprocessableEntity, "EMPTY_DESCRIPTION", message

	// Task errors
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message

	// Assignment guards
	case errors.Is(err, domain.ErrAlreadyAssigned):
		return http.StatusConflict, "ALREADY_ASSIGNED", message
	case errors.Is(err, domain.ErrSelfAssignment):
		return http.StatusForbidden, "SELF_ASSIGNMENT_FORBIDDEN", message

	// Completion guards
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "UNAUTHORIZED", message
	case errors.Is(err, domain.ErrNoFreelancer):
		return http.StatusConflict, "NO_FREELANCER_ASSIGNED", message
	case errors.Is(err, domain.ErrAlreadyCompleted):
		return http.StatusConflict, "ALREADY_COMPLETED", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
