package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/forms"
)

// ApiResponse is the standard envelope for JSON API responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ValidationErrorResponse writes a 400 carrying per-field validation errors.
func ValidationErrorResponse(w http.ResponseWriter, fieldErrors []forms.FieldError) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	return json.NewEncoder(w).Encode(map[string]any{
		"error":   "validation_error",
		"message": "Validation failed",
		"fields":  fieldErrors,
	})
}

// ServiceErrorResponse maps a service-layer error to its HTTP status and
// writes the response. Unknown errors become a 500 with a retryable message
// instead of leaking internals to the browser.
func ServiceErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error) {
	var writeErr error
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeErr = ErrorResponse(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrDuplicateName):
		writeErr = ErrorResponse(w, http.StatusConflict, "name_conflict", "A record with this name already exists")
	case errors.Is(err, apperrors.ErrTemplateInUse):
		writeErr = ErrorResponse(w, http.StatusConflict, "template_in_use", "Template is referenced by discovery sessions and cannot be deleted")
	case errors.Is(err, apperrors.ErrInvalidStage):
		writeErr = ErrorResponse(w, http.StatusBadRequest, "invalid_stage", "Stage is not valid for the opportunity type")
	case errors.Is(err, apperrors.ErrUnauthorized):
		writeErr = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	default:
		writeErr = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Something went wrong, please try again")
	}
	if writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
