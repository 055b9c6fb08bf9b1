package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"schoolhub/internal/guard"
	"schoolhub/internal/logger"
	"schoolhub/internal/session"
	"schoolhub/pkg/interfaces"
	"schoolhub/pkg/types"
)

// ErrForbidden reports an authenticated caller acting on a resource it does not own
var ErrForbidden = errors.New("forbidden")

// FieldError describes one rejected request field
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// writeJSON encodes data with the given status
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// FUNCTIONAL DISCOVERY: Consistent error response format
func writeError(w http.ResponseWriter, status int, message string, fields ...FieldError) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Message: message,
		Fields:  fields,
	})
}

// writeDomainError maps sentinel errors from the lower layers onto HTTP statuses
// ARCHITECTURAL DISCOVERY: Handlers never inspect error strings; every layer wraps a
// sentinel and this is the single translation point
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		writeError(w, http.StatusBadRequest, "validation failed", s.validator.fieldErrors(validationErrs)...)
	case errors.Is(err, guard.ErrAccessDenied), errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, interfaces.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, interfaces.ErrNotFound):
		writeError(w, http.StatusNotFound, fallback+" not found")
	case errors.Is(err, interfaces.ErrConflict):
		writeError(w, http.StatusConflict, fallback+" already exists")
	case errors.Is(err, session.ErrInvalidRole), errors.Is(err, session.ErrPasswordTooShort),
		errors.Is(err, types.ErrInvalidEmotion), errors.Is(err, types.ErrInvalidIntensity),
		errors.Is(err, types.ErrInvalidDayOfWeek), errors.Is(err, types.ErrInvalidClockTime):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.FromContext(r.Context(), s.logger).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
