// Package handlers exposes the StoryKeeper services over HTTP with the {success, error, error_type} envelope
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/services"
	"github.com/storykeeper/backend/internal/speech"
	"go.uber.org/zap"
)

// Values of the error_type field
const (
	ErrorTypeValidation     = "validation_error"
	ErrorTypeAuthentication = "authentication_required"
	ErrorTypeForbidden      = "forbidden"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeWrongState     = "wrong_state"
	ErrorTypeChunkTooLarge  = "chunk_too_large"
	ErrorTypeTranscription  = "transcription_failed"
	ErrorTypeRateLimited    = "rate_limited"
	ErrorTypeInvalidToken   = "invalid_token"
)

// Envelope is the body of successful responses, "success" is added by RespondSuccess
type Envelope map[string]any

// ErrorResponse is the body of failed responses
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
	// Category is set for transcription failures
	Category string `json:"category,omitempty"`
	Field    string `json:"field,omitempty"`
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondSuccess sends the success envelope with the given fields
func (h *BaseHandler) RespondSuccess(w http.ResponseWriter, status int, fields Envelope) {
	body := make(Envelope, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	h.RespondJSON(w, status, body)
}

// RespondError sends the failure envelope, errorType may be empty
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message, errorType string) {
	h.RespondJSON(w, status, ErrorResponse{Error: message, ErrorType: errorType})
}

// RespondServiceError maps a service error to a status code and error type.
// Unknown errors are logged and hidden behind a generic message.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, action string) {
	var validationErr *services.ValidationError
	var speechErr *speech.Error

	switch {
	case errors.As(err, &validationErr):
		h.RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Error(), ErrorType: ErrorTypeValidation, Field: validationErr.Field})
	case errors.As(err, &speechErr):
		h.Logger.Warn(action+" failed", zap.String("category", string(speechErr.Category)), zap.Error(err))
		h.RespondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: speechErr.Message, ErrorType: ErrorTypeTranscription, Category: string(speechErr.Category)})
	case errors.Is(err, services.ErrStoryNotFound), errors.Is(err, services.ErrUserNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error(), ErrorTypeNotFound)
	case errors.Is(err, services.ErrNotOwner):
		h.RespondError(w, http.StatusForbidden, err.Error(), ErrorTypeForbidden)
	case errors.Is(err, services.ErrChunkTooLarge):
		h.RespondError(w, http.StatusRequestEntityTooLarge, "audio chunk exceeds 7.5MB, please record shorter segments", ErrorTypeChunkTooLarge)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.RespondError(w, http.StatusUnauthorized, err.Error(), ErrorTypeAuthentication)
	case errors.Is(err, services.ErrTokenInvalid):
		h.RespondError(w, http.StatusUnauthorized, err.Error(), ErrorTypeInvalidToken)
	case errors.Is(err, services.ErrRateLimited):
		h.RespondError(w, http.StatusTooManyRequests, err.Error(), ErrorTypeRateLimited)
	default:
		h.Logger.Error(action+" failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, action+" failed", "")
	}
}

// RespondTransition reports a single lifecycle transition
func (h *BaseHandler) RespondTransition(w http.ResponseWriter, storyID int, result models.TransitionResult) {
	switch result {
	case models.TransitionApplied:
		h.RespondSuccess(w, http.StatusOK, Envelope{"story_id": storyID, "result": result})
	case models.TransitionNotFound:
		h.RespondError(w, http.StatusNotFound, "story not found", ErrorTypeNotFound)
	default:
		h.RespondError(w, http.StatusConflict, "story is not in a state allowing this action", ErrorTypeWrongState)
	}
}

// DecodeJSON decodes the request body into v
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body", ErrorTypeValidation)
		return false
	}
	return true
}

// PathID parses a positive integer URL parameter
func (h *BaseHandler) PathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid "+name+" parameter", ErrorTypeValidation)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter, 0 when absent or malformed
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}
