package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tobyh/social-feed/internal/platform/apperror"
	"github.com/tobyh/social-feed/internal/platform/logger"
)

// ErrorResponse is the JSON shape every failure is reported with.
type ErrorResponse struct {
	Error        string `json:"error"`
	BusinessCode string `json:"business_code,omitempty"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
}

// BaseHandler contains common dependencies and helper methods for all handlers.
type BaseHandler struct {
	logger logger.Logger
}

// NewBaseHandler creates a new base handler with common dependencies.
func NewBaseHandler(logger logger.Logger) *BaseHandler {
	return &BaseHandler{logger: logger}
}

// WriteJSONResponse writes a successful JSON response.
func (h *BaseHandler) WriteJSONResponse(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(r.Context(), "failed to encode response",
			"error", err,
			"status_code", statusCode,
		)
	}
}

// WriteJSONError writes a JSON error response.
func (h *BaseHandler) WriteJSONError(w http.ResponseWriter, r *http.Request, code string, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:   code,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error(r.Context(), "failed to encode error response",
			"error", err,
			"error_code", code,
			"status_code", statusCode,
		)
	}
}

// HandleError maps an error to its JSON response. AppErrors keep their code
// pair and HTTP status; anything else becomes an internal server error.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(appErr.HTTPStatus)

		resp := ErrorResponse{
			Error:        string(appErr.Code),
			BusinessCode: string(appErr.BusinessCode),
			Message:      appErr.Message,
			Details:      appErr.Details,
		}
		if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
			h.logger.Error(r.Context(), "failed to encode error response", "error", encodeErr)
		}
		return
	}

	h.logger.Error(r.Context(), "unhandled error", "error", err)
	h.WriteJSONError(w, r, string(apperror.CodeInternalError), "internal server error", http.StatusInternalServerError)
}
