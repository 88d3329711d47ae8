package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/gatehouse"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// WriteUnauthorized writes the single 401 response used for every
// credential failure, with Bearer and Basic challenges.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", "Bearer")
	w.Header().Add("WWW-Authenticate", `Basic realm="gatehouse"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized", "")
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gatehouse.ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		slog.Warn("request unauthorized")
		WriteUnauthorized(w)
	case errors.Is(err, gatehouse.ErrPathRejected):
		slog.Warn("path rejected", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
	case errors.Is(err, gatehouse.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	case errors.Is(err, gatehouse.ErrConflict):
		WriteError(w, http.StatusBadRequest, "conflict", "Already exists")
	case errors.Is(err, ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large")
	case errors.Is(err, gatehouse.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	case errors.Is(err, context.Canceled):
		slog.Info("request canceled", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
