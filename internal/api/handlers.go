package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartconfig/configurator-engine/internal/cart"
	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/session"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondDomainError maps domain errors to HTTP responses. action names the
// operation for the fallback log line.
func respondDomainError(w http.ResponseWriter, err error, action string) {
	var fieldErr *cart.FieldError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, session.ErrInvalidMode),
		errors.Is(err, session.ErrInvalidStep),
		errors.Is(err, session.ErrAtInitialStep),
		errors.Is(err, session.ErrNoRobotSelected):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.As(err, &fieldErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Error: &apiError{
				Code:    "validation_error",
				Message: fieldErr.Message,
				Field:   fieldErr.Field,
			},
		})
	case errors.Is(err, cart.ErrEmpty):
		respondError(w, http.StatusBadRequest, "empty_cart", "no configurations to submit")
	case errors.Is(err, cart.ErrIndexOutOfRange),
		errors.Is(err, cart.ErrItemMismatch):
		respondError(w, http.StatusConflict, "cart_conflict", err.Error())
	case errors.Is(err, catalog.ErrUnauthorized):
		slog.Error("catalog backend rejected credentials", "action", action, "error", err)
		respondError(w, http.StatusBadGateway, "backend_error", "catalog backend rejected the request")
	default:
		slog.Error("request failed", "action", action, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "database not ready")
		return
	}

	if s.cache != nil {
		if err := s.cache.HealthCheck(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", "cache not ready")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
