package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Provider errors
// surface only their generic message; the cause stays in the logs.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.IsStateConflictError(err), domain.IsItemUnavailableError(err),
		errors.Is(err, domain.ErrLivePaymentExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoActiveConfig):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case domain.IsProviderError(err):
		logger.Error("Provider error surfaced to caller", "error", errors.Unwrap(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		logger.Error("Unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
