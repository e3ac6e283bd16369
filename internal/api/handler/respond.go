package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/remindly/issue-reminder/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// mapError translates domain sentinel errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise. Webhook callers
// only ever act on the status code; the body carries no detail beyond the
// sentinel message.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadSignature):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrMalformedEvent),
		errors.Is(err, domain.ErrStaleEvent):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
