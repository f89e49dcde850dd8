package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lmarban/tasklane-be/internal/validation"
	"github.com/rs/zerolog/log"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

// respondError writes a single-message error body, e.g. {"error": "task not found"}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondValidationError writes the field-keyed 400 body, e.g.
// {"password": ["passwords do not match"]}. It returns false when err is not
// a validation error so the caller can fall through to a 500.
func respondValidationError(w http.ResponseWriter, err error) bool {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return false
	}
	respondJSON(w, http.StatusBadRequest, errs)
	return true
}
