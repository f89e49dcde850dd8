package handlers

import (
	"net/http"
	"strconv"

	"github.com/lmarban/tasklane-be/internal/auth"
	"github.com/lmarban/tasklane-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ActivityHandler handles HTTP requests for the caller's activity feed.
type ActivityHandler struct {
	service services.ActivityServiceProvider
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(service services.ActivityServiceProvider) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// GetRecent returns the caller's most recent activity entries.
func (h *ActivityHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing auth token")
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	activities, err := h.service.RecentForUser(caller.UserID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", caller.UserID).Msg("Failed to retrieve activity")
		respondError(w, http.StatusInternalServerError, "failed to retrieve activity")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}
