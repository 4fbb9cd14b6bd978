package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/ender-auth/internal/auth"
	"github.com/isdelr/ender-auth/internal/services"
)

// EventHandler handles HTTP requests related to account activity.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get the caller's recent activity.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, please login")
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	events, err := h.service.GetRecentEvents(r.Context(), accountID, limit)
	if err != nil {
		writeError(w, r, "recent activity", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
