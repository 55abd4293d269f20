package handler

import (
	"net/http"

	"github.com/whatsdesk/console/internal/events"
	"github.com/whatsdesk/console/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store  store.Store
	events *events.Publisher
}

// NewHealthHandler creates a new health handler. pub may be nil.
func NewHealthHandler(st store.Store, pub *events.Publisher) *HealthHandler {
	return &HealthHandler{store: st, events: pub}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.GetSettings(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "store unavailable",
		})
		return
	}

	if h.events != nil && !h.events.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "event broker not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
