package handler

import (
	"encoding/json"
	"net/http"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/pkg/logger"
)

// SettingsHandler handles bot settings endpoints.
type SettingsHandler struct {
	service *service.Settings
	logger  *logger.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(svc *service.Settings, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: svc,
		logger:  log,
	}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get settings")
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Update handles PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := h.service.Update(r.Context(), patch)
	if err != nil {
		writeServiceError(w, err, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
