package handler

import (
	"encoding/json"
	"net/http"

	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/pkg/logger"
)

// SimulateHandler handles the chat-preview test endpoint.
type SimulateHandler struct {
	service *service.Simulator
	logger  *logger.Logger
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(svc *service.Simulator, log *logger.Logger) *SimulateHandler {
	return &SimulateHandler{
		service: svc,
		logger:  log,
	}
}

type testMessageRequest struct {
	Text string `json:"text"`
}

// Test handles POST /api/test-message. It runs the matcher alone and never
// creates conversations or messages.
func (h *SimulateHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req testMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.TestMessage(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, err, "failed to test message")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
