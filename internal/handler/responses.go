package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/whatsdesk/console/internal/middleware"
	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/pkg/logger"
)

// ResponseHandler handles predefined response endpoints.
type ResponseHandler struct {
	service *service.Responses
	logger  *logger.Logger
}

// NewResponseHandler creates a new predefined response handler.
func NewResponseHandler(svc *service.Responses, log *logger.Logger) *ResponseHandler {
	return &ResponseHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/responses
func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	resps, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list responses")
		writeError(w, http.StatusInternalServerError, "failed to list responses")
		return
	}
	writeJSON(w, http.StatusOK, resps)
}

// Get handles GET /api/responses/:id
func (h *ResponseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get response")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/responses
func (h *ResponseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "failed to create response")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Update handles PUT /api/responses/:id
func (h *ResponseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch model.ResponsePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err, "failed to update response")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/responses/:id
func (h *ResponseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete response")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
