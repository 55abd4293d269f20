package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/whatsdesk/console/internal/middleware"
	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.Conversations
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.Conversations, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("status") == "active"

	convs, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("failed to list conversations")
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, model.ListConversationsResponse{
		Conversations: convs,
		Total:         len(convs),
	})
}

// Get handles GET /api/conversations/:id
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// MarkRead handles PATCH /api/conversations/:id/read
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, h.service.MarkRead)
}

// Close handles PATCH /api/conversations/:id/close
func (h *ConversationHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, h.service.Close)
}

// Transfer handles PATCH /api/conversations/:id/transfer
func (h *ConversationHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, h.service.Transfer)
}

func (h *ConversationHandler) patch(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*model.Conversation, error)) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to update conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
