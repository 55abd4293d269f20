package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/whatsdesk/console/internal/middleware"
	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/pkg/logger"
	"github.com/whatsdesk/console/pkg/metrics"
)

// WebhookHandler hosts the inbound message intakes. Both intakes are thin
// adapters: they extract an InboundMessage from their payload format and
// hand it to the one shared pipeline.
type WebhookHandler struct {
	pipeline    *service.Pipeline
	verifyToken string
	logger      *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(pipeline *service.Pipeline, verifyToken string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		pipeline:    pipeline,
		verifyToken: verifyToken,
		logger:      log,
	}
}

// Verify handles GET /webhook, the Cloud API subscription handshake.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	writeError(w, http.StatusForbidden, "webhook verification failed")
}

// cloudAPIPayload mirrors the WhatsApp Business Cloud API webhook format.
type cloudAPIPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []struct {
					From      string `json:"from"`
					Type      string `json:"type"`
					Timestamp string `json:"timestamp"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Receive handles POST /webhook, the Cloud API message notifications. The
// provider retries non-200 responses, so once the payload parses the intake
// acknowledges regardless of per-message processing outcomes.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload cloudAPIPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					continue
				}

				receivedAt := time.Now()
				if secs, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil {
					receivedAt = time.Unix(secs, 0)
				}

				metrics.InboundMessagesTotal.WithLabelValues("cloud_api").Inc()
				_, err := h.pipeline.Process(r.Context(), model.InboundMessage{
					CustomerPhone: msg.From,
					CustomerName:  names[msg.From],
					Text:          msg.Text.Body,
					ReceivedAt:    receivedAt,
				})
				if err != nil {
					h.logger.Error("inbound message not ingested",
						zap.String("customer_phone", msg.From),
						zap.Error(err))
				}
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}

// directPayload is the alternate flat intake format used by integrations
// that pre-extract the message themselves.
type directPayload struct {
	CustomerPhone string `json:"customer_phone"`
	CustomerName  string `json:"customer_name,omitempty"`
	MessageText   string `json:"message_text"`
}

// ReceiveDirect handles POST /api/webhook, the token-guarded flat intake.
func (h *WebhookHandler) ReceiveDirect(w http.ResponseWriter, r *http.Request) {
	var payload directPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidatePhone(payload.CustomerPhone); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageText(payload.MessageText); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.InboundMessagesTotal.WithLabelValues("direct").Inc()
	result, err := h.pipeline.Process(r.Context(), model.InboundMessage{
		CustomerPhone: payload.CustomerPhone,
		CustomerName:  payload.CustomerName,
		Text:          payload.MessageText,
		ReceivedAt:    time.Now(),
	})
	if err != nil {
		writeServiceError(w, err, "failed to process message")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"conversation_id": result.Conversation.ID,
		"message":         result.Incoming,
		"reply":           result.Reply,
		"handoff":         result.Handoff,
	})
}
