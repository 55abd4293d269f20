package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/whatsdesk/console/internal/sender"
	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/internal/store"
	"github.com/whatsdesk/console/pkg/logger"
)

func newTestWebhookHandler(t *testing.T) (*WebhookHandler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	log := &logger.Logger{Logger: zap.NewNop()}
	pipeline := service.NewPipeline(st, sender.Noop{}, nil, log, time.Second)
	return NewWebhookHandler(pipeline, "verify-me", log), st
}

func TestVerifyHandshake(t *testing.T) {
	h, _ := newTestWebhookHandler(t)

	r := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	h.Verify(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "12345" {
		t.Errorf("expected challenge echoed back, got %q", w.Body.String())
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	h, _ := newTestWebhookHandler(t)

	r := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	h.Verify(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestReceiveCloudAPIPayload(t *testing.T) {
	h, st := newTestWebhookHandler(t)

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"contacts": [{"profile": {"name": "Ana"}, "wa_id": "5491155550000"}],
					"messages": [
						{"from": "5491155550000", "type": "text", "timestamp": "1709290800", "text": {"body": "hola"}},
						{"from": "5491155550000", "type": "image", "timestamp": "1709290801"}
					]
				}
			}]
		}]
	}`
	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Receive(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	convs, err := st.ListConversations(r.Context())
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if convs[0].CustomerPhone != "5491155550000" || convs[0].CustomerName != "Ana" {
		t.Errorf("unexpected conversation: %+v", convs[0])
	}

	// Only the text message lands; the image notification is skipped.
	msgs, err := st.ListMessages(r.Context(), convs[0].ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageText != "hola" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if msgs[0].Timestamp.Unix() != 1709290800 {
		t.Errorf("provider timestamp not honored: %v", msgs[0].Timestamp)
	}
}

func TestReceiveRejectsMalformedBody(t *testing.T) {
	h, _ := newTestWebhookHandler(t)

	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Receive(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReceiveDirect(t *testing.T) {
	h, st := newTestWebhookHandler(t)

	body := `{"customer_phone": "+5491155550000", "customer_name": "Ana", "message_text": "quiero info"}`
	r := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ReceiveDirect(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ConversationID string `json:"conversation_id"`
		Handoff        bool   `json:"handoff"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID == "" {
		t.Error("expected conversation_id in response")
	}

	if _, err := st.GetConversation(r.Context(), resp.ConversationID); err != nil {
		t.Errorf("conversation not stored: %v", err)
	}
}

func TestReceiveDirectValidatesInput(t *testing.T) {
	h, _ := newTestWebhookHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing phone", `{"message_text": "hola"}`},
		{"missing text", `{"customer_phone": "+549115555"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.ReceiveDirect(w, r)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}
