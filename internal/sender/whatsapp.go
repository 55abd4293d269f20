package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/whatsdesk/console/internal/model"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

// WhatsApp sends messages through the WhatsApp Business Cloud API.
type WhatsApp struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	client        *http.Client
}

// NewWhatsApp creates a Cloud API sender. timeout bounds each send attempt.
func NewWhatsApp(accessToken, phoneNumberID string, timeout time.Duration) *WhatsApp {
	return &WhatsApp{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultBaseURL,
		client:        &http.Client{Timeout: timeout},
	}
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	To               string       `json:"to,omitempty"`
	Type             string       `json:"type,omitempty"`
	Text             *textPayload `json:"text,omitempty"`
	Status           string       `json:"status,omitempty"`
	MessageID        string       `json:"message_id,omitempty"`
}

// Send delivers a text message to the given phone number.
func (w *WhatsApp) Send(ctx context.Context, to, text string) error {
	return w.post(ctx, sendPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textPayload{PreviewURL: false, Body: text},
	})
}

// MarkRead reports a provider message as read.
func (w *WhatsApp) MarkRead(ctx context.Context, messageID string) error {
	return w.post(ctx, sendPayload{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	})
}

func (w *WhatsApp) post(ctx context.Context, payload sendPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: whatsapp api status %d", model.ErrDelivery, resp.StatusCode)
	}
	return nil
}
