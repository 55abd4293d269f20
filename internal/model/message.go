package model

import (
	"time"
)

// MessageType identifies the author of a message.
type MessageType string

const (
	// MessageIncoming is a message authored by the customer.
	MessageIncoming MessageType = "incoming"
	// MessageOutgoing is a message authored by a human operator.
	MessageOutgoing MessageType = "outgoing"
	// MessageBot is an automated reply.
	MessageBot MessageType = "bot"
)

// Message is one entry in a conversation. Messages are append-only and
// immutable once stored.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	MessageText    string      `json:"message_text"`
	MessageType    MessageType `json:"message_type"`
	IsFromBot      bool        `json:"is_from_bot"`
	Timestamp      time.Time   `json:"timestamp"`
}

// InboundMessage is the transport-agnostic inbound event the pipeline
// consumes. Webhook adapters extract exactly this from provider payloads.
type InboundMessage struct {
	CustomerPhone string    `json:"customer_phone"`
	CustomerName  string    `json:"customer_name,omitempty"`
	Text          string    `json:"text"`
	ReceivedAt    time.Time `json:"received_at"`
}

// SendMessageRequest is an operator reply submitted from the dashboard.
type SendMessageRequest struct {
	MessageText string `json:"message_text"`
}

// ListMessagesResponse is the response for listing a conversation's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
