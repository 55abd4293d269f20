// Package model defines the data structures for the messaging console.
package model

import (
	"time"
)

// ConversationStatus represents the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusActive      ConversationStatus = "active"
	StatusClosed      ConversationStatus = "closed"
	StatusTransferred ConversationStatus = "transferred"
)

// Conversation is the message thread with one customer phone number.
// At most one non-closed conversation exists per CustomerPhone.
type Conversation struct {
	ID            string             `json:"id"`
	CustomerPhone string             `json:"customer_phone"`
	CustomerName  string             `json:"customer_name,omitempty"`
	Status        ConversationStatus `json:"status"`
	LastMessage   string             `json:"last_message,omitempty"`
	LastMessageAt time.Time          `json:"last_message_at"`
	UnreadCount   int                `json:"unread_count"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ConversationPatch is a partial update to a conversation. Nil fields are
// left untouched.
type ConversationPatch struct {
	CustomerName  *string             `json:"customer_name,omitempty"`
	Status        *ConversationStatus `json:"status,omitempty"`
	LastMessage   *string             `json:"last_message,omitempty"`
	LastMessageAt *time.Time          `json:"last_message_at,omitempty"`
	UnreadCount   *int                `json:"unread_count,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
