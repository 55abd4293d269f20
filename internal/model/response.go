package model

import (
	"time"
)

// PredefinedResponse is an operator-authored rule mapping trigger keywords
// to a canned reply. Keywords are stored lower-cased.
type PredefinedResponse struct {
	ID           string    `json:"id"`
	Keywords     []string  `json:"keywords"`
	ResponseText string    `json:"response_text"`
	Category     string    `json:"category,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateResponseRequest is the request to create a predefined response.
type CreateResponseRequest struct {
	Keywords     []string `json:"keywords"`
	ResponseText string   `json:"response_text"`
	Category     string   `json:"category,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// ResponsePatch is a partial update to a predefined response.
type ResponsePatch struct {
	Keywords     []string `json:"keywords,omitempty"`
	ResponseText *string  `json:"response_text,omitempty"`
	Category     *string  `json:"category,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// TestMessageResult is the matcher-only preview result used by the
// dashboard chat-preview tool.
type TestMessageResult struct {
	ResponseText string `json:"response_text"`
	Category     string `json:"category,omitempty"`
}
