// Package store provides persistence for the messaging console.
package store

import (
	"context"
	"time"

	"github.com/whatsdesk/console/internal/model"
)

// Store is the persistence contract consumed by the services. Implementations
// must guarantee at most one non-closed conversation per customer phone under
// concurrent FindOrCreateConversation calls, preserve per-conversation message
// order, and apply analytics increments atomically.
type Store interface {
	ConversationStore
	MessageStore
	ResponseStore
	SettingsStore
	AnalyticsStore

	Close() error
}

// ConversationStore manages conversation records.
type ConversationStore interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	ListActiveConversations(ctx context.Context) ([]model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)

	// FindOrCreateConversation returns the open (non-closed) conversation for
	// phone, creating it atomically when none exists. The second return value
	// reports whether a new conversation was created.
	FindOrCreateConversation(ctx context.Context, phone, name string) (*model.Conversation, bool, error)

	UpdateConversation(ctx context.Context, id string, patch model.ConversationPatch) (*model.Conversation, error)
}

// MessageStore manages the append-only message log.
type MessageStore interface {
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
}

// ResponseStore manages predefined responses.
type ResponseStore interface {
	ListResponses(ctx context.Context) ([]model.PredefinedResponse, error)
	// ListActiveResponses returns active responses ordered by CreatedAt
	// ascending, then ID, so keyword matching stays deterministic.
	ListActiveResponses(ctx context.Context) ([]model.PredefinedResponse, error)
	GetResponse(ctx context.Context, id string) (*model.PredefinedResponse, error)
	CreateResponse(ctx context.Context, resp *model.PredefinedResponse) error
	UpdateResponse(ctx context.Context, id string, patch model.ResponsePatch) (*model.PredefinedResponse, error)
	DeleteResponse(ctx context.Context, id string) error
}

// SettingsStore manages the singleton bot settings.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*model.BotSettings, error)
	UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.BotSettings, error)
}

// AnalyticsStore manages the per-day counters.
type AnalyticsStore interface {
	// GetAnalytics returns the row for date, or a zero-valued row when the
	// date has seen no events yet.
	GetAnalytics(ctx context.Context, date string) (*model.Analytics, error)
	// IncrementAnalytics applies delta to date's row, creating it on first use.
	IncrementAnalytics(ctx context.Context, date string, delta model.AnalyticsDelta) error
	// RecordResponseTime folds one sample into date's running mean.
	RecordResponseTime(ctx context.Context, date string, sample time.Duration) error
}

// DefaultSettings are the settings a fresh deployment starts with.
func DefaultSettings(id string) model.BotSettings {
	return model.BotSettings{
		ID:                 id,
		AutoResponses:      true,
		BusinessHours:      true,
		AutoHandoff:        false,
		BusinessHoursStart: "09:00",
		BusinessHoursEnd:   "18:00",
		OutOfHoursMessage:  "Gracias por contactarnos. Nuestro horario de atención es de 9:00 a 18:00. Te responderemos a la brevedad.",
	}
}
