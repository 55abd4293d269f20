package service

import (
	"context"
	"time"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/store"
)

// EventKind is an analytics event recorded by the pipeline.
type EventKind string

const (
	EventNewConversation EventKind = "newConversation"
	EventAutoResponse    EventKind = "autoResponse"
	EventHandoff         EventKind = "handoff"
)

// Analytics folds pipeline events into the per-day counters. The date key is
// the deployment's local calendar date at the time of the event; the store
// applies increments atomically.
type Analytics struct {
	store store.AnalyticsStore
	now   func() time.Time
}

// NewAnalytics creates the analytics recorder.
func NewAnalytics(st store.AnalyticsStore) *Analytics {
	return &Analytics{store: st, now: time.Now}
}

// Today returns the current analytics date key.
func (a *Analytics) Today() string {
	return a.now().Format("2006-01-02")
}

// Record applies one event to today's counters.
func (a *Analytics) Record(ctx context.Context, kind EventKind) error {
	var delta model.AnalyticsDelta
	switch kind {
	case EventNewConversation:
		delta.TotalConversations = 1
	case EventAutoResponse:
		delta.AutoResponses = 1
	case EventHandoff:
		delta.Handoffs = 1
	default:
		return nil
	}
	return a.store.IncrementAnalytics(ctx, a.Today(), delta)
}

// RecordResponseTime folds one bot response-time sample into today's
// running mean.
func (a *Analytics) RecordResponseTime(ctx context.Context, sample time.Duration) error {
	if sample < 0 {
		sample = 0
	}
	return a.store.RecordResponseTime(ctx, a.Today(), sample)
}

// ByDate returns the counters for a single date; dates with no events yield
// a zero-valued row.
func (a *Analytics) ByDate(ctx context.Context, date string) (*model.Analytics, error) {
	return a.store.GetAnalytics(ctx, date)
}
