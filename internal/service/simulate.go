package service

import (
	"context"
	"fmt"

	"github.com/whatsdesk/console/internal/matcher"
	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/store"
)

// Simulator runs the keyword matcher against the current active responses
// without touching conversations, messages or analytics. It backs the
// dashboard's chat-preview tool.
type Simulator struct {
	store store.ResponseStore
}

// NewSimulator creates the matcher-only preview service.
func NewSimulator(st store.ResponseStore) *Simulator {
	return &Simulator{store: st}
}

// TestMessage returns the reply the bot would give for text, or ErrNotFound
// when no keyword matches. No stored state is mutated.
func (s *Simulator) TestMessage(ctx context.Context, text string) (*model.TestMessageResult, error) {
	active, err := s.store.ListActiveResponses(ctx)
	if err != nil {
		return nil, err
	}

	matched := matcher.Match(text, active)
	if matched == nil {
		return nil, fmt.Errorf("%w: no response matches", model.ErrNotFound)
	}
	return &model.TestMessageResult{
		ResponseText: matched.ResponseText,
		Category:     matched.Category,
	}, nil
}
