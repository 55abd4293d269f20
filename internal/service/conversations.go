package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/sender"
	"github.com/whatsdesk/console/internal/store"
	"github.com/whatsdesk/console/pkg/logger"
	"github.com/whatsdesk/console/pkg/metrics"
)

// Conversations serves the dashboard's conversation and message operations.
type Conversations struct {
	store  store.Store
	sender sender.Sender
	logger *logger.Logger

	sendTimeout time.Duration
	sends       sync.WaitGroup
}

// NewConversations creates the conversation service.
func NewConversations(st store.Store, snd sender.Sender, log *logger.Logger, sendTimeout time.Duration) *Conversations {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Conversations{store: st, sender: snd, logger: log, sendTimeout: sendTimeout}
}

// List returns conversations, optionally filtered to active ones.
func (s *Conversations) List(ctx context.Context, activeOnly bool) ([]model.Conversation, error) {
	if activeOnly {
		return s.store.ListActiveConversations(ctx)
	}
	return s.store.ListConversations(ctx)
}

// Get returns one conversation by id.
func (s *Conversations) Get(ctx context.Context, id string) (*model.Conversation, error) {
	return s.store.GetConversation(ctx, id)
}

// Messages returns a conversation's messages in chronological order.
func (s *Conversations) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

// SendOperatorMessage stores an operator reply, marks the conversation read
// and dispatches delivery. An operator reply always resets the unread count.
func (s *Conversations) SendOperatorMessage(ctx context.Context, conversationID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", model.ErrValidation)
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		MessageText:    text,
		MessageType:    model.MessageOutgoing,
		IsFromBot:      false,
		Timestamp:      time.Now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	zero := 0
	if _, err := s.store.UpdateConversation(ctx, conv.ID, model.ConversationPatch{
		LastMessage:   &msg.MessageText,
		LastMessageAt: &msg.Timestamp,
		UnreadCount:   &zero,
	}); err != nil {
		s.logger.Warn("conversation cache update failed", zap.Error(err))
	}

	s.sends.Add(1)
	go func() {
		defer s.sends.Done()

		sendCtx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		defer cancel()

		if err := s.sender.Send(sendCtx, conv.CustomerPhone, text); err != nil {
			metrics.DeliveryFailuresTotal.Inc()
			s.logger.WithConversation(conv.ID, conv.CustomerPhone).
				Error("operator message delivery failed", zap.Error(err))
		}
	}()

	return msg, nil
}

// MarkRead resets a conversation's unread count.
func (s *Conversations) MarkRead(ctx context.Context, conversationID string) (*model.Conversation, error) {
	zero := 0
	return s.store.UpdateConversation(ctx, conversationID, model.ConversationPatch{UnreadCount: &zero})
}

// Close moves a conversation to the closed status. The next inbound message
// from the same phone opens a fresh conversation.
func (s *Conversations) Close(ctx context.Context, conversationID string) (*model.Conversation, error) {
	status := model.StatusClosed
	return s.store.UpdateConversation(ctx, conversationID, model.ConversationPatch{Status: &status})
}

// Transfer marks a conversation as handed to a human operator.
func (s *Conversations) Transfer(ctx context.Context, conversationID string) (*model.Conversation, error) {
	status := model.StatusTransferred
	return s.store.UpdateConversation(ctx, conversationID, model.ConversationPatch{Status: &status})
}

// Wait blocks until in-flight operator sends have finished.
func (s *Conversations) Wait() {
	s.sends.Wait()
}
