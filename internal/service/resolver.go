// Package service provides the business logic for the messaging console.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/store"
)

// Resolver finds or creates the conversation for an inbound event. It never
// mutates an existing conversation; mutation belongs to the pipeline.
type Resolver struct {
	store store.ConversationStore
}

// NewResolver creates a conversation resolver.
func NewResolver(st store.ConversationStore) *Resolver {
	return &Resolver{store: st}
}

// Resolve returns the open conversation for phone, creating one when none
// exists. The boolean reports whether a new conversation was created. The
// store guarantees at most one creation per phone under concurrent calls.
func (r *Resolver) Resolve(ctx context.Context, phone, nameHint string) (*model.Conversation, bool, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, false, fmt.Errorf("%w: customer phone is required", model.ErrValidation)
	}
	return r.store.FindOrCreateConversation(ctx, phone, nameHint)
}
