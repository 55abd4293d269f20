// Package sender delivers outbound messages to the messaging provider.
package sender

import (
	"context"
)

// Sender transmits a reply to a customer. The pipeline decides what to send;
// Sender owns the actual network delivery.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Noop is a Sender that discards everything. Used when provider credentials
// are not configured and in tests.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, text string) error {
	return nil
}
