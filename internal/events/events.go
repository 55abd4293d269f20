// Package events publishes conversation events to NATS JetStream so
// dashboards and audit consumers can follow activity without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/pkg/logger"
)

const (
	// StreamName is the name of the conversation events stream.
	StreamName = "WA_EVENTS"

	// SubjectPrefix is the prefix for all event subjects.
	SubjectPrefix = "wa"
)

// Kind identifies the event type.
type Kind string

const (
	KindMessageStored Kind = "message.stored"
	KindReplySent     Kind = "reply.sent"
	KindHandoff       Kind = "handoff"
)

// Event is one entry on the conversation event stream.
type Event struct {
	Kind           Kind           `json:"kind"`
	ConversationID string         `json:"conversation_id"`
	CustomerPhone  string         `json:"customer_phone"`
	Message        *model.Message `json:"message,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Publisher writes events to JetStream. A nil Publisher is a valid no-op,
// so the server runs without a broker configured.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes the NATS connection and ensures the stream exists.
func Connect(ctx context.Context, url string, log *logger.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &Publisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Conversation activity events",
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// Subject returns the subject for an event.
func Subject(conversationID string, kind Kind) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, conversationID, kind)
}

// Publish writes one event. Failures are the caller's to log; they never
// affect pipeline outcomes.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, Subject(event.ConversationID, event.Kind), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// IsConnected reports whether the publisher has a live connection.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}
