package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/whatsdesk/console/internal/events"
	"github.com/whatsdesk/console/internal/matcher"
	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/sender"
	"github.com/whatsdesk/console/internal/store"
	"github.com/whatsdesk/console/pkg/logger"
	"github.com/whatsdesk/console/pkg/metrics"
)

// Pipeline processes inbound customer messages: it resolves the
// conversation, persists the message, consults the bot settings, runs the
// keyword matcher and either auto-replies or flags the conversation for a
// human operator.
//
// Persisting the inbound message is the durability checkpoint. Everything
// after it degrades to "message stored, no reply" on failure; only a
// resolve or inbound-persist failure makes the event not ingested.
type Pipeline struct {
	store     store.Store
	resolver  *Resolver
	analytics *Analytics
	sender    sender.Sender
	events    *events.Publisher
	logger    *logger.Logger

	sendTimeout time.Duration
	now         func() time.Time
	sends       sync.WaitGroup
}

// NewPipeline wires the inbound message pipeline. pub may be nil when no
// event broker is configured.
func NewPipeline(st store.Store, snd sender.Sender, pub *events.Publisher, log *logger.Logger, sendTimeout time.Duration) *Pipeline {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Pipeline{
		store:       st,
		resolver:    NewResolver(st),
		analytics:   NewAnalytics(st),
		sender:      snd,
		events:      pub,
		logger:      log,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Result describes what one inbound event produced.
type Result struct {
	Conversation *model.Conversation
	Incoming     *model.Message
	Reply        *model.Message
	Created      bool
	Handoff      bool
}

// Process ingests one inbound event. A nil error means the inbound message
// is durably stored, regardless of whether a reply was produced.
func (p *Pipeline) Process(ctx context.Context, event model.InboundMessage) (*Result, error) {
	conv, created, err := p.resolver.Resolve(ctx, event.CustomerPhone, event.CustomerName)
	if err != nil {
		return nil, err
	}
	log := p.logger.WithConversation(conv.ID, conv.CustomerPhone)

	receivedAt := event.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = p.now()
	}

	incoming := &model.Message{
		ConversationID: conv.ID,
		MessageText:    event.Text,
		MessageType:    model.MessageIncoming,
		IsFromBot:      false,
		Timestamp:      receivedAt,
	}
	if err := p.store.CreateMessage(ctx, incoming); err != nil {
		return nil, fmt.Errorf("store inbound message: %w", err)
	}

	// Durability checkpoint passed. Everything below is best-effort.
	result := &Result{Conversation: conv, Incoming: incoming, Created: created}

	unread := conv.UnreadCount + 1
	if updated := p.touchConversation(ctx, log, conv.ID, incoming, &unread); updated != nil {
		result.Conversation = updated
		conv = updated
	}

	if created {
		metrics.ConversationsCreatedTotal.Inc()
		if err := p.analytics.Record(ctx, EventNewConversation); err != nil {
			log.Warn("analytics newConversation failed", zap.Error(err))
		}
	}
	p.publish(ctx, log, events.Event{
		Kind:           events.KindMessageStored,
		ConversationID: conv.ID,
		CustomerPhone:  conv.CustomerPhone,
		Message:        incoming,
	})

	// One settings snapshot per event; concurrent settings updates must not
	// change the decision mid-flight.
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		log.Warn("settings lookup failed, storing without reply", zap.Error(err))
		return result, nil
	}
	if !settings.AutoResponses {
		return result, nil
	}

	if settings.BusinessHours && !settings.WithinBusinessHours(p.now()) && settings.OutOfHoursMessage != "" {
		result.Reply = p.reply(ctx, log, conv, incoming, settings.OutOfHoursMessage, "out_of_hours")
		return result, nil
	}

	active, err := p.store.ListActiveResponses(ctx)
	if err != nil {
		log.Warn("loading active responses failed, storing without reply", zap.Error(err))
		return result, nil
	}

	start := time.Now()
	matched := matcher.Match(event.Text, active)
	metrics.MatchDuration.Observe(time.Since(start).Seconds())

	if matched != nil {
		result.Reply = p.reply(ctx, log, conv, incoming, matched.ResponseText, "keyword")
		return result, nil
	}

	if settings.AutoHandoff {
		// Handoff keeps status active; the handoffs counter and the untouched
		// unread count are the operator-facing signal. The transferred status
		// stays reserved for operator-initiated transfers.
		result.Handoff = true
		metrics.HandoffsTotal.Inc()
		if err := p.analytics.Record(ctx, EventHandoff); err != nil {
			log.Warn("analytics handoff failed", zap.Error(err))
		}
		p.publish(ctx, log, events.Event{
			Kind:           events.KindHandoff,
			ConversationID: conv.ID,
			CustomerPhone:  conv.CustomerPhone,
		})
	}
	return result, nil
}

// reply stores a bot message, updates the conversation cache and analytics,
// and dispatches the outbound send. Failures are logged; nil is returned
// when the bot message could not be stored.
func (p *Pipeline) reply(ctx context.Context, log *logger.Logger, conv *model.Conversation, incoming *model.Message, text, kind string) *model.Message {
	bot := &model.Message{
		ConversationID: conv.ID,
		MessageText:    text,
		MessageType:    model.MessageBot,
		IsFromBot:      true,
		Timestamp:      p.now(),
	}
	if err := p.store.CreateMessage(ctx, bot); err != nil {
		log.Error("storing bot reply failed", zap.Error(err))
		return nil
	}

	zero := 0
	p.touchConversation(ctx, log, conv.ID, bot, &zero)

	metrics.AutoResponsesTotal.WithLabelValues(kind).Inc()
	if err := p.analytics.Record(ctx, EventAutoResponse); err != nil {
		log.Warn("analytics autoResponse failed", zap.Error(err))
	}
	if err := p.analytics.RecordResponseTime(ctx, bot.Timestamp.Sub(incoming.Timestamp)); err != nil {
		log.Warn("analytics response time failed", zap.Error(err))
	}
	p.publish(ctx, log, events.Event{
		Kind:           events.KindReplySent,
		ConversationID: conv.ID,
		CustomerPhone:  conv.CustomerPhone,
		Message:        bot,
	})

	p.dispatch(log, conv.CustomerPhone, text)
	return bot
}

// dispatch sends asynchronously so ingestion never waits on provider I/O.
// Each attempt is bounded by sendTimeout; failures are logged and counted,
// never retried here and never unwound into the pipeline.
func (p *Pipeline) dispatch(log *logger.Logger, to, text string) {
	p.sends.Add(1)
	go func() {
		defer p.sends.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
		defer cancel()

		if err := p.sender.Send(ctx, to, text); err != nil {
			metrics.DeliveryFailuresTotal.Inc()
			log.Error("outbound delivery failed", zap.Error(err))
		}
	}()
}

// Wait blocks until all in-flight outbound sends have finished. Used on
// shutdown and in tests.
func (p *Pipeline) Wait() {
	p.sends.Wait()
}

func (p *Pipeline) touchConversation(ctx context.Context, log *logger.Logger, id string, msg *model.Message, unread *int) *model.Conversation {
	updated, err := p.store.UpdateConversation(ctx, id, model.ConversationPatch{
		LastMessage:   &msg.MessageText,
		LastMessageAt: &msg.Timestamp,
		UnreadCount:   unread,
	})
	if err != nil {
		log.Warn("conversation cache update failed", zap.Error(err))
		return nil
	}
	return updated
}

func (p *Pipeline) publish(ctx context.Context, log *logger.Logger, event events.Event) {
	if err := p.events.Publish(ctx, event); err != nil {
		log.Warn("event publish failed", zap.Error(err))
	}
}
