package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/store"
	"github.com/whatsdesk/console/pkg/logger"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls int
}

func (s *recordingSender) Send(_ context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return errors.New("provider unavailable")
	}
	s.sent = append(s.sent, text)
	return nil
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func testPipeline(t *testing.T, st store.Store, snd *recordingSender) *Pipeline {
	t.Helper()
	return NewPipeline(st, snd, nil, testLogger(), time.Second)
}

func configure(t *testing.T, st store.Store, autoResponses, businessHours, autoHandoff bool) {
	t.Helper()
	if _, err := st.UpdateSettings(context.Background(), model.SettingsPatch{
		AutoResponses: &autoResponses,
		BusinessHours: &businessHours,
		AutoHandoff:   &autoHandoff,
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
}

func addResponse(t *testing.T, st store.Store, text string, keywords ...string) {
	t.Helper()
	if err := st.CreateResponse(context.Background(), &model.PredefinedResponse{
		Keywords:     keywords,
		ResponseText: text,
		IsActive:     true,
	}); err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
}

func TestProcessAutoReply(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, true, false, false)
	addResponse(t, st, "¡Hola! ¿En qué podemos ayudarte?", "hola")

	snd := &recordingSender{}
	p := testPipeline(t, st, snd)

	result, err := p.Process(context.Background(), model.InboundMessage{
		CustomerPhone: "+5491112345678",
		Text:          "Hola, buenas",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	p.Wait()

	if !result.Created {
		t.Error("expected a new conversation")
	}
	if result.Reply == nil || result.Reply.MessageText != "¡Hola! ¿En qué podemos ayudarte?" {
		t.Fatalf("expected keyword reply, got %+v", result.Reply)
	}
	if !result.Reply.IsFromBot || result.Reply.MessageType != model.MessageBot {
		t.Errorf("reply must be a bot message, got %+v", result.Reply)
	}

	msgs, err := st.ListMessages(context.Background(), result.Conversation.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected incoming + bot message, got %d", len(msgs))
	}
	if msgs[0].MessageType != model.MessageIncoming || msgs[1].MessageType != model.MessageBot {
		t.Errorf("unexpected message order: %v then %v", msgs[0].MessageType, msgs[1].MessageType)
	}

	conv, err := st.GetConversation(context.Background(), result.Conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv.UnreadCount != 0 {
		t.Errorf("auto-reply must reset unread count, got %d", conv.UnreadCount)
	}
	if conv.LastMessage != result.Reply.MessageText {
		t.Errorf("last message not updated to the reply: %q", conv.LastMessage)
	}

	stats, _ := st.GetAnalytics(context.Background(), time.Now().Format("2006-01-02"))
	if stats.AutoResponses != 1 {
		t.Errorf("autoResponses = %d, want 1", stats.AutoResponses)
	}
	if stats.TotalConversations != 1 {
		t.Errorf("totalConversations = %d, want 1", stats.TotalConversations)
	}

	snd.mu.Lock()
	defer snd.mu.Unlock()
	if len(snd.sent) != 1 || snd.sent[0] != result.Reply.MessageText {
		t.Errorf("sender received %v, want the reply text", snd.sent)
	}
}

func TestProcessAutoResponsesDisabled(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, false, false, false)
	addResponse(t, st, "¡Hola!", "hola")

	snd := &recordingSender{}
	p := testPipeline(t, st, snd)

	result, err := p.Process(context.Background(), model.InboundMessage{
		CustomerPhone: "+5491112345678",
		Text:          "Hola, buenas",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	p.Wait()

	if result.Reply != nil {
		t.Errorf("expected no reply, got %+v", result.Reply)
	}
	msgs, _ := st.ListMessages(context.Background(), result.Conversation.ID)
	if len(msgs) != 1 || msgs[0].MessageType != model.MessageIncoming {
		t.Fatalf("expected 1 incoming message only, got %d", len(msgs))
	}

	conv, _ := st.GetConversation(context.Background(), result.Conversation.ID)
	if conv.UnreadCount != 1 {
		t.Errorf("unread count = %d, want 1", conv.UnreadCount)
	}

	stats, _ := st.GetAnalytics(context.Background(), time.Now().Format("2006-01-02"))
	if stats.AutoResponses != 0 {
		t.Errorf("autoResponses = %d, want 0", stats.AutoResponses)
	}
	if snd.calls != 0 {
		t.Errorf("sender called %d times, want 0", snd.calls)
	}
}

func TestProcessHandoff(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, true, false, true)
	addResponse(t, st, "catálogo", "catalogo")

	p := testPipeline(t, st, &recordingSender{})

	result, err := p.Process(context.Background(), model.InboundMessage{
		CustomerPhone: "+5491112345678",
		Text:          "necesito hablar con una persona",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	p.Wait()

	if !result.Handoff {
		t.Error("expected a handoff")
	}
	if result.Reply != nil {
		t.Errorf("expected no bot reply, got %+v", result.Reply)
	}

	conv, _ := st.GetConversation(context.Background(), result.Conversation.ID)
	if conv.Status != model.StatusActive {
		t.Errorf("handoff must leave status active, got %s", conv.Status)
	}
	if conv.UnreadCount != 1 {
		t.Errorf("unread count = %d, want 1", conv.UnreadCount)
	}

	stats, _ := st.GetAnalytics(context.Background(), time.Now().Format("2006-01-02"))
	if stats.Handoffs != 1 {
		t.Errorf("handoffs = %d, want 1", stats.Handoffs)
	}
}

func TestProcessNoHandoffWhenDisabled(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, true, false, false)

	p := testPipeline(t, st, &recordingSender{})

	result, err := p.Process(context.Background(), model.InboundMessage{
		CustomerPhone: "+5491112345678",
		Text:          "sin coincidencias",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Handoff {
		t.Error("expected no handoff")
	}

	stats, _ := st.GetAnalytics(context.Background(), time.Now().Format("2006-01-02"))
	if stats.Handoffs != 0 {
		t.Errorf("handoffs = %d, want 0", stats.Handoffs)
	}
}

func TestProcessReusesOpenConversation(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, true, false, false)

	p := testPipeline(t, st, &recordingSender{})
	ctx := context.Background()

	first, err := p.Process(ctx, model.InboundMessage{CustomerPhone: "+5491112345678", Text: "primer mensaje"})
	if err != nil {
		t.Fatalf("Process first: %v", err)
	}
	second, err := p.Process(ctx, model.InboundMessage{CustomerPhone: "+5491112345678", Text: "segundo mensaje"})
	if err != nil {
		t.Fatalf("Process second: %v", err)
	}
	p.Wait()

	if second.Created {
		t.Error("second message must not create a conversation")
	}
	if first.Conversation.ID != second.Conversation.ID {
		t.Errorf("conversation ids differ: %s vs %s", first.Conversation.ID, second.Conversation.ID)
	}

	msgs, _ := st.ListMessages(ctx, first.Conversation.ID)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].MessageText != "primer mensaje" || msgs[1].MessageText != "segundo mensaje" {
		t.Error("messages out of arrival order")
	}
	if msgs[1].Timestamp.Before(msgs[0].Timestamp) {
		t.Error("timestamps not monotonic")
	}

	conv, _ := st.GetConversation(ctx, first.Conversation.ID)
	if conv.UnreadCount != 2 {
		t.Errorf("unread count = %d, want 2", conv.UnreadCount)
	}

	stats, _ := st.GetAnalytics(ctx, time.Now().Format("2006-01-02"))
	if stats.TotalConversations != 1 {
		t.Errorf("totalConversations = %d, want 1", stats.TotalConversations)
	}
}

func TestProcessOutOfHours(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, true, true, false)
	addResponse(t, st, "¡Hola!", "hola")

	p := testPipeline(t, st, &recordingSender{})
	p.now = func() time.Time {
		return time.Date(2024, 3, 1, 22, 30, 0, 0, time.Local)
	}

	result, err := p.Process(context.Background(), model.InboundMessage{
		CustomerPhone: "+5491112345678",
		Text:          "hola",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	p.Wait()

	settings, _ := st.GetSettings(context.Background())
	if result.Reply == nil || result.Reply.MessageText != settings.OutOfHoursMessage {
		t.Fatalf("expected the out-of-hours reply, got %+v", result.Reply)
	}
}

func TestProcessDeliveryFailureIsNotFatal(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, true, false, false)
	addResponse(t, st, "¡Hola!", "hola")

	snd := &recordingSender{fail: true}
	p := testPipeline(t, st, snd)

	result, err := p.Process(context.Background(), model.InboundMessage{
		CustomerPhone: "+5491112345678",
		Text:          "hola",
	})
	if err != nil {
		t.Fatalf("delivery failure must not fail ingestion: %v", err)
	}
	p.Wait()

	// The bot message stays durable even though the send failed.
	msgs, _ := st.ListMessages(context.Background(), result.Conversation.ID)
	if len(msgs) != 2 {
		t.Fatalf("expected incoming + bot message, got %d", len(msgs))
	}
	if snd.calls != 1 {
		t.Errorf("sender called %d times, want 1", snd.calls)
	}
}

func TestProcessEmptyPhone(t *testing.T) {
	st := store.NewMemoryStore()
	p := testPipeline(t, st, &recordingSender{})

	_, err := p.Process(context.Background(), model.InboundMessage{CustomerPhone: "  ", Text: "hola"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	convs, _ := st.ListConversations(context.Background())
	if len(convs) != 0 {
		t.Errorf("no conversation may be created, got %d", len(convs))
	}
}

func TestProcessRecordsResponseTime(t *testing.T) {
	st := store.NewMemoryStore()
	configure(t, st, true, false, false)
	addResponse(t, st, "¡Hola!", "hola")

	p := testPipeline(t, st, &recordingSender{})

	base := time.Now().Add(-2 * time.Second)
	if _, err := p.Process(context.Background(), model.InboundMessage{
		CustomerPhone: "+5491112345678",
		Text:          "hola",
		ReceivedAt:    base,
	}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	p.Wait()

	stats, _ := st.GetAnalytics(context.Background(), time.Now().Format("2006-01-02"))
	if stats.ResponseSamples != 1 {
		t.Fatalf("response samples = %d, want 1", stats.ResponseSamples)
	}
	if stats.AvgResponseTime < 1000 {
		t.Errorf("avg response time = %.0fms, want >= 2000ms-ish", stats.AvgResponseTime)
	}
}
