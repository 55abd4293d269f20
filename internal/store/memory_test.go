package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/whatsdesk/console/internal/model"
)

func TestFindOrCreateConversation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	conv, created, err := s.FindOrCreateConversation(ctx, "+54911", "Ana")
	if err != nil {
		t.Fatalf("FindOrCreateConversation: %v", err)
	}
	if !created || conv.Status != model.StatusActive || conv.UnreadCount != 0 {
		t.Fatalf("unexpected new conversation: %+v", conv)
	}

	again, created, err := s.FindOrCreateConversation(ctx, "+54911", "")
	if err != nil {
		t.Fatalf("FindOrCreateConversation: %v", err)
	}
	if created || again.ID != conv.ID {
		t.Errorf("expected the same open conversation back, created=%v id=%s", created, again.ID)
	}

	// A transferred conversation is still open and must be reused.
	status := model.StatusTransferred
	if _, err := s.UpdateConversation(ctx, conv.ID, model.ConversationPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateConversation: %v", err)
	}
	again, created, _ = s.FindOrCreateConversation(ctx, "+54911", "")
	if created || again.ID != conv.ID {
		t.Error("transferred conversation must count as open")
	}
}

func TestMessageOrderPreserved(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	conv, _, err := s.FindOrCreateConversation(ctx, "+54911", "")
	if err != nil {
		t.Fatalf("FindOrCreateConversation: %v", err)
	}

	base := time.Now()
	for i := 0; i < 5; i++ {
		if err := s.CreateMessage(ctx, &model.Message{
			ConversationID: conv.ID,
			MessageText:    fmt.Sprintf("msg-%d", i),
			MessageType:    model.MessageIncoming,
			Timestamp:      base.Add(time.Duration(i) * time.Millisecond),
		}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	msgs, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.MessageText != fmt.Sprintf("msg-%d", i) {
			t.Fatalf("message %d out of order: %s", i, m.MessageText)
		}
	}
}

func TestCreateMessageUnknownConversation(t *testing.T) {
	s := NewMemoryStore()

	err := s.CreateMessage(context.Background(), &model.Message{
		ConversationID: "missing",
		MessageText:    "hola",
		MessageType:    model.MessageIncoming,
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResponsesActiveFilterAndOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	responses := []*model.PredefinedResponse{
		{ID: "b", Keywords: []string{"Envío", "envío"}, ResponseText: "b", IsActive: true, CreatedAt: base.Add(time.Minute)},
		{ID: "a", Keywords: []string{"hola"}, ResponseText: "a", IsActive: true, CreatedAt: base},
		{ID: "c", Keywords: []string{"precio"}, ResponseText: "c", IsActive: false, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range responses {
		if err := s.CreateResponse(ctx, r); err != nil {
			t.Fatalf("CreateResponse: %v", err)
		}
	}

	active, err := s.ListActiveResponses(ctx)
	if err != nil {
		t.Fatalf("ListActiveResponses: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active responses, got %d", len(active))
	}
	if active[0].ID != "a" || active[1].ID != "b" {
		t.Errorf("wrong order: %s, %s", active[0].ID, active[1].ID)
	}
	// Keywords are normalized and deduplicated.
	if len(active[1].Keywords) != 1 || active[1].Keywords[0] != "envío" {
		t.Errorf("keywords not normalized: %v", active[1].Keywords)
	}
}

func TestSettingsPatchMerge(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	off := false
	updated, err := s.UpdateSettings(ctx, model.SettingsPatch{AutoResponses: &off})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.AutoResponses {
		t.Error("autoResponses not updated")
	}
	// Untouched fields keep their defaults.
	if updated.BusinessHoursStart != "09:00" || updated.BusinessHoursEnd != "18:00" {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
}

func TestAnalyticsIncrements(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.IncrementAnalytics(ctx, "2024-03-01", model.AnalyticsDelta{TotalConversations: 1}); err != nil {
			t.Fatalf("IncrementAnalytics: %v", err)
		}
	}
	if err := s.IncrementAnalytics(ctx, "2024-03-01", model.AnalyticsDelta{AutoResponses: 1, Handoffs: 1}); err != nil {
		t.Fatalf("IncrementAnalytics: %v", err)
	}

	a, err := s.GetAnalytics(ctx, "2024-03-01")
	if err != nil {
		t.Fatalf("GetAnalytics: %v", err)
	}
	if a.TotalConversations != 3 || a.AutoResponses != 1 || a.Handoffs != 1 {
		t.Errorf("unexpected counters: %+v", a)
	}

	other, _ := s.GetAnalytics(ctx, "2024-03-02")
	if other.TotalConversations != 0 {
		t.Errorf("other dates must stay zero, got %+v", other)
	}
}

func TestDeleteResponse(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	r := &model.PredefinedResponse{Keywords: []string{"hola"}, ResponseText: "x", IsActive: true}
	if err := s.CreateResponse(ctx, r); err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	if err := s.DeleteResponse(ctx, r.ID); err != nil {
		t.Fatalf("DeleteResponse: %v", err)
	}
	if err := s.DeleteResponse(ctx, r.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
