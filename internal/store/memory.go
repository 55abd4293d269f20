package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whatsdesk/console/internal/model"
)

// MemoryStore is an in-memory Store used for development and tests. A single
// mutex covers every map, which also makes FindOrCreateConversation atomic.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message
	responses     map[string]*model.PredefinedResponse
	settings      model.BotSettings
	analytics     map[string]*model.Analytics
}

// NewMemoryStore creates an empty MemoryStore with default settings.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
		responses:     make(map[string]*model.PredefinedResponse),
		settings:      DefaultSettings(uuid.New().String()),
		analytics:     make(map[string]*model.Analytics),
	}
}

// Conversations

func (s *MemoryStore) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := make([]model.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		convs = append(convs, *c)
	}
	sortConversations(convs)
	return convs, nil
}

func (s *MemoryStore) ListActiveConversations(ctx context.Context) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []model.Conversation
	for _, c := range s.conversations {
		if c.Status == model.StatusActive {
			convs = append(convs, *c)
		}
	}
	sortConversations(convs)
	return convs, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, model.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) FindOrCreateConversation(ctx context.Context, phone, name string) (*model.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conversations {
		if c.CustomerPhone == phone && c.Status != model.StatusClosed {
			cp := *c
			return &cp, false, nil
		}
	}

	now := time.Now()
	conv := &model.Conversation{
		ID:            uuid.New().String(),
		CustomerPhone: phone,
		CustomerName:  name,
		Status:        model.StatusActive,
		LastMessageAt: now,
		UnreadCount:   0,
		CreatedAt:     now,
	}
	s.conversations[conv.ID] = conv

	cp := *conv
	return &cp, true, nil
}

func (s *MemoryStore) UpdateConversation(ctx context.Context, id string, patch model.ConversationPatch) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, model.ErrNotFound)
	}

	if patch.CustomerName != nil {
		c.CustomerName = *patch.CustomerName
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.LastMessage != nil {
		c.LastMessage = *patch.LastMessage
	}
	if patch.LastMessageAt != nil {
		c.LastMessageAt = *patch.LastMessageAt
	}
	if patch.UnreadCount != nil {
		c.UnreadCount = *patch.UnreadCount
	}

	cp := *c
	return &cp, nil
}

// Messages

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return fmt.Errorf("conversation %s: %w", msg.ConversationID, model.ErrNotFound)
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

// Predefined responses

func (s *MemoryStore) ListResponses(ctx context.Context) ([]model.PredefinedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resps := make([]model.PredefinedResponse, 0, len(s.responses))
	for _, r := range s.responses {
		resps = append(resps, *r)
	}
	sortResponses(resps)
	return resps, nil
}

func (s *MemoryStore) ListActiveResponses(ctx context.Context) ([]model.PredefinedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resps []model.PredefinedResponse
	for _, r := range s.responses {
		if r.IsActive {
			resps = append(resps, *r)
		}
	}
	sortResponses(resps)
	return resps, nil
}

func (s *MemoryStore) GetResponse(ctx context.Context, id string) (*model.PredefinedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.responses[id]
	if !ok {
		return nil, fmt.Errorf("response %s: %w", id, model.ErrNotFound)
	}
	rp := *r
	return &rp, nil
}

func (s *MemoryStore) CreateResponse(ctx context.Context, resp *model.PredefinedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = now
	}
	resp.UpdatedAt = now
	resp.Keywords = normalizeKeywords(resp.Keywords)
	s.responses[resp.ID] = resp
	return nil
}

func (s *MemoryStore) UpdateResponse(ctx context.Context, id string, patch model.ResponsePatch) (*model.PredefinedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.responses[id]
	if !ok {
		return nil, fmt.Errorf("response %s: %w", id, model.ErrNotFound)
	}

	if patch.Keywords != nil {
		r.Keywords = normalizeKeywords(patch.Keywords)
	}
	if patch.ResponseText != nil {
		r.ResponseText = *patch.ResponseText
	}
	if patch.Category != nil {
		r.Category = *patch.Category
	}
	if patch.IsActive != nil {
		r.IsActive = *patch.IsActive
	}
	r.UpdatedAt = time.Now()

	rp := *r
	return &rp, nil
}

func (s *MemoryStore) DeleteResponse(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.responses[id]; !ok {
		return fmt.Errorf("response %s: %w", id, model.ErrNotFound)
	}
	delete(s.responses, id)
	return nil
}

// Settings

func (s *MemoryStore) GetSettings(ctx context.Context) (*model.BotSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	return &settings, nil
}

func (s *MemoryStore) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.BotSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.AutoResponses != nil {
		s.settings.AutoResponses = *patch.AutoResponses
	}
	if patch.BusinessHours != nil {
		s.settings.BusinessHours = *patch.BusinessHours
	}
	if patch.AutoHandoff != nil {
		s.settings.AutoHandoff = *patch.AutoHandoff
	}
	if patch.BusinessHoursStart != nil {
		s.settings.BusinessHoursStart = *patch.BusinessHoursStart
	}
	if patch.BusinessHoursEnd != nil {
		s.settings.BusinessHoursEnd = *patch.BusinessHoursEnd
	}
	if patch.OutOfHoursMessage != nil {
		s.settings.OutOfHoursMessage = *patch.OutOfHoursMessage
	}

	settings := s.settings
	return &settings, nil
}

// Analytics

func (s *MemoryStore) GetAnalytics(ctx context.Context, date string) (*model.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.analytics[date]; ok {
		ap := *a
		return &ap, nil
	}
	return &model.Analytics{Date: date}, nil
}

func (s *MemoryStore) IncrementAnalytics(ctx context.Context, date string, delta model.AnalyticsDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.analyticsRowLocked(date)
	a.TotalConversations += delta.TotalConversations
	a.AutoResponses += delta.AutoResponses
	a.Handoffs += delta.Handoffs
	return nil
}

func (s *MemoryStore) RecordResponseTime(ctx context.Context, date string, sample time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.analyticsRowLocked(date)
	ms := float64(sample.Milliseconds())
	a.AvgResponseTime = (a.AvgResponseTime*float64(a.ResponseSamples) + ms) / float64(a.ResponseSamples+1)
	a.ResponseSamples++
	return nil
}

func (s *MemoryStore) analyticsRowLocked(date string) *model.Analytics {
	a, ok := s.analytics[date]
	if !ok {
		a = &model.Analytics{ID: uuid.New().String(), Date: date}
		s.analytics[date] = a
	}
	return a
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortConversations(convs []model.Conversation) {
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
}

func sortResponses(resps []model.PredefinedResponse) {
	sort.Slice(resps, func(i, j int) bool {
		if resps[i].CreatedAt.Equal(resps[j].CreatedAt) {
			return resps[i].ID < resps[j].ID
		}
		return resps[i].CreatedAt.Before(resps[j].CreatedAt)
	})
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
