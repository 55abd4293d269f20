package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/store"
)

// Responses manages the operator-authored predefined responses.
type Responses struct {
	store store.ResponseStore
}

// NewResponses creates the predefined response service.
func NewResponses(st store.ResponseStore) *Responses {
	return &Responses{store: st}
}

// List returns all predefined responses.
func (s *Responses) List(ctx context.Context) ([]model.PredefinedResponse, error) {
	return s.store.ListResponses(ctx)
}

// Get returns one predefined response by id.
func (s *Responses) Get(ctx context.Context, id string) (*model.PredefinedResponse, error) {
	return s.store.GetResponse(ctx, id)
}

// Create validates and stores a new predefined response. New responses are
// active unless the request says otherwise.
func (s *Responses) Create(ctx context.Context, req model.CreateResponseRequest) (*model.PredefinedResponse, error) {
	if err := validateResponse(req.Keywords, req.ResponseText); err != nil {
		return nil, err
	}

	resp := &model.PredefinedResponse{
		Keywords:     req.Keywords,
		ResponseText: req.ResponseText,
		Category:     req.Category,
		IsActive:     true,
	}
	if req.IsActive != nil {
		resp.IsActive = *req.IsActive
	}
	if err := s.store.CreateResponse(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Update applies a partial update to a predefined response.
func (s *Responses) Update(ctx context.Context, id string, patch model.ResponsePatch) (*model.PredefinedResponse, error) {
	if patch.Keywords != nil && len(nonEmpty(patch.Keywords)) == 0 {
		return nil, fmt.Errorf("%w: at least one keyword is required", model.ErrValidation)
	}
	if patch.ResponseText != nil && strings.TrimSpace(*patch.ResponseText) == "" {
		return nil, fmt.Errorf("%w: response text is required", model.ErrValidation)
	}
	return s.store.UpdateResponse(ctx, id, patch)
}

// Delete removes a predefined response.
func (s *Responses) Delete(ctx context.Context, id string) error {
	return s.store.DeleteResponse(ctx, id)
}

func validateResponse(keywords []string, responseText string) error {
	if len(nonEmpty(keywords)) == 0 {
		return fmt.Errorf("%w: at least one keyword is required", model.ErrValidation)
	}
	if strings.TrimSpace(responseText) == "" {
		return fmt.Errorf("%w: response text is required", model.ErrValidation)
	}
	return nil
}

func nonEmpty(keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if strings.TrimSpace(k) != "" {
			out = append(out, k)
		}
	}
	return out
}
