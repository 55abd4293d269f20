package service

import (
	"context"
	"fmt"
	"time"

	"github.com/whatsdesk/console/internal/model"
	"github.com/whatsdesk/console/internal/store"
)

// Settings manages the singleton bot configuration.
type Settings struct {
	store store.SettingsStore
}

// NewSettings creates the settings service.
func NewSettings(st store.SettingsStore) *Settings {
	return &Settings{store: st}
}

// Get returns the current bot settings.
func (s *Settings) Get(ctx context.Context) (*model.BotSettings, error) {
	return s.store.GetSettings(ctx)
}

// Update validates and applies a typed partial update.
func (s *Settings) Update(ctx context.Context, patch model.SettingsPatch) (*model.BotSettings, error) {
	if err := validateClock(patch.BusinessHoursStart); err != nil {
		return nil, err
	}
	if err := validateClock(patch.BusinessHoursEnd); err != nil {
		return nil, err
	}
	return s.store.UpdateSettings(ctx, patch)
}

func validateClock(value *string) error {
	if value == nil {
		return nil
	}
	if _, err := time.Parse("15:04", *value); err != nil {
		return fmt.Errorf("%w: %q is not a valid HH:MM time", model.ErrValidation, *value)
	}
	return nil
}
