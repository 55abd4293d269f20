package model

import (
	"time"
)

// BotSettings is the singleton bot configuration.
// BusinessHoursStart/End use the "HH:MM" wall-clock format.
type BotSettings struct {
	ID                 string `json:"id"`
	AutoResponses      bool   `json:"auto_responses"`
	BusinessHours      bool   `json:"business_hours"`
	AutoHandoff        bool   `json:"auto_handoff"`
	BusinessHoursStart string `json:"business_hours_start"`
	BusinessHoursEnd   string `json:"business_hours_end"`
	OutOfHoursMessage  string `json:"out_of_hours_message"`
}

// SettingsPatch is a partial update to the bot settings. Nil fields are
// left untouched.
type SettingsPatch struct {
	AutoResponses      *bool   `json:"auto_responses,omitempty"`
	BusinessHours      *bool   `json:"business_hours,omitempty"`
	AutoHandoff        *bool   `json:"auto_handoff,omitempty"`
	BusinessHoursStart *string `json:"business_hours_start,omitempty"`
	BusinessHoursEnd   *string `json:"business_hours_end,omitempty"`
	OutOfHoursMessage  *string `json:"out_of_hours_message,omitempty"`
}

// WithinBusinessHours reports whether t falls inside the configured window.
// Windows where start > end wrap past midnight.
func (s BotSettings) WithinBusinessHours(t time.Time) bool {
	start, err := time.Parse("15:04", s.BusinessHoursStart)
	if err != nil {
		return true
	}
	end, err := time.Parse("15:04", s.BusinessHoursEnd)
	if err != nil {
		return true
	}

	minute := t.Hour()*60 + t.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	if startMin <= endMin {
		return minute >= startMin && minute < endMin
	}
	return minute >= startMin || minute < endMin
}
