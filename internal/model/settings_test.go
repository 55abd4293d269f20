package model

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
}

func TestWithinBusinessHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		t          time.Time
		want       bool
	}{
		{"inside window", "09:00", "18:00", at(10, 30), true},
		{"at opening", "09:00", "18:00", at(9, 0), true},
		{"at closing", "09:00", "18:00", at(18, 0), false},
		{"before opening", "09:00", "18:00", at(8, 59), false},
		{"late evening", "09:00", "18:00", at(22, 30), false},
		{"overnight inside late", "22:00", "06:00", at(23, 15), true},
		{"overnight inside early", "22:00", "06:00", at(2, 0), true},
		{"overnight outside", "22:00", "06:00", at(12, 0), false},
		{"overnight at end", "22:00", "06:00", at(6, 0), false},
		{"bad start falls open", "garbage", "18:00", at(3, 0), true},
		{"bad end falls open", "09:00", "", at(3, 0), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := BotSettings{BusinessHoursStart: tc.start, BusinessHoursEnd: tc.end}
			if got := s.WithinBusinessHours(tc.t); got != tc.want {
				t.Errorf("WithinBusinessHours(%s) = %v, want %v", tc.t.Format("15:04"), got, tc.want)
			}
		})
	}
}
