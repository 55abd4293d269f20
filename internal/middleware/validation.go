package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageText validates inbound or operator message text.
func ValidateMessageText(text string) error {
	if len(text) == 0 {
		return errors.New("message text cannot be empty")
	}
	if len(text) > 65536 {
		return errors.New("message text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("message text must be valid UTF-8")
	}
	return nil
}

// ValidateID validates a resource id.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid id format")
	}
	return nil
}

// ValidatePhone validates a customer phone identifier. Any non-empty
// external identifier scheme is accepted.
func ValidatePhone(phone string) error {
	if len(phone) == 0 {
		return errors.New("customer phone cannot be empty")
	}
	if len(phone) > 64 {
		return errors.New("customer phone exceeds maximum length")
	}
	return nil
}

// ValidateDate validates an analytics date key.
func ValidateDate(date string) error {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return errors.New("date must use the YYYY-MM-DD format")
	}
	return nil
}
