package model

import (
	"errors"
)

// Error taxonomy. Concrete failures wrap one of these sentinels so callers
// can route on errors.Is without knowing the backend.
var (
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lookup that found nothing.
	ErrNotFound = errors.New("not found")
	// ErrDelivery marks an outbound send failure or timeout.
	ErrDelivery = errors.New("delivery failed")
	// ErrPersistence marks a storage I/O failure.
	ErrPersistence = errors.New("persistence failed")
)
