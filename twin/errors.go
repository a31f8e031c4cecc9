package twin

import (
	"errors"
	"fmt"
)

// Terminal turn outcomes that carry no backend detail.
var (
	// ErrNotFound means the session id has no live entry.
	ErrNotFound = errors.New("session not found")
	// ErrExpired means the session's TTL lapsed; it has been evicted.
	ErrExpired = errors.New("session expired")
	// ErrPaywall means the free-tier message quota is exhausted.
	ErrPaywall = errors.New("free tier limit reached")
)

// ValidationError rejects malformed input before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BackendError is a total generation failure surfaced to the caller with an
// actionable hint. The turn is partially committed: the user message stays
// recorded, no assistant message is appended.
type BackendError struct {
	Provider string
	Model    string
	Hint     string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
