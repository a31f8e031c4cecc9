package providers

import (
	"errors"
	"fmt"
)

// ErrDisabled is returned by disabled providers for any generation call.
var ErrDisabled = errors.New("backend provider is disabled")

// UnsupportedProviderError is returned when a provider id is not recognized.
type UnsupportedProviderError struct {
	ProviderID string
}

func (e *UnsupportedProviderError) Error() string {
	return "unsupported provider: " + e.ProviderID
}

// APIError carries the HTTP status and body message of a failed backend call.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}
