package providers

import "context"

// DisabledProvider is the variant that never calls out. It is used both when
// the operator explicitly selects the fallback provider and when a live
// provider is missing its credential: the pipeline sees a consistent
// not-enabled backend and degrades to deterministic templates.
type DisabledProvider struct {
	id     string
	reason string
}

// NewDisabled creates a disabled provider carrying the given id and reason.
func NewDisabled(id, reason string) *DisabledProvider {
	return &DisabledProvider{id: id, reason: reason}
}

// ID returns the provider identifier.
func (p *DisabledProvider) ID() string { return p.id }

// Enabled always reports false.
func (p *DisabledProvider) Enabled() bool { return false }

// Reason explains why the provider is disabled.
func (p *DisabledProvider) Reason() string { return p.reason }

// Chat always fails with ErrDisabled.
func (p *DisabledProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	return ChatResponse{}, ErrDisabled
}

// Close is a no-op.
func (p *DisabledProvider) Close() error { return nil }
