// Package providers implements the pluggable inference backends behind a
// uniform generate/probe contract.
//
// This package provides a common abstraction for OpenAI-compatible chat
// backends (OpenAI, OpenRouter, a local Ollama endpoint) plus an explicit
// disabled variant that never dials out. It handles:
//   - Two-stage response decoding (Responses API first, chat completions second)
//   - Client-side rate limiting per provider
//   - Error-to-hint mapping so failures are actionable, not raw strings
//
// The active provider and model pair is held by a Runtime, which can be
// reconfigured while the process is serving traffic.
package providers

import (
	"context"
	"time"

	"github.com/mirrorlabs/twinengine/types"
)

// Known provider identifiers.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderFallback   = "fallback"
)

// AllowedProviders lists every provider id accepted by Configure.
var AllowedProviders = []string{ProviderOpenAI, ProviderOpenRouter, ProviderOllama, ProviderFallback}

// ChatRequest represents a request to a chat backend.
type ChatRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system"`
	Messages    []types.Message `json:"messages"`
	Temperature float32         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

// ChatResponse represents a response from a chat backend.
type ChatResponse struct {
	Content string        `json:"content"`
	Latency time.Duration `json:"latency"`
	Raw     []byte        `json:"raw,omitempty"`
}

// Provider is the contract every inference backend implements.
type Provider interface {
	// ID returns the provider identifier (e.g. "openai", "ollama").
	ID() string

	// Enabled reports whether this backend can serve generation calls.
	// A disabled provider still has an ID and a Reason.
	Enabled() bool

	// Reason explains the current enabled/disabled state in one line.
	Reason() string

	// Chat sends a generation request and returns the extracted text.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Close cleans up provider resources (e.g. idle HTTP connections).
	Close() error
}

// IsAllowed reports whether the given provider id is recognized.
func IsAllowed(id string) bool {
	for _, allowed := range AllowedProviders {
		if id == allowed {
			return true
		}
	}
	return false
}
