// Package tts wraps the speech-synthesis providers used for twin voice
// output: standard API voices plus session-consented voice cloning.
package tts

import (
	"context"
	"errors"
	"io"
	"time"
)

// Provider identifiers.
const (
	ProviderBrowser    = "browser"
	ProviderElevenLabs = "elevenlabs"
	ProviderCartesia   = "cartesia"
)

// AllowedProviders lists every provider the server can be configured with.
// The browser provider synthesizes client-side; the server treats it as
// always ready but incapable of cloning.
var AllowedProviders = []string{ProviderBrowser, ProviderElevenLabs, ProviderCartesia}

// Common synthesis errors.
var (
	// ErrEmptyText is returned when attempting to synthesize empty text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrNoVoiceProfile is returned when cloned playback is requested for a
	// session without a cloned voice.
	ErrNoVoiceProfile = errors.New("no cloned voice profile for this session")

	// ErrProviderMismatch is returned when a session's voice profile was
	// created by a different provider than the active one. A mismatch is
	// reported, never silently downgraded.
	ErrProviderMismatch = errors.New("voice profile provider mismatch")

	// ErrCloneNotSupported is returned when the active provider cannot clone.
	ErrCloneNotSupported = errors.New("provider does not support voice cloning")

	// ErrCloneConsentRequired is returned when playback through a clone-only
	// provider is requested without voice-clone consent.
	ErrCloneConsentRequired = errors.New("voice clone consent required")
)

// SynthesisConfig selects the voice for one synthesis call.
type SynthesisConfig struct {
	// VoiceID is the provider voice to speak with.
	VoiceID string
	// Language is the synthesis language code.
	Language string
}

// CloneResult is the handle for a newly created cloned voice.
type CloneResult struct {
	VoiceID   string    `json:"voiceId"`
	Provider  string    `json:"provider"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

// CloneRequest carries one uploaded voice sample.
type CloneRequest struct {
	Label    string
	Audio    []byte
	MimeType string
}

// Service converts text to speech audio.
type Service interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio. The caller closes the reader.
	Synthesize(ctx context.Context, text string, config SynthesisConfig) (io.ReadCloser, error)
}

// Cloner is implemented by providers that can create a session voice clone
// from an uploaded sample.
type Cloner interface {
	Clone(ctx context.Context, req CloneRequest) (CloneResult, error)
}

// SynthesisError carries provider detail for a failed synthesis or clone
// call, with an operator-actionable hint.
type SynthesisError struct {
	Provider string
	Message  string
	Hint     string
	Cause    error
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

// CloneCapable reports whether the provider supports voice cloning.
func CloneCapable(provider string) bool {
	return provider == ProviderElevenLabs || provider == ProviderCartesia
}
