// Package sessionstore holds conversational sessions in memory with a
// sliding TTL. Sessions are ephemeral by design: nothing is written to disk,
// and expiry fully discards history, profile, and inferred state.
package sessionstore

import (
	"sync"
	"time"

	"github.com/mirrorlabs/twinengine/types"
)

// Mode selects the conversational persona for a session.
type Mode string

const (
	// ModeTwin mirrors the user's own thinking back at them.
	ModeTwin Mode = "twin"
	// ModeCoach challenges the user from the outside.
	ModeCoach Mode = "coach"
)

// ValidMode reports whether m is a recognized conversation mode.
func ValidMode(m Mode) bool {
	return m == ModeTwin || m == ModeCoach
}

// Consent records the per-session opt-ins. All flags default to false and
// flip only through an explicit consent update.
type Consent struct {
	VoiceAdapt   bool      `json:"voiceAdapt"`
	TwinTraining bool      `json:"twinTraining"`
	VoiceClone   bool      `json:"voiceClone"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the rolling structured memory distilled from the conversation.
// Each list is capped at four entries, newest understanding first.
type Profile struct {
	Strengths   []string `json:"strengths"`
	Blockers    []string `json:"blockers"`
	Values      []string `json:"values"`
	NextActions []string `json:"nextActions"`
}

// UserState is the engine's current hypothesis about the user. String fields
// are free-form labels; Confidence is clamped to [0,1].
type UserState struct {
	Phase          string  `json:"phase"`
	Goal           string  `json:"goal"`
	EmotionalState string  `json:"emotionalState"`
	TonePreference string  `json:"tonePreference"`
	IronySignal    string  `json:"ironySignal"`
	SpeechPace     string  `json:"speechPace"`
	PausePattern   string  `json:"pausePattern"`
	CognitiveLoad  string  `json:"cognitiveLoadSignal"`
	Confidence     float64 `json:"confidence"`
}

// InitialUserState is the hypothesis a fresh session starts from: the user
// is in discovery with an unknown goal and low confidence.
func InitialUserState() UserState {
	return UserState{
		Phase:          "discovery",
		Goal:           "unknown",
		EmotionalState: "unclear",
		TonePreference: "neutral",
		IronySignal:    "unknown",
		SpeechPace:     "unknown",
		PausePattern:   "unknown",
		CognitiveLoad:  "unknown",
		Confidence:     0.2,
	}
}

// ClampConfidence bounds a confidence value to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// VoiceProfile is a cloned-voice handle bound to the provider that created
// it. Synthesis with a mismatched provider must be rejected, not silently
// redirected.
type VoiceProfile struct {
	VoiceID   string    `json:"voiceId"`
	Provider  string    `json:"provider"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one ephemeral conversation. All mutation during a turn happens
// under the session lock, so concurrent requests against the same session
// serialize instead of interleaving partial writes.
type Session struct {
	ID           string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Mode         Mode
	Consent      Consent
	MessageCount int
	History      []types.Message
	Profile      Profile
	UserState    UserState
	VoiceProfile *VoiceProfile
	Summary      string

	mu sync.Mutex
}

// Lock acquires the per-session mutex.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session mutex.
func (s *Session) Unlock() { s.mu.Unlock() }

// Expired reports whether the session's TTL has lapsed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
