// Package twin implements the per-turn orchestration pipeline: speech-signal
// inference, user-state inference, quality gating, response generation,
// anti-repetition, and periodic memory summarization over TTL-bound
// in-memory sessions.
package twin

import (
	"context"
	"strings"
	"time"

	"github.com/mirrorlabs/twinengine/logger"
	"github.com/mirrorlabs/twinengine/metrics"
	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/speech"
	"github.com/mirrorlabs/twinengine/types"
)

// Config tunes the engine's gating and cadence behavior.
type Config struct {
	// FreeMessageLimit is the per-session message quota. Turns at or above
	// the limit are rejected with ErrPaywall.
	FreeMessageLimit int
	// ConfidenceMin is the quality-gate threshold below which a turn
	// short-circuits into a clarifying question.
	ConfidenceMin float64
	// AdvancedThinking enables the quality-gate generation call.
	AdvancedThinking bool
	// AutoConsent pre-grants every consent flag on new sessions (demo).
	AutoConsent bool
	// HistoryWindow bounds how many recent messages feed each prompt.
	HistoryWindow int
	// SummarizeEvery triggers memory summarization on every Nth message.
	SummarizeEvery int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		FreeMessageLimit: 18,
		ConfidenceMin:    0.72,
		AdvancedThinking: true,
		HistoryWindow:    12,
		SummarizeEvery:   4,
	}
}

// TurnResult is the outcome of one accepted turn.
type TurnResult struct {
	Answer       string                 `json:"answer"`
	Mode         sessionstore.Mode      `json:"sessionMode"`
	MessageCount int                    `json:"messageCount"`
	Profile      sessionstore.Profile   `json:"profile"`
	UserState    sessionstore.UserState `json:"userState"`
	Summary      string                 `json:"summary"`
	ExpiresAt    time.Time              `json:"expiresAt"`
}

// BackendSource yields the active backend configuration. Satisfied by
// *providers.Runtime.
type BackendSource interface {
	Snapshot() providers.Snapshot
}

// Engine composes the turn pipeline over an injected store and backend
// runtime. It owns all session mutation during a turn.
type Engine struct {
	store   *sessionstore.MemoryStore
	runtime BackendSource
	cfg     Config
}

// NewEngine creates an engine. Zero cadence values fall back to defaults so
// a partially filled Config stays usable.
func NewEngine(store *sessionstore.MemoryStore, runtime BackendSource, cfg Config) *Engine {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 12
	}
	if cfg.SummarizeEvery <= 0 {
		cfg.SummarizeEvery = 4
	}
	return &Engine{store: store, runtime: runtime, cfg: cfg}
}

// CreateSession mints a new session in the given mode.
func (e *Engine) CreateSession(mode sessionstore.Mode) (*sessionstore.Session, error) {
	if !sessionstore.ValidMode(mode) {
		return nil, &ValidationError{Field: "mode", Reason: "must be twin or coach"}
	}
	sess := e.store.Create(mode, e.cfg.AutoConsent)
	metrics.SetActiveSessions(e.store.Len())
	logger.Info("session created", "session_id", sess.ID, "mode", sess.Mode)
	return sess, nil
}

// SetConsent replaces the session's consent flags. Takes effect on the very
// next turn: revoking twin-training stops user-state inference immediately.
func (e *Engine) SetConsent(sessionID string, consent sessionstore.Consent) (sessionstore.Consent, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return sessionstore.Consent{}, ErrNotFound
	}
	sess.Lock()
	defer sess.Unlock()

	consent.UpdatedAt = time.Now()
	sess.Consent = consent
	return sess.Consent, nil
}

// SetMode switches the session's persona. The pipeline is unchanged; only
// the generation prompt differs.
func (e *Engine) SetMode(sessionID string, mode sessionstore.Mode) error {
	if !sessionstore.ValidMode(mode) {
		return &ValidationError{Field: "mode", Reason: "must be twin or coach"}
	}
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return ErrNotFound
	}
	sess.Lock()
	defer sess.Unlock()

	sess.Mode = mode
	return nil
}

// DeleteSession removes the session immediately and totally.
func (e *Engine) DeleteSession(sessionID string) bool {
	deleted := e.store.Delete(sessionID)
	if deleted {
		metrics.SetActiveSessions(e.store.Len())
		logger.Info("session deleted", "session_id", sessionID)
	}
	return deleted
}

// GetSession returns the live session, lazily evicting it when expired.
func (e *Engine) GetSession(sessionID string) (*sessionstore.Session, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, ErrNotFound
	}
	if sess.Expired(time.Now()) {
		e.store.Delete(sessionID)
		return nil, ErrExpired
	}
	return sess, nil
}

// SubmitTurn runs one user message through the full pipeline and returns the
// assistant's reply with the updated session fields.
//
// Terminal outcomes: success; ErrPaywall (no state mutation); ErrNotFound;
// ErrExpired (lazy eviction); BackendError (user message recorded, no
// assistant message, caller may retry the same conceptual turn).
func (e *Engine) SubmitTurn(ctx context.Context, sessionID, text string, meta speech.TurnMeta) (TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		metrics.RecordTurn(metrics.OutcomeValidation)
		return TurnResult{}, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if sessionID == "" {
		metrics.RecordTurn(metrics.OutcomeValidation)
		return TurnResult{}, &ValidationError{Field: "sessionId", Reason: "is required"}
	}

	sess, err := e.store.Get(sessionID)
	if err != nil {
		metrics.RecordTurn(metrics.OutcomeNotFound)
		return TurnResult{}, ErrNotFound
	}

	sess.Lock()
	defer sess.Unlock()

	now := time.Now()
	if sess.Expired(now) {
		e.store.Delete(sessionID)
		metrics.SetActiveSessions(e.store.Len())
		metrics.RecordTurn(metrics.OutcomeExpired)
		return TurnResult{}, ErrExpired
	}

	// Extend before generation begins: a long backend call must not let the
	// session expire underneath it.
	e.store.ExtendTTL(sess, now)

	if sess.MessageCount >= e.cfg.FreeMessageLimit {
		metrics.RecordTurn(metrics.OutcomePaywall)
		return TurnResult{}, ErrPaywall
	}

	sess.MessageCount++
	sess.History = append(sess.History, types.NewUserMessage(text))

	// One backend snapshot per turn; a concurrent reconfiguration only
	// affects later turns.
	snap := e.runtime.Snapshot()
	signals := speech.InferSignals(meta)
	conversation := types.RenderTranscript(types.RecentWindow(sess.History, e.cfg.HistoryWindow))

	e.inferUserState(ctx, snap, sess, text, conversation, signals)

	if !snap.Enabled() {
		answer := dedupe(sess, smartFallback(sess, text, sess.MessageCount), text)
		metrics.RecordFallbackAnswer()
		return e.commit(sess, answer, metrics.OutcomeSuccess), nil
	}

	gate := neutralGate()
	if e.cfg.AdvancedThinking {
		gate = e.evaluateGate(ctx, snap, sess, conversation, text, meta)
	}
	if gate.Confidence < e.cfg.ConfidenceMin {
		answer := "Quick check before advice: " + gate.FocusQuestion
		logger.Debug("quality gate short-circuit",
			"session_id", sess.ID,
			"confidence", gate.Confidence,
			"threshold", e.cfg.ConfidenceMin,
		)
		return e.commit(sess, answer, metrics.OutcomeShortCircuit), nil
	}

	started := time.Now()
	resp, err := snap.Provider.Chat(ctx, providers.ChatRequest{
		Model:  snap.ChatModel,
		System: personaPrompt(sess.Mode),
		Messages: []types.Message{
			{Role: types.RoleUser, Content: buildGenerationPrompt(sess, gate, speech.Summarize(meta), conversation, text)},
		},
		Temperature: 0.8,
		MaxTokens:   300,
	})
	metrics.RecordBackendRequest(snap.Provider.ID(), snap.ChatModel, time.Since(started))
	if err != nil {
		metrics.RecordTurn(metrics.OutcomeBackendError)
		return TurnResult{}, &BackendError{
			Provider: snap.Provider.ID(),
			Model:    snap.ChatModel,
			Hint:     providers.Hint(snap.Provider.ID(), snap.ChatModel, err.Error()),
			Err:      err,
		}
	}

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		answer = smartFallback(sess, text, sess.MessageCount)
		metrics.RecordFallbackAnswer()
	}
	answer = dedupe(sess, answer, text)

	if sess.MessageCount%e.cfg.SummarizeEvery == 0 {
		if summary, ok := e.summarizeMemory(ctx, snap, sess, conversation, text); ok {
			sess.Summary = summary
			sess.Profile = parseProfile(summary)
		}
	}

	return e.commit(sess, answer, metrics.OutcomeSuccess), nil
}

// commit appends the assistant reply and assembles the turn result.
// Caller holds the session lock.
func (e *Engine) commit(sess *sessionstore.Session, answer, outcome string) TurnResult {
	sess.History = append(sess.History, types.NewAssistantMessage(answer))
	metrics.RecordTurn(outcome)
	return TurnResult{
		Answer:       answer,
		Mode:         sess.Mode,
		MessageCount: sess.MessageCount,
		Profile:      sess.Profile,
		UserState:    sess.UserState,
		Summary:      sess.Summary,
		ExpiresAt:    sess.ExpiresAt,
	}
}
