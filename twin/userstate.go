package twin

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/speech"
	"github.com/mirrorlabs/twinengine/types"
)

// userStatePatch is a partial update: empty strings and a nil confidence
// mean "no new information" and leave the current value intact.
type userStatePatch struct {
	Phase          string   `json:"phase"`
	Goal           string   `json:"goal"`
	EmotionalState string   `json:"emotionalState"`
	TonePreference string   `json:"tonePreference"`
	IronySignal    string   `json:"ironySignal"`
	SpeechPace     string   `json:"speechPace"`
	PausePattern   string   `json:"pausePattern"`
	CognitiveLoad  string   `json:"cognitiveLoadSignal"`
	Confidence     *float64 `json:"confidence"`
}

// mergeUserState applies a patch field-wise. A turn that infers nothing
// about a field never erases previously known state.
func mergeUserState(current sessionstore.UserState, patch userStatePatch) sessionstore.UserState {
	next := current
	if patch.Phase != "" {
		next.Phase = patch.Phase
	}
	if patch.Goal != "" {
		next.Goal = patch.Goal
	}
	if patch.EmotionalState != "" {
		next.EmotionalState = patch.EmotionalState
	}
	if patch.TonePreference != "" {
		next.TonePreference = patch.TonePreference
	}
	if patch.IronySignal != "" {
		next.IronySignal = patch.IronySignal
	}
	if patch.SpeechPace != "" {
		next.SpeechPace = patch.SpeechPace
	}
	if patch.PausePattern != "" {
		next.PausePattern = patch.PausePattern
	}
	if patch.CognitiveLoad != "" {
		next.CognitiveLoad = patch.CognitiveLoad
	}
	if patch.Confidence != nil {
		next.Confidence = sessionstore.ClampConfidence(*patch.Confidence)
	}
	return next
}

// signalsPatch lifts speech-derived signals into a merge patch, skipping
// unknowns so they never overwrite an established value.
func signalsPatch(s speech.Signals) userStatePatch {
	var patch userStatePatch
	if s.Pace != "unknown" {
		patch.SpeechPace = s.Pace
	}
	if s.Pause != "unknown" {
		patch.PausePattern = s.Pause
	}
	if s.Load != "unknown" {
		patch.CognitiveLoad = s.Load
	}
	return patch
}

var inferenceSystemPrompt = strings.Join([]string{
	"You are UserStateAgent.",
	"Extract only structured user intent and emotional style from conversation.",
	"Return valid JSON only with keys:",
	"phase (discovery|build_plan|accountability),",
	"goal (string),",
	"emotionalState (string),",
	"tonePreference (string),",
	"ironySignal (low|medium|high|unknown),",
	"confidence (number between 0 and 1).",
}, " ")

// inferUserState updates the session's belief about the user. Gated
// entirely by the twin-training consent flag. Every failure path degrades
// to a heuristic merge; the turn itself never fails here.
func (e *Engine) inferUserState(ctx context.Context, snap providers.Snapshot, sess *sessionstore.Session, userText, conversation string, signals speech.Signals) {
	if !sess.Consent.TwinTraining {
		return
	}

	if !snap.Enabled() {
		patch := userStatePatch{}
		if len(userText) > 12 {
			patch.Goal = truncate(userText, 120)
		}
		bumped := sessionstore.ClampConfidence(sess.UserState.Confidence + 0.1)
		if bumped > 0.7 {
			bumped = 0.7
		}
		patch.Confidence = &bumped
		sess.UserState = mergeUserState(sess.UserState, patch)
		return
	}

	prompt := strings.Join([]string{
		"Current known user state:",
		marshalUserState(sess.UserState),
		"Recent conversation:",
		conversation,
		"Latest user message: " + userText,
	}, "\n")

	resp, err := snap.Provider.Chat(ctx, providers.ChatRequest{
		Model:  snap.MemoryModel,
		System: inferenceSystemPrompt,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   180,
	})
	if err != nil {
		// Failed inference merges the cadence signals and pays a small
		// confidence penalty for the uncertainty.
		patch := signalsPatch(signals)
		penalized := sess.UserState.Confidence - 0.05
		if penalized < 0.2 {
			penalized = 0.2
		}
		patch.Confidence = &penalized
		sess.UserState = mergeUserState(sess.UserState, patch)
		return
	}

	var inferred userStatePatch
	if !decodeJSONObject(resp.Content, &inferred) {
		sess.UserState = mergeUserState(sess.UserState, signalsPatch(signals))
		return
	}

	// Backend-provided cadence fields win over the locally derived ones.
	speechDerived := signalsPatch(signals)
	if inferred.SpeechPace == "" {
		inferred.SpeechPace = speechDerived.SpeechPace
	}
	if inferred.PausePattern == "" {
		inferred.PausePattern = speechDerived.PausePattern
	}
	if inferred.CognitiveLoad == "" {
		inferred.CognitiveLoad = speechDerived.CognitiveLoad
	}
	sess.UserState = mergeUserState(sess.UserState, inferred)
}

func marshalUserState(state sessionstore.UserState) string {
	data, err := json.Marshal(state)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
