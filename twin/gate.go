package twin

import (
	"context"
	"regexp"
	"strings"

	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/speech"
	"github.com/mirrorlabs/twinengine/types"
)

// Gate is the pre-generation confidence check. Below the configured
// threshold the orchestrator short-circuits the turn into FocusQuestion.
type Gate struct {
	Confidence    float64 `json:"confidence"`
	Anchor        string  `json:"anchor"`
	FocusQuestion string  `json:"focusQuestion"`
}

const (
	defaultGateAnchor   = "Keep building the twin profile around user identity, blockers, and next action."
	defaultGateQuestion = "What is the most important behavior pattern we should model next?"

	maxFocusQuestionWords = 14
)

var gateSystemPrompt = strings.Join([]string{
	"You are QualityGateAgent for an AI twin assistant.",
	"Evaluate whether we have enough context to produce a meaningful, goal-aligned answer.",
	"Return strict JSON only with keys: confidence (0-1), anchor (string), focusQuestion (string).",
	"Anchor must keep the conversation focused on building an accurate user twin.",
	"focusQuestion must be short (max 12 words).",
}, " ")

func neutralGate() Gate {
	return Gate{Confidence: 0.7, Anchor: defaultGateAnchor, FocusQuestion: defaultGateQuestion}
}

// evaluateGate issues one low-temperature generation call; failures degrade
// to fixed neutral gates and never fail the turn.
func (e *Engine) evaluateGate(ctx context.Context, snap providers.Snapshot, sess *sessionstore.Session, conversation, userText string, meta speech.TurnMeta) Gate {
	prompt := strings.Join([]string{
		"Session mode: " + string(sess.Mode),
		"User state: " + marshalUserState(sess.UserState),
		"Voice cadence cues: " + speech.Summarize(meta),
		"Session summary: " + sess.Summary,
		"Recent conversation:",
		conversation,
		"Latest user message: " + userText,
	}, "\n")

	resp, err := snap.Provider.Chat(ctx, providers.ChatRequest{
		Model:  snap.MemoryModel,
		System: gateSystemPrompt,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   160,
	})
	if err != nil {
		return Gate{
			Confidence:    0.68,
			Anchor:        "Stay focused on identity mirroring and concrete behavior changes.",
			FocusQuestion: "What part of your behavior should your twin learn next?",
		}
	}

	return parseGate(resp.Content)
}

// parseGate decodes the gate JSON tolerantly; unusable output yields a
// slightly cautious fixed gate.
func parseGate(text string) Gate {
	var raw struct {
		Confidence    *float64 `json:"confidence"`
		Anchor        string   `json:"anchor"`
		FocusQuestion string   `json:"focusQuestion"`
	}
	if !decodeJSONObject(text, &raw) {
		return Gate{Confidence: 0.65, Anchor: defaultGateAnchor, FocusQuestion: defaultGateQuestion}
	}

	gate := Gate{Confidence: 0.65, Anchor: defaultGateAnchor, FocusQuestion: defaultGateQuestion}
	if raw.Confidence != nil {
		gate.Confidence = sessionstore.ClampConfidence(*raw.Confidence)
	}
	if anchor := strings.TrimSpace(raw.Anchor); anchor != "" {
		gate.Anchor = anchor
	}
	if q := strings.TrimSpace(raw.FocusQuestion); q != "" {
		gate.FocusQuestion = q
	}
	gate.FocusQuestion = clampFocusQuestion(gate.FocusQuestion)
	return gate
}

var trailingPunct = regexp.MustCompile(`[\s,;:.!?-]+$`)

// clampFocusQuestion truncates to at most 14 words and forces a trailing
// question mark regardless of what the model produced.
func clampFocusQuestion(q string) string {
	words := strings.Fields(q)
	if len(words) > maxFocusQuestionWords {
		words = words[:maxFocusQuestionWords]
	}
	return trailingPunct.ReplaceAllString(strings.Join(words, " "), "") + "?"
}
