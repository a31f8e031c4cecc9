package twin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGateStrictJSON(t *testing.T) {
	gate := parseGate(`{"confidence": 0.81, "anchor": "keep on goal", "focusQuestion": "What is blocking you"}`)

	assert.InDelta(t, 0.81, gate.Confidence, 1e-9)
	assert.Equal(t, "keep on goal", gate.Anchor)
	assert.Equal(t, "What is blocking you?", gate.FocusQuestion)
}

func TestParseGateEmbeddedJSON(t *testing.T) {
	gate := parseGate("Here is my evaluation:\n```json\n{\"confidence\": 0.4, \"anchor\": \"too early\", \"focusQuestion\": \"What do you want?\"}\n```")

	assert.InDelta(t, 0.4, gate.Confidence, 1e-9)
	assert.Equal(t, "too early", gate.Anchor)
}

func TestParseGateGarbageFallsBackToDefault(t *testing.T) {
	gate := parseGate("I think we should proceed carefully.")

	assert.InDelta(t, 0.65, gate.Confidence, 1e-9)
	assert.Equal(t, defaultGateAnchor, gate.Anchor)
	assert.Equal(t, clampFocusQuestion(defaultGateQuestion), gate.FocusQuestion)
}

func TestParseGateClampsConfidence(t *testing.T) {
	assert.Equal(t, 1.0, parseGate(`{"confidence": 3.2}`).Confidence)
	assert.Equal(t, 0.0, parseGate(`{"confidence": -1}`).Confidence)
}

func TestParseGateMissingFieldsUseDefaults(t *testing.T) {
	gate := parseGate(`{"confidence": 0.5}`)

	assert.Equal(t, defaultGateAnchor, gate.Anchor)
	assert.NotEmpty(t, gate.FocusQuestion)
}

func TestClampFocusQuestion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds question mark", "What is your goal", "What is your goal?"},
		{"strips trailing punctuation", "What is your goal?!...", "What is your goal?"},
		{
			"truncates to fourteen words",
			"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen",
			"one two three four five six seven eight nine ten eleven twelve thirteen fourteen?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampFocusQuestion(tt.in))
		})
	}
}
