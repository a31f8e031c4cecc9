package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and punctuation", "What's YOUR next step?!", "whats your next step"},
		{"collapse whitespace", "  too   many\tspaces\n", "too many spaces"},
		{"digits kept", "Step 1: do it", "step 1 do it"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 1.0, TokenOverlap("one two three", "one two three four"))
	assert.InDelta(t, 0.5, TokenOverlap("one two", "two five"), 1e-9)
	assert.Zero(t, TokenOverlap("", "anything"))
	assert.Zero(t, TokenOverlap("alpha beta", "gamma delta"))
}

func TestLooksLikeEchoSubstring(t *testing.T) {
	var p PlaybackState
	p.Mark("What is the one step you could take today?")

	assert.True(t, p.Speaking)
	assert.True(t, LooksLikeEcho("one step you could take", p))
}

func TestLooksLikeEchoTokenOverlap(t *testing.T) {
	var p PlaybackState
	p.Mark("What is the one concrete step you could take today?")

	// Word order differs, so no substring match; overlap carries it.
	assert.True(t, LooksLikeEcho("could you take one concrete step today", p))
}

func TestLooksLikeEchoShortChunksPass(t *testing.T) {
	var p PlaybackState
	p.Mark("Yes, go on and tell me more")

	// Fewer than eight normalized characters is always treated as user input.
	assert.False(t, LooksLikeEcho("yes", p))
}

func TestLooksLikeEchoWhenNotSpeaking(t *testing.T) {
	var p PlaybackState
	p.Mark("What is the one step you could take today?")
	p.Clear()

	assert.False(t, LooksLikeEcho("one step you could take", p))
}

func TestLooksLikeEchoUnrelatedSpeech(t *testing.T) {
	var p PlaybackState
	p.Mark("What is the one step you could take today?")

	assert.False(t, LooksLikeEcho("I want to talk about my job interview", p))
}
