package speech

import (
	"strings"
	"unicode"
)

const (
	echoMinChars     = 8
	echoOverlapRatio = 0.72
)

// Normalize lowercases text, strips everything that is not a letter, digit,
// or space, and collapses runs of whitespace. Both sides of every echo or
// repetition comparison go through this first.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TokenOverlap returns the size of the token intersection divided by the
// size of the smaller token set. Either side being empty yields 0.
func TokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(tokensA))
	for _, tok := range tokensA {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{}, len(tokensB))
	for _, tok := range tokensB {
		setB[tok] = struct{}{}
	}

	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(shared) / float64(smaller)
}

// PlaybackState is the two-state signal the echo check runs against:
// whether synthesized audio is currently playing, and a normalized copy of
// the text being spoken.
type PlaybackState struct {
	Speaking         bool
	SpokenNormalized string
}

// Mark records that playback of text has started.
func (p *PlaybackState) Mark(text string) {
	p.Speaking = true
	p.SpokenNormalized = Normalize(text)
}

// Clear records that playback finished.
func (p *PlaybackState) Clear() {
	p.Speaking = false
	p.SpokenNormalized = ""
}

// LooksLikeEcho reports whether recognized speech is the system's own voice
// leaking back through the microphone. Runs before any turn-metadata
// accumulation, so echoed chunks never skew pause or pace statistics.
func LooksLikeEcho(recognized string, playback PlaybackState) bool {
	if !playback.Speaking || playback.SpokenNormalized == "" {
		return false
	}
	norm := Normalize(recognized)
	if len(norm) < echoMinChars {
		return false
	}
	if strings.Contains(playback.SpokenNormalized, norm) {
		return true
	}
	return TokenOverlap(norm, playback.SpokenNormalized) >= echoOverlapRatio
}
