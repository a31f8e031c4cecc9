package twin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProfileFourSections(t *testing.T) {
	summary := strings.Join([]string{
		"Strengths:",
		"- clear communication",
		"- persistence",
		"Blockers:",
		"1. overthinking",
		"2. late starts",
		"Values:",
		"* honesty",
		"Next actions:",
		"- book the meeting",
		"- draft the outline",
	}, "\n")

	profile := parseProfile(summary)

	assert.Equal(t, []string{"clear communication", "persistence"}, profile.Strengths)
	assert.Equal(t, []string{"overthinking", "late starts"}, profile.Blockers)
	assert.Equal(t, []string{"honesty"}, profile.Values)
	assert.Equal(t, []string{"book the meeting", "draft the outline"}, profile.NextActions)
}

func TestParseProfileCapsListsAtFour(t *testing.T) {
	summary := strings.Join([]string{
		"Strengths:",
		"- one",
		"- two",
		"- three",
		"- four",
		"- five",
		"- six",
	}, "\n")

	profile := parseProfile(summary)
	assert.Len(t, profile.Strengths, 4)
	assert.Equal(t, []string{"one", "two", "three", "four"}, profile.Strengths)
}

func TestParseProfileMissingSectionsAreEmpty(t *testing.T) {
	profile := parseProfile("Blockers:\n- only this")

	assert.Empty(t, profile.Strengths)
	assert.Equal(t, []string{"only this"}, profile.Blockers)
	assert.Empty(t, profile.Values)
	assert.Empty(t, profile.NextActions)
}

func TestParseProfileIgnoresPreamble(t *testing.T) {
	summary := "Here is the updated profile.\n\nStrengths:\n- focus"
	profile := parseProfile(summary)

	assert.Equal(t, []string{"focus"}, profile.Strengths)
}

func TestParseProfileCaseInsensitiveHeaders(t *testing.T) {
	profile := parseProfile("NEXT ACTIONS:\n- ship it")
	assert.Equal(t, []string{"ship it"}, profile.NextActions)
}

func TestExtractListStripsMarkers(t *testing.T) {
	lines := []string{"- dash item", "* star item", "3. numbered item", "   ", "plain item"}

	assert.Equal(t,
		[]string{"dash item", "star item", "numbered item", "plain item"},
		extractList(lines),
	)
}

func TestDecodeJSONObjectTiers(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}

	assert.True(t, decodeJSONObject(`{"a": 1}`, &v))
	assert.Equal(t, 1, v.A)

	v.A = 0
	assert.True(t, decodeJSONObject("some prose {\"a\": 2} trailing", &v))
	assert.Equal(t, 2, v.A)

	assert.False(t, decodeJSONObject("no json here", &v))
	assert.False(t, decodeJSONObject("", &v))
}
