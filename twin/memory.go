package twin

import (
	"context"
	"regexp"
	"strings"

	"github.com/mirrorlabs/twinengine/logger"
	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/types"
)

const maxProfileItems = 4

var memorySystemPrompt = strings.Join([]string{
	"You are MemoryAgent.",
	"Output only this format with bullet points:",
	"Strengths:",
	"- ...",
	"Blockers:",
	"- ...",
	"Values:",
	"- ...",
	"Next actions:",
	"- ...",
	"Keep each list max 4 bullets.",
}, "\n")

// summarizeMemory compresses recent history into the four-section summary.
// Returns the new summary text, or false when the call failed or produced
// nothing; the caller keeps the previous summary in that case.
func (e *Engine) summarizeMemory(ctx context.Context, snap providers.Snapshot, sess *sessionstore.Session, conversation, userText string) (string, bool) {
	prompt := strings.Join([]string{
		"Previous summary: " + sess.Summary,
		"Conversation:",
		conversation,
		"Latest user input: " + userText,
	}, "\n")

	resp, err := snap.Provider.Chat(ctx, providers.ChatRequest{
		Model:  snap.MemoryModel,
		System: memorySystemPrompt,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   260,
	})
	if err != nil {
		logger.Warn("memory summarization failed, keeping previous summary", "error", err)
		return "", false
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", false
	}
	return summary, true
}

var bulletPrefix = regexp.MustCompile(`^[-*\d.\s]+`)

// parseProfile extracts the bounded profile lists from a four-section
// summary by header matching. Sections the summary omits come back empty.
func parseProfile(summary string) sessionstore.Profile {
	sections := map[string][]string{}
	current := ""

	for _, rawLine := range strings.Split(summary, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "strengths:"):
			current = "strengths"
			continue
		case strings.HasPrefix(lower, "blockers:"):
			current = "blockers"
			continue
		case strings.HasPrefix(lower, "values:"):
			current = "values"
			continue
		case strings.HasPrefix(lower, "next actions:"):
			current = "nextActions"
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}

	return sessionstore.Profile{
		Strengths:   extractList(sections["strengths"]),
		Blockers:    extractList(sections["blockers"]),
		Values:      extractList(sections["values"]),
		NextActions: extractList(sections["nextActions"]),
	}
}

// extractList strips bullet and number markers and caps the list at four
// entries. The section header line itself reduces to empty and drops out.
func extractList(lines []string) []string {
	items := make([]string, 0, maxProfileItems)
	for _, line := range lines {
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		items = append(items, item)
		if len(items) == maxProfileItems {
			break
		}
	}
	return items
}
