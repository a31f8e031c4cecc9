// Package types defines the shared conversation types used across the engine.
package types

import (
	"strings"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
// This is the canonical message type used throughout the system.
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // Message content

	// Timestamp records when the message was created.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant message stamped with the current time.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// RecentWindow returns the last n messages of the history.
// The returned slice aliases the input; callers must not mutate it.
func RecentWindow(history []Message, n int) []Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// RenderTranscript formats messages as "ROLE: content" lines for prompt
// assembly. Roles are upper-cased so the model can distinguish speakers.
func RenderTranscript(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, strings.ToUpper(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// LastByRole returns the most recent message with the given role,
// or false when none exists.
func LastByRole(history []Message, role string) (Message, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == role {
			return history[i], true
		}
	}
	return Message{}, false
}
