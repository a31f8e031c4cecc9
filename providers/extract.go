package providers

import (
	"encoding/json"
	"strings"
)

// Backends do not agree on response shape: newer endpoints return a
// Responses-API document, older ones a chat completion. The decoders below
// are tolerant; they extract whatever text is present and return "" rather
// than erroring on an unexpected shape.

type responsesDocument struct {
	OutputText string           `json:"output_text"`
	Output     []responsesItem  `json:"output"`
	Error      *apiErrorPayload `json:"error"`
}

type responsesItem struct {
	Text    string          `json:"text"`
	Content []responsesPart `json:"content"`
}

type responsesPart struct {
	Text string `json:"text"`
}

type chatCompletionDocument struct {
	Choices []chatCompletionChoice `json:"choices"`
	Error   *apiErrorPayload       `json:"error"`
}

type chatCompletionChoice struct {
	Message chatCompletionMessage `json:"message"`
}

type chatCompletionMessage struct {
	// Content is either a plain string or an array of {text} parts.
	Content json.RawMessage `json:"content"`
}

type apiErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// ExtractResponsesText pulls the assistant text out of a Responses-API
// document. It prefers the aggregate output_text field and falls back to
// collecting text parts from the output items.
func ExtractResponsesText(body []byte) string {
	var doc responsesDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}

	if direct := strings.TrimSpace(doc.OutputText); direct != "" {
		return direct
	}

	var chunks []string
	for _, item := range doc.Output {
		if text := strings.TrimSpace(item.Text); text != "" {
			chunks = append(chunks, text)
		}
		for _, part := range item.Content {
			if text := strings.TrimSpace(part.Text); text != "" {
				chunks = append(chunks, text)
			}
		}
	}

	return strings.TrimSpace(strings.Join(chunks, " "))
}

// ExtractChatCompletionText pulls the assistant text out of a chat-completion
// document. Content may be a plain string or an array of text parts.
func ExtractChatCompletionText(body []byte) string {
	var doc chatCompletionDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	if len(doc.Choices) == 0 {
		return ""
	}

	raw := doc.Choices[0].Message.Content
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain)
	}

	var parts []responsesPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}

	var chunks []string
	for _, part := range parts {
		if text := strings.TrimSpace(part.Text); text != "" {
			chunks = append(chunks, text)
		}
	}
	return strings.TrimSpace(strings.Join(chunks, " "))
}

// extractErrorMessage returns the error message embedded in an API error
// body, or the raw body when no structured message is present.
func extractErrorMessage(body []byte) string {
	var doc struct {
		Error *apiErrorPayload `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err == nil && doc.Error != nil && doc.Error.Message != "" {
		return doc.Error.Message
	}
	return strings.TrimSpace(string(body))
}
