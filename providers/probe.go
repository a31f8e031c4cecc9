package providers

import (
	"context"

	"github.com/mirrorlabs/twinengine/types"
)

const (
	probeSystemPrompt = "You are a connectivity probe. Reply with exactly: PROBE_OK"
	probeMaxTokens    = 16
)

// ProbeResult classifies the outcome of a backend connectivity probe.
type ProbeResult struct {
	OK       bool   `json:"ok"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Probe issues a minimal deterministic prompt against the snapshot's backend
// and classifies the outcome. A disabled provider is a hard probe failure,
// with a hint explaining how to enable a live backend.
func Probe(ctx context.Context, snap Snapshot) ProbeResult {
	result := ProbeResult{Provider: snap.Provider.ID(), Model: snap.ChatModel}

	if !snap.Enabled() {
		result.Error = "AI provider is disabled."
		result.Hint = Hint(snap.Provider.ID(), snap.ChatModel, snap.Provider.Reason())
		return result
	}

	resp, err := snap.Provider.Chat(ctx, ChatRequest{
		Model:  snap.ChatModel,
		System: probeSystemPrompt,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "ping"},
		},
		Temperature: 0,
		MaxTokens:   probeMaxTokens,
	})
	if err != nil {
		result.Error = err.Error()
		result.Hint = Hint(snap.Provider.ID(), snap.ChatModel, err.Error())
		return result
	}

	result.OK = true
	result.Output = resp.Content
	return result
}
