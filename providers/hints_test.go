package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHint(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		message  string
		want     string
	}{
		{
			name:     "openai missing key",
			provider: ProviderOpenAI,
			model:    "gpt-4.1",
			message:  "Incorrect API key provided",
			want:     "Set OPENAI_API_KEY (create one on platform.openai.com), then restart the server.",
		},
		{
			name:     "openai 401",
			provider: ProviderOpenAI,
			model:    "gpt-4.1",
			message:  "status 401",
			want:     "Set OPENAI_API_KEY (create one on platform.openai.com), then restart the server.",
		},
		{
			name:     "openai generic",
			provider: ProviderOpenAI,
			model:    "gpt-4.1",
			message:  "something odd",
			want:     "Check OPENAI_API_KEY permissions and model access for gpt-4.1.",
		},
		{
			name:     "openrouter model not found",
			provider: ProviderOpenRouter,
			model:    "openai/gpt-9000",
			message:  "model openai/gpt-9000 not found",
			want:     "Model may be unavailable on OpenRouter. Try a known model like openai/gpt-4.1-mini or anthropic/claude-3.5-haiku.",
		},
		{
			name:     "openrouter credits",
			provider: ProviderOpenRouter,
			model:    "openai/gpt-4.1",
			message:  "Insufficient credits",
			want:     "Check OpenRouter account credits and rate limits.",
		},
		{
			name:     "ollama unreachable",
			provider: ProviderOllama,
			model:    "llama3.1",
			message:  "dial tcp 127.0.0.1:11434: connection refused",
			want:     "Ollama not reachable. Run `ollama serve` locally and keep it running.",
		},
		{
			name:     "ollama model missing",
			provider: ProviderOllama,
			model:    "llama3.1",
			message:  "model 'llama3.1' not found",
			want:     "Model missing locally. Run: ollama pull llama3.1",
		},
		{
			name:     "unknown provider",
			provider: ProviderFallback,
			model:    "",
			message:  "disabled",
			want:     "Set a cloud provider key (OpenRouter/OpenAI) to enable live responses.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hint(tt.provider, tt.model, tt.message))
		})
	}
}
