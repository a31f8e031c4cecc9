package providers

import (
	"fmt"
	"strings"
)

// Hint maps a backend failure message to actionable operator guidance.
// Raw provider errors are rarely self-explanatory; the patterns below cover
// the common failure classes per provider (missing credential, unknown
// model, unreachable local endpoint, quota).
func Hint(providerID, model, message string) string {
	lower := strings.ToLower(message)

	switch providerID {
	case ProviderOpenAI:
		if strings.Contains(lower, "api key") || strings.Contains(lower, "401") {
			return "Set OPENAI_API_KEY (create one on platform.openai.com), then restart the server."
		}
		return fmt.Sprintf("Check OPENAI_API_KEY permissions and model access for %s.", model)

	case ProviderOpenRouter:
		if strings.Contains(lower, "api key") || strings.Contains(lower, "401") {
			return "Set OPENROUTER_API_KEY (create one on openrouter.ai/keys), then restart the server."
		}
		if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")) {
			return "Model may be unavailable on OpenRouter. Try a known model like openai/gpt-4.1-mini or anthropic/claude-3.5-haiku."
		}
		if strings.Contains(lower, "quota") || strings.Contains(lower, "credits") || strings.Contains(lower, "402") {
			return "Check OpenRouter account credits and rate limits."
		}
		return "Check OPENROUTER_API_KEY, model name, and OpenRouter account credits/limits."

	case ProviderOllama:
		if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") || strings.Contains(lower, "connect") {
			return "Ollama not reachable. Run `ollama serve` locally and keep it running."
		}
		if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")) {
			return fmt.Sprintf("Model missing locally. Run: ollama pull %s", model)
		}
		return "Check OLLAMA_BASE_URL and ensure the selected model exists locally via `ollama list`."
	}

	return "Set a cloud provider key (OpenRouter/OpenAI) to enable live responses."
}
