package providers

import (
	"os"
	"sync"

	"github.com/mirrorlabs/twinengine/logger"
)

// Settings holds the credentials and endpoints used to construct providers.
// Empty keys fall back to the conventional environment variables.
type Settings struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterSiteURL string
	OpenRouterAppName string

	OllamaAPIKey  string
	OllamaBaseURL string
}

// Snapshot is one consistent backend configuration. A turn captures a single
// snapshot at entry and uses it for every stage call, so a concurrent
// reconfiguration only affects later turns.
type Snapshot struct {
	Provider    Provider
	ChatModel   string
	MemoryModel string
}

// Enabled reports whether the snapshot's provider can serve generation calls.
func (s Snapshot) Enabled() bool {
	return s.Provider != nil && s.Provider.Enabled()
}

// Runtime is the atomically-swappable backend handle. Exactly one
// configuration is active at a time; Configure replaces it wholesale
// (last write wins) without restarting the process.
type Runtime struct {
	mu       sync.RWMutex
	settings Settings
	snap     Snapshot
}

// NewRuntime builds a Runtime with an initial configuration.
// An unknown provider id falls back to the disabled variant.
func NewRuntime(settings Settings, providerID, chatModel, memoryModel string) *Runtime {
	r := &Runtime{settings: settings}
	provider, err := r.build(providerID)
	if err != nil {
		provider = NewDisabled(providerID, err.Error())
	}
	r.snap = Snapshot{Provider: provider, ChatModel: chatModel, MemoryModel: memoryModel}
	return r
}

// Snapshot returns the currently active configuration.
func (r *Runtime) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Configure swaps the active configuration. The replaced provider's idle
// resources are released; in-flight turns keep using the snapshot they
// captured and are not interrupted.
func (r *Runtime) Configure(providerID, chatModel, memoryModel string) (Snapshot, error) {
	if !IsAllowed(providerID) {
		return Snapshot{}, &UnsupportedProviderError{ProviderID: providerID}
	}

	provider, err := r.build(providerID)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	previous := r.snap.Provider
	r.snap = Snapshot{Provider: provider, ChatModel: chatModel, MemoryModel: memoryModel}
	snap := r.snap
	r.mu.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			logger.Warn("closing replaced provider", "provider", previous.ID(), "error", err)
		}
	}

	logger.Info("backend reconfigured",
		"provider", snap.Provider.ID(),
		"enabled", snap.Provider.Enabled(),
		"chat_model", snap.ChatModel,
		"memory_model", snap.MemoryModel,
	)
	return snap, nil
}

func (r *Runtime) build(providerID string) (Provider, error) {
	switch providerID {
	case ProviderFallback:
		return NewDisabled(ProviderFallback, "Fallback selected explicitly."), nil

	case ProviderOllama:
		apiKey := fallbackEnv(r.settings.OllamaAPIKey, "OLLAMA_API_KEY")
		if apiKey == "" {
			apiKey = "ollama"
		}
		baseURL := r.settings.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://127.0.0.1:11434/v1"
		}
		return NewOpenAICompat(ProviderOllama, baseURL, apiKey, "Local Ollama endpoint active."), nil

	case ProviderOpenRouter:
		apiKey := fallbackEnv(r.settings.OpenRouterAPIKey, "OPENROUTER_API_KEY")
		if apiKey == "" {
			return NewDisabled(ProviderOpenRouter, "OPENROUTER_API_KEY missing."), nil
		}
		baseURL := r.settings.OpenRouterBaseURL
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
		headers := map[string]string{}
		if r.settings.OpenRouterSiteURL != "" {
			headers["HTTP-Referer"] = r.settings.OpenRouterSiteURL
		}
		if r.settings.OpenRouterAppName != "" {
			headers["X-Title"] = r.settings.OpenRouterAppName
		}
		return NewOpenAICompat(ProviderOpenRouter, baseURL, apiKey, "OpenRouter API configured.", WithHeaders(headers)), nil

	case ProviderOpenAI:
		apiKey := fallbackEnv(r.settings.OpenAIAPIKey, "OPENAI_API_KEY")
		if apiKey == "" {
			return NewDisabled(ProviderOpenAI, "OPENAI_API_KEY missing."), nil
		}
		baseURL := r.settings.OpenAIBaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAICompat(ProviderOpenAI, baseURL, apiKey, "OpenAI API configured."), nil
	}

	return nil, &UnsupportedProviderError{ProviderID: providerID}
}

func fallbackEnv(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}
