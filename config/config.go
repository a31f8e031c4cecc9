// Package config loads engine configuration from environment variables,
// with an optional YAML file providing overrides for deployments that
// prefer file-based configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultAddr              = ":8080"
	DefaultFreeMessages      = 18
	DefaultSessionTTLMinutes = 30
	DefaultSweepInterval     = 60 * time.Second
	DefaultProvider          = "openrouter"
	DefaultChatModel         = "openai/gpt-4.1"
	DefaultConfidenceMin     = 0.72
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultOllamaBaseURL     = "http://127.0.0.1:11434/v1"
	DefaultVoiceProvider     = "browser"
)

// Config holds all runtime configuration for the twin engine server.
type Config struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the exporter

	FreeMessages    int  `yaml:"free_messages"`
	DemoMode        bool `yaml:"demo_mode"`
	DemoAutoConsent bool `yaml:"demo_auto_consent"`
	StrictPrivacy   bool `yaml:"strict_privacy"`

	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`

	Provider         string  `yaml:"provider"`
	ChatModel        string  `yaml:"chat_model"`
	MemoryModel      string  `yaml:"memory_model"` // empty follows ChatModel; Load resolves it
	AdvancedThinking bool    `yaml:"advanced_thinking"`
	ConfidenceMin    float64 `yaml:"confidence_min"`

	OpenAIBaseURL     string `yaml:"openai_base_url"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url"`
	OpenRouterSiteURL string `yaml:"openrouter_site_url"`
	OpenRouterAppName string `yaml:"openrouter_app_name"`
	OllamaBaseURL     string `yaml:"ollama_base_url"`

	VoiceProvider          string `yaml:"voice_provider"`
	ElevenLabsAPIKey       string `yaml:"elevenlabs_api_key"`
	ElevenLabsModelID      string `yaml:"elevenlabs_model_id"`
	CartesiaAPIKey         string `yaml:"cartesia_api_key"`
	CartesiaModelID        string `yaml:"cartesia_model_id"`
	CartesiaCloneMode      string `yaml:"cartesia_clone_mode"`
	CartesiaDefaultVoiceID string `yaml:"cartesia_default_voice_id"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Addr:                   DefaultAddr,
		FreeMessages:           DefaultFreeMessages,
		DemoAutoConsent:        true,
		StrictPrivacy:          true,
		SessionTTL:             DefaultSessionTTLMinutes * time.Minute,
		SweepInterval:          DefaultSweepInterval,
		Provider:               DefaultProvider,
		ChatModel:              DefaultChatModel,
		AdvancedThinking:       true,
		ConfidenceMin:          DefaultConfidenceMin,
		OpenRouterBaseURL:      DefaultOpenRouterBaseURL,
		OpenAIBaseURL:          DefaultOpenAIBaseURL,
		OpenRouterSiteURL:      "http://localhost:8080",
		OpenRouterAppName:      "Twin Engine",
		OllamaBaseURL:          DefaultOllamaBaseURL,
		VoiceProvider:          DefaultVoiceProvider,
		ElevenLabsModelID:      "eleven_multilingual_v2",
		CartesiaModelID:        "sonic-2",
		CartesiaCloneMode:      "similarity",
		CartesiaDefaultVoiceID: "694f9389-aac1-45b6-b726-9d9369183238",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// TWINENGINE_CONFIG, and environment variable overrides, in that order.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("TWINENGINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.FreeMessages < 1 {
		return cfg, fmt.Errorf("free_messages must be positive, got %d", cfg.FreeMessages)
	}
	if cfg.SessionTTL <= 0 {
		return cfg, fmt.Errorf("session_ttl must be positive, got %s", cfg.SessionTTL)
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	cfg.VoiceProvider = strings.ToLower(cfg.VoiceProvider)

	// The memory model follows the chat model unless the file or env named
	// one explicitly.
	if cfg.MemoryModel == "" {
		cfg.MemoryModel = cfg.ChatModel
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Addr, "ADDR")
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	setString(&cfg.MetricsAddr, "METRICS_ADDR")

	setInt(&cfg.FreeMessages, "FREE_MESSAGES")
	setBool(&cfg.DemoMode, "DEMO_MODE")
	setBool(&cfg.DemoAutoConsent, "DEMO_AUTO_CONSENT")
	setBool(&cfg.StrictPrivacy, "STRICT_PRIVACY")

	if minutes := os.Getenv("SESSION_TTL_MINUTES"); minutes != "" {
		if n, err := strconv.Atoi(minutes); err == nil {
			cfg.SessionTTL = time.Duration(n) * time.Minute
		}
	}

	setString(&cfg.Provider, "AI_PROVIDER")
	setString(&cfg.ChatModel, "AI_MODEL_CHAT")
	setString(&cfg.MemoryModel, "AI_MODEL_MEMORY")
	setBool(&cfg.AdvancedThinking, "AI_ADVANCED_THINKING")
	setFloat(&cfg.ConfidenceMin, "AI_CONFIDENCE_MIN")

	setString(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&cfg.OpenRouterBaseURL, "OPENROUTER_BASE_URL")
	setString(&cfg.OpenRouterSiteURL, "OPENROUTER_SITE_URL")
	setString(&cfg.OpenRouterAppName, "OPENROUTER_APP_NAME")
	setString(&cfg.OllamaBaseURL, "OLLAMA_BASE_URL")

	setString(&cfg.VoiceProvider, "VOICE_PROVIDER")
	setString(&cfg.ElevenLabsAPIKey, "ELEVENLABS_API_KEY")
	setString(&cfg.ElevenLabsModelID, "ELEVENLABS_MODEL_ID")
	setString(&cfg.CartesiaAPIKey, "CARTESIA_API_KEY")
	setString(&cfg.CartesiaModelID, "CARTESIA_MODEL_ID")
	setString(&cfg.CartesiaCloneMode, "CARTESIA_CLONE_MODE")
	setString(&cfg.CartesiaDefaultVoiceID, "CARTESIA_DEFAULT_VOICE_ID")
}

// FreeMessageLimit returns the effective free-tier message limit.
// Demo mode lifts the paywall entirely.
func (c Config) FreeMessageLimit() int {
	if c.DemoMode {
		return math.MaxInt
	}
	return c.FreeMessages
}

// FreeMessageDisplay is the user-facing representation of the limit.
func (c Config) FreeMessageDisplay() string {
	if c.DemoMode {
		return "unlimited"
	}
	return strconv.Itoa(c.FreeMessages)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}
