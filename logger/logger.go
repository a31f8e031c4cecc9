// Package logger provides structured logging with automatic key redaction.
//
// It wraps Go's standard log/slog with helpers for LLM backend call logging
// and keeps conversation content out of info-level logs: request logs carry
// method/path/status/latency only, never message text.
package logger

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// DefaultLogger is the global structured logger instance.
// It is safe for concurrent use and initialized with slog.LevelInfo by default.
var DefaultLogger *slog.Logger

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		switch strings.ToLower(envLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(handler)
}

// SetLevel changes the logging level for all subsequent log operations.
// This is safe for concurrent use as it replaces the entire logger instance.
func SetLevel(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(handler)
}

// SetVerbose enables debug-level logging when verbose is true, otherwise info.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message with context and structured attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// Warn logs a warning message with structured attributes.
// Use for recoverable errors or unexpected but non-critical situations.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// BackendCall logs an inference backend call with structured fields.
// Additional attributes can be passed as key-value pairs.
func BackendCall(provider, model, role string, messages int, attrs ...any) {
	allAttrs := make([]any, 0, 8+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"model", model,
		"role", role,
		"messages", messages,
	)
	allAttrs = append(allAttrs, attrs...)
	Info("🤖 backend call", allAttrs...)
}

// BackendResponse logs a completed inference backend call.
func BackendResponse(provider, model string, latencyMs int64, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"model", model,
		"latency_ms", latencyMs,
	)
	allAttrs = append(allAttrs, attrs...)
	Info("✅ backend response", allAttrs...)
}

// BackendError logs a failed inference backend call.
func BackendError(provider, model string, err error, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"model", model,
		"error", err,
	)
	allAttrs = append(allAttrs, attrs...)
	Error("❌ backend call failed", allAttrs...)
}

// apiKeyPatterns contains compiled regular expressions for detecting
// sensitive data. Patterns match common API key formats.
var apiKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),   // OpenAI / OpenRouter keys
	regexp.MustCompile(`xi-[a-zA-Z0-9]{20,}`),     // ElevenLabs keys
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_-]+`), // Bearer tokens
}

// RedactSensitiveData removes API keys and other sensitive information from
// strings. Matched patterns are replaced with a redacted form that preserves
// the first few characters for debugging.
func RedactSensitiveData(input string) string {
	result := input
	for _, pattern := range apiKeyPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if strings.HasPrefix(match, "Bearer ") {
				return "Bearer [REDACTED]"
			}
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}
	return result
}
