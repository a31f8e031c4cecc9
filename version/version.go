// Package version exposes build version information for the twin engine.
// Variables can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/mirrorlabs/twinengine/version.version=1.0.0"
package version

import (
	"runtime/debug"
)

const (
	devVersion     = "dev"
	shortCommitLen = 7
)

// Overridden with -ldflags at release time.
var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// Version returns the release version, falling back to module build info
// when no ldflags were set.
func Version() string {
	if version != devVersion {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return devVersion
}

// Commit returns the short git commit hash, from ldflags or VCS build info.
func Commit() string {
	if gitCommit != "" {
		return gitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value[:min(shortCommitLen, len(setting.Value))]
			}
		}
	}
	return ""
}

// BuildAttrs returns version details as slog key-value pairs for startup
// logging.
func BuildAttrs() []any {
	attrs := []any{"version", Version()}
	if commit := Commit(); commit != "" {
		attrs = append(attrs, "commit", commit)
	}
	if buildDate != "" {
		attrs = append(attrs, "built", buildDate)
	}
	return attrs
}
