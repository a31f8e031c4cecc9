package tts

import "strings"

// VoiceSelection is the outcome of resolving which voice a synthesis call
// may use.
type VoiceSelection struct {
	VoiceID string
	// Cloned reports whether the selected voice is the session's clone.
	Cloned bool
}

// ResolveVoice decides the eligible voice for playback.
//
// A cloned profile is only eligible when clone consent is granted and the
// profile's provider matches the active one; a provider mismatch is
// reported as ErrProviderMismatch so the caller can prompt for a new
// sample. ElevenLabs only ever speaks with the session's clone: missing
// consent is ErrCloneConsentRequired, missing profile ErrNoVoiceProfile.
// Cartesia falls back to the requested or default stock voice, and without
// any of those, ErrNoVoiceProfile.
func ResolveVoice(activeProvider string, profile *CloneResult, cloneConsent bool, requestedVoiceID, defaultVoiceID string) (VoiceSelection, error) {
	if activeProvider == ProviderElevenLabs {
		if !cloneConsent {
			return VoiceSelection{}, ErrCloneConsentRequired
		}
		if profile == nil {
			return VoiceSelection{}, ErrNoVoiceProfile
		}
		if profile.Provider != activeProvider {
			return VoiceSelection{}, ErrProviderMismatch
		}
		return VoiceSelection{VoiceID: profile.VoiceID, Cloned: true}, nil
	}

	if profile != nil && cloneConsent {
		if profile.Provider != activeProvider {
			return VoiceSelection{}, ErrProviderMismatch
		}
		return VoiceSelection{VoiceID: profile.VoiceID, Cloned: true}, nil
	}

	if requestedVoiceID != "" {
		return VoiceSelection{VoiceID: requestedVoiceID}, nil
	}
	if defaultVoiceID != "" {
		return VoiceSelection{VoiceID: defaultVoiceID}, nil
	}
	return VoiceSelection{}, ErrNoVoiceProfile
}

// VoiceErrorHint maps a synthesis failure message to operator guidance.
func VoiceErrorHint(message, provider string) string {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "api key") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "401") {
		if provider == ProviderCartesia {
			return "Set CARTESIA_API_KEY and restart the server."
		}
		return "Set ELEVENLABS_API_KEY and restart the server."
	}
	if strings.Contains(lower, "quota") || strings.Contains(lower, "limit") {
		if provider == ProviderCartesia {
			return "Check Cartesia credits and account limits."
		}
		return "Check ElevenLabs credits and account limits."
	}
	if provider == ProviderCartesia {
		if strings.Contains(lower, "feature not available") || strings.Contains(lower, "free tier") || strings.Contains(lower, "status code: 402") {
			return "Cartesia voice cloning appears unavailable on your current plan. Upgrade your Cartesia plan for cloning, or keep using standard API voice (works now)."
		}
		return "Check CARTESIA_API_KEY and the model id, and use a clean 8-20s voice sample with low background noise."
	}
	return "Check ELEVENLABS_API_KEY, uploaded sample quality, and provider availability."
}
