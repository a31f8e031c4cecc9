package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/tts"
)

const maxCloneSampleBytes = 10 << 20

func (s *Server) handleVoiceSpeak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
		VoiceID   string `json:"voiceId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "Invalid voice speak payload"})
		return
	}

	sess, err := s.engine.GetSession(req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, errorBody{Error: "Session not found"})
		return
	}

	if s.voice == nil {
		writeError(w, http.StatusBadRequest, errorBody{
			Error: "voice provider " + s.cfg.VoiceProvider + " does not support cloned speech output",
			Hint:  "Configure voice_provider as elevenlabs or cartesia and restart.",
		})
		return
	}

	var profile *tts.CloneResult
	if sess.VoiceProfile != nil {
		profile = &tts.CloneResult{
			VoiceID:   sess.VoiceProfile.VoiceID,
			Provider:  sess.VoiceProfile.Provider,
			Label:     sess.VoiceProfile.Label,
			CreatedAt: sess.VoiceProfile.CreatedAt,
		}
	}

	selection, err := tts.ResolveVoice(s.cfg.VoiceProvider, profile, sess.Consent.VoiceClone, req.VoiceID, s.cfg.CartesiaDefaultVoiceID)
	switch {
	case errors.Is(err, tts.ErrCloneConsentRequired):
		writeError(w, http.StatusForbidden, errorBody{
			Error: "Voice clone consent required",
			Hint:  "Enable consentVoiceClone in Consent panel before cloned voice playback.",
		})
		return
	case errors.Is(err, tts.ErrProviderMismatch):
		mismatchProvider := ""
		if sess.VoiceProfile != nil {
			mismatchProvider = sess.VoiceProfile.Provider
		}
		writeError(w, http.StatusConflict, errorBody{
			Error: "Voice profile provider mismatch",
			Hint:  "Current provider is " + s.cfg.VoiceProvider + ", but profile was created with " + mismatchProvider + ". Upload a new sample.",
		})
		return
	case errors.Is(err, tts.ErrNoVoiceProfile):
		writeError(w, http.StatusNotFound, errorBody{
			Error: "No cloned voice profile for this session",
			Hint:  "Upload a voice sample first.",
		})
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	audio, err := s.voice.Synthesize(r.Context(), req.Text, tts.SynthesisConfig{VoiceID: selection.VoiceID})
	if err != nil {
		s.writeVoiceError(w, "Voice synthesis failed", err)
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.Copy(w, audio)
}

func (s *Server) handleVoiceClone(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCloneSampleBytes); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "Invalid multipart payload"})
		return
	}

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "sessionId is required"})
		return
	}

	sess, err := s.engine.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, errorBody{Error: "Session not found"})
		return
	}

	if !sess.Consent.VoiceClone {
		writeError(w, http.StatusForbidden, errorBody{
			Error: "Voice clone consent required",
			Hint:  "Enable consentVoiceClone before uploading a sample.",
		})
		return
	}

	if s.cloner == nil {
		writeError(w, http.StatusBadRequest, errorBody{
			Error: "voice provider " + s.cfg.VoiceProvider + " does not support cloning",
			Hint:  "Configure voice_provider as elevenlabs or cartesia and restart.",
		})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: `Audio file is required in field "audio"`})
		return
	}
	defer file.Close()

	sample, err := io.ReadAll(io.LimitReader(file, maxCloneSampleBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "Reading audio sample failed"})
		return
	}

	result, err := s.cloner.Clone(r.Context(), tts.CloneRequest{
		Label:    r.FormValue("label"),
		Audio:    sample,
		MimeType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		s.writeVoiceError(w, "Voice clone creation failed", err)
		return
	}

	sess.Lock()
	sess.VoiceProfile = &sessionstore.VoiceProfile{
		VoiceID:   result.VoiceID,
		Provider:  result.Provider,
		Label:     result.Label,
		CreatedAt: result.CreatedAt,
	}
	sess.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"sessionId": sessionID,
		"voice":     s.voiceStateFor(sess),
	})
}

func (s *Server) writeVoiceError(w http.ResponseWriter, summary string, err error) {
	var synthErr *tts.SynthesisError
	if errors.As(err, &synthErr) {
		writeError(w, http.StatusServiceUnavailable, errorBody{
			Error:   summary,
			Details: synthErr.Message,
			Hint:    synthErr.Hint,
		})
		return
	}
	writeError(w, http.StatusServiceUnavailable, errorBody{
		Error:   summary,
		Details: err.Error(),
		Hint:    tts.VoiceErrorHint(err.Error(), s.cfg.VoiceProvider),
	})
}
