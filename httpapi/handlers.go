package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/speech"
	"github.com/mirrorlabs/twinengine/tts"
	"github.com/mirrorlabs/twinengine/twin"
	"github.com/mirrorlabs/twinengine/version"
)

// voiceState describes the synthesis capability advertised to the client.
type voiceState struct {
	ActiveProvider        string                     `json:"activeProvider"`
	ProviderReady         bool                       `json:"providerReady"`
	ClonedVoiceAvailable  bool                       `json:"clonedVoiceAvailable"`
	VoiceProfile          *sessionstore.VoiceProfile `json:"voiceProfile"`
	CloneCapableProviders []string                   `json:"cloneCapableProviders"`
}

func (s *Server) voiceStateFor(sess *sessionstore.Session) voiceState {
	ready := false
	switch s.cfg.VoiceProvider {
	case tts.ProviderBrowser:
		ready = true
	case tts.ProviderElevenLabs:
		ready = s.cfg.ElevenLabsAPIKey != ""
	case tts.ProviderCartesia:
		ready = s.cfg.CartesiaAPIKey != ""
	}

	state := voiceState{
		ActiveProvider:        s.cfg.VoiceProvider,
		ProviderReady:         ready,
		CloneCapableProviders: []string{tts.ProviderElevenLabs, tts.ProviderCartesia},
	}
	if sess != nil && sess.VoiceProfile != nil {
		state.VoiceProfile = sess.VoiceProfile
		state.ClonedVoiceAvailable = tts.CloneCapable(sess.VoiceProfile.Provider)
	}
	return state
}

func (s *Server) backendStatus() map[string]any {
	snap := s.runtime.Snapshot()
	return map[string]any{
		"aiEnabled":          snap.Enabled(),
		"aiProvider":         snap.Provider.ID(),
		"aiModelChat":        snap.ChatModel,
		"aiModelMemory":      snap.MemoryModel,
		"aiAdvancedThinking": s.cfg.AdvancedThinking,
		"aiConfidenceMin":    s.cfg.ConfidenceMin,
		"demoMode":           s.cfg.DemoMode,
		"voiceProvider":      s.cfg.VoiceProvider,
		"aiReason":           snap.Provider.Reason(),
		"allowedProviders":   providers.AllowedProviders,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	// An empty body means the default twin mode.
	_ = decodeLenient(r, &req)
	mode := sessionstore.ModeTwin
	if req.Mode != "" {
		mode = sessionstore.Mode(req.Mode)
	}

	sess, err := s.engine.CreateSession(mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":    sess.ID,
		"sessionMode":  sess.Mode,
		"freeMessages": s.cfg.FreeMessageDisplay(),
		"messageCount": sess.MessageCount,
		"profile":      sess.Profile,
		"consent":      sess.Consent,
		"userState":    sess.UserState,
		"voice":        s.voiceStateFor(sess),
		"expiresAt":    sess.ExpiresAt,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID  string           `json:"sessionId"`
		Text       string           `json:"text"`
		SpeechMeta *speech.TurnMeta `json:"speechMeta"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	meta := speech.TurnMeta{}
	if req.SpeechMeta != nil {
		meta = *req.SpeechMeta
	}

	// A disconnected client's turn still completes and commits its state;
	// the session must not be left half-mutated by a cancelled backend call.
	result, err := s.engine.SubmitTurn(context.WithoutCancel(r.Context()), req.SessionID, req.Text, meta)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}

	sess, _ := s.store.Get(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":       result.Answer,
		"sessionMode":  result.Mode,
		"messageCount": result.MessageCount,
		"freeMessages": s.cfg.FreeMessageDisplay(),
		"profile":      result.Profile,
		"userState":    result.UserState,
		"summary":      result.Summary,
		"voice":        s.voiceStateFor(sess),
		"expiresAt":    result.ExpiresAt,
	})
}

func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	var vErr *twin.ValidationError
	var bErr *twin.BackendError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, errorBody{Error: vErr.Error()})
	case errors.Is(err, twin.ErrNotFound):
		writeError(w, http.StatusNotFound, errorBody{Error: "Session not found"})
	case errors.Is(err, twin.ErrExpired):
		writeError(w, http.StatusGone, errorBody{Error: "Session expired, please start a new one."})
	case errors.Is(err, twin.ErrPaywall):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"code":         "PAYWALL_REQUIRED",
			"message":      "Free tier limit reached",
			"freeMessages": s.cfg.FreeMessageDisplay(),
		})
	case errors.As(err, &bErr):
		writeError(w, http.StatusServiceUnavailable, errorBody{
			Error:   "AI processing failed",
			Details: bErr.Err.Error(),
			Hint:    bErr.Hint,
		})
	default:
		writeError(w, http.StatusInternalServerError, errorBody{Error: "Internal error"})
	}
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID    string `json:"sessionId"`
		VoiceAdapt   *bool  `json:"consentVoiceAdapt"`
		TwinTraining *bool  `json:"consentTwinTraining"`
		VoiceClone   *bool  `json:"consentVoiceClone"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.VoiceAdapt == nil || req.TwinTraining == nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "Invalid consent payload"})
		return
	}

	sess, err := s.engine.GetSession(req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, errorBody{Error: "Session not found"})
		return
	}

	next := sessionstore.Consent{
		VoiceAdapt:   *req.VoiceAdapt,
		TwinTraining: *req.TwinTraining,
		VoiceClone:   sess.Consent.VoiceClone,
	}
	if req.VoiceClone != nil {
		next.VoiceClone = *req.VoiceClone
	}

	consent, err := s.engine.SetConsent(req.SessionID, next)
	if err != nil {
		writeError(w, http.StatusNotFound, errorBody{Error: "Session not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"sessionId": req.SessionID,
		"consent":   consent,
		"voice":     s.voiceStateFor(sess),
	})
}

func (s *Server) handleSessionMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Mode      string `json:"mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.engine.SetMode(req.SessionID, sessionstore.Mode(req.Mode))
	switch {
	case err == nil:
	case errors.Is(err, twin.ErrNotFound):
		writeError(w, http.StatusNotFound, errorBody{Error: "Session not found"})
		return
	default:
		writeError(w, http.StatusBadRequest, errorBody{Error: "Invalid session mode payload"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"sessionId":   req.SessionID,
		"sessionMode": req.Mode,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if !s.engine.DeleteSession(sessionID) {
		writeError(w, http.StatusNotFound, errorBody{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"deletedSessionId": sessionID,
	})
}

func (s *Server) handleAIConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider    string `json:"provider"`
		ModelChat   string `json:"modelChat"`
		ModelMemory string `json:"modelMemory"`
		Probe       bool   `json:"probe"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Provider == "" || req.ModelChat == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "Invalid AI config payload"})
		return
	}
	if req.ModelMemory == "" {
		req.ModelMemory = req.ModelChat
	}

	snap, err := s.runtime.Configure(req.Provider, req.ModelChat, req.ModelMemory)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	payload := map[string]any{
		"ok":            true,
		"aiEnabled":     snap.Enabled(),
		"aiProvider":    snap.Provider.ID(),
		"aiModelChat":   snap.ChatModel,
		"aiModelMemory": snap.MemoryModel,
		"aiReason":      snap.Provider.Reason(),
	}

	if req.Probe {
		probe := providers.Probe(r.Context(), snap)
		payload["probe"] = probe
		if !probe.OK {
			writeJSON(w, http.StatusServiceUnavailable, payload)
			return
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleAIProbe(w http.ResponseWriter, r *http.Request) {
	snap := s.runtime.Snapshot()
	probe := providers.Probe(r.Context(), snap)

	payload := map[string]any{"probe": probe}
	for k, v := range s.backendStatus() {
		payload[k] = v
	}

	if !probe.OK {
		status := http.StatusServiceUnavailable
		if !snap.Enabled() {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, payload)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"ok":           true,
		"version":      version.Version(),
		"freeMessages": s.cfg.FreeMessageDisplay(),
	}
	for k, v := range s.backendStatus() {
		payload[k] = v
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handlePrivacyProof(w http.ResponseWriter, r *http.Request) {
	snap := s.runtime.Snapshot()
	providerID := snap.Provider.ID()

	inferenceNote := "Inference is sent to cloud provider API for response generation."
	if providerID == providers.ProviderOllama {
		inferenceNote = "Inference runs locally through Ollama endpoint."
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"strictPrivacy":          s.cfg.StrictPrivacy,
		"aiProvider":             providerID,
		"aiEnabled":              snap.Enabled(),
		"aiModelChat":            snap.ChatModel,
		"aiModelMemory":          snap.MemoryModel,
		"storage":                "in-memory-only",
		"databaseUsed":           false,
		"logsContainMessageText": false,
		"cloudProcessing":        providerID == providers.ProviderOpenAI || providerID == providers.ProviderOpenRouter,
		"sessionTtlMinutes":      int(s.cfg.SessionTTL.Minutes()),
		"activeSessions":         s.store.Len(),
		"deleteSessionEndpoint":  "DELETE /api/session/{sessionId}",
		"notes": []string{
			"Sessions are stored only in server memory and are auto-deleted by TTL.",
			"Request logs include method/path/status/latency only; not chat content.",
			inferenceNote,
		},
	})
}

func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	base := map[string]any{
		"storage":           "in-memory-only",
		"sessionTtlMinutes": int(s.cfg.SessionTTL.Minutes()),
	}

	if sessionID == "" {
		base["policy"] = "Session data is auto-deleted after TTL or when user triggers delete."
		base["activeSessions"] = s.store.Len()
		writeJSON(w, http.StatusOK, base)
		return
	}

	sess, err := s.engine.GetSession(sessionID)
	if err != nil {
		base["error"] = "Session not found"
		writeJSON(w, http.StatusNotFound, base)
		return
	}

	base["expiresAt"] = sess.ExpiresAt
	base["now"] = time.Now()
	base["messageCount"] = sess.MessageCount
	base["sessionMode"] = sess.Mode
	base["consent"] = sess.Consent
	base["userState"] = sess.UserState
	base["voice"] = s.voiceStateFor(sess)
	writeJSON(w, http.StatusOK, base)
}
