package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlabs/twinengine/config"
	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/tts"
	"github.com/mirrorlabs/twinengine/twin"
)

func newTestServer(t *testing.T) (*Server, *sessionstore.MemoryStore) {
	t.Helper()

	cfg := config.Defaults()
	cfg.FreeMessages = 5

	store := sessionstore.NewMemoryStore(30 * time.Minute)
	runtime := providers.NewRuntime(providers.Settings{}, providers.ProviderFallback, "n/a", "n/a")
	engine := twin.NewEngine(store, runtime, twin.Config{
		FreeMessageLimit: cfg.FreeMessages,
		ConfidenceMin:    cfg.ConfidenceMin,
		AdvancedThinking: cfg.AdvancedThinking,
		AutoConsent:      true,
	})

	return NewServer(cfg, engine, store, runtime, nil), store
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestCreateSessionEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeResponse(t, rec)
	assert.NotEmpty(t, payload["sessionId"])
	assert.Equal(t, "twin", payload["sessionMode"])
	assert.Equal(t, float64(0), payload["messageCount"])
	assert.NotNil(t, payload["userState"])
	assert.NotNil(t, payload["voice"])
}

func TestChatEndpointWithDisabledBackend(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	rec := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"sessionId": sessionID,
		"text":      "I am overwhelmed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeResponse(t, rec)
	assert.NotEmpty(t, payload["answer"])
	assert.Equal(t, float64(1), payload["messageCount"])
}

func TestChatEndpointUnknownSession(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"sessionId": "missing",
		"text":      "hello",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEndpointExpiredSession(t *testing.T) {
	server, store := newTestServer(t)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	sess, err := store.Get(sessionID)
	require.NoError(t, err)
	sess.ExpiresAt = time.Now().Add(-time.Second)

	rec := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"sessionId": sessionID,
		"text":      "hello",
	})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestChatEndpointPaywall(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	for i := 0; i < 5; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
			"sessionId": sessionID,
			"text":      fmt.Sprintf("message number %d", i+1),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"sessionId": sessionID,
		"text":      "one more",
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "PAYWALL_REQUIRED", decodeResponse(t, rec)["code"])
}

func TestConsentEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	rec := doJSON(t, router, http.MethodPost, "/api/consent", map[string]any{
		"sessionId":           sessionID,
		"consentVoiceAdapt":   true,
		"consentTwinTraining": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	consent := decodeResponse(t, rec)["consent"].(map[string]any)
	assert.Equal(t, true, consent["voiceAdapt"])
	assert.Equal(t, false, consent["twinTraining"])

	// Missing flags reject before any mutation.
	rec = doJSON(t, router, http.MethodPost, "/api/consent", map[string]any{
		"sessionId": sessionID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionModeEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	rec := doJSON(t, router, http.MethodPost, "/api/session-mode", map[string]any{
		"sessionId": sessionID,
		"mode":      "coach",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := store.Get(sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionstore.ModeCoach, sess.Mode)

	rec = doJSON(t, router, http.MethodPost, "/api/session-mode", map[string]any{
		"sessionId": sessionID,
		"mode":      "mentor",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSessionEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	rec := doJSON(t, router, http.MethodDelete, "/api/session/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/session/"+sessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeResponse(t, rec)
	assert.Equal(t, true, payload["ok"])
	assert.NotEmpty(t, payload["version"])
	assert.Equal(t, false, payload["aiEnabled"])
	assert.Equal(t, "fallback", payload["aiProvider"])
}

func TestAIConfigEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/ai-config", map[string]any{
		"provider":  "bard",
		"modelChat": "some-model",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/ai-config", map[string]any{
		"provider":  "fallback",
		"modelChat": "n/a",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeResponse(t, rec)
	assert.Equal(t, false, payload["aiEnabled"])
	assert.Equal(t, "fallback", payload["aiProvider"])
}

func TestAIProbeEndpointDisabledBackend(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/ai-probe", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	probe := decodeResponse(t, rec)["probe"].(map[string]any)
	assert.Equal(t, false, probe["ok"])
	assert.NotEmpty(t, probe["hint"])
}

func TestPrivacyProofEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/privacy-proof", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeResponse(t, rec)
	assert.Equal(t, "in-memory-only", payload["storage"])
	assert.Equal(t, false, payload["databaseUsed"])
	assert.Equal(t, false, payload["logsContainMessageText"])
}

func TestRetentionEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/retention", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeResponse(t, rec)["policy"])

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	rec = doJSON(t, router, http.MethodGet, "/api/retention?sessionId="+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeResponse(t, rec)
	assert.NotNil(t, payload["expiresAt"])
	assert.Equal(t, float64(0), payload["messageCount"])

	rec = doJSON(t, router, http.MethodGet, "/api/retention?sessionId=missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoiceSpeakElevenLabsWithoutConsent(t *testing.T) {
	cfg := config.Defaults()
	cfg.VoiceProvider = tts.ProviderElevenLabs
	cfg.ElevenLabsAPIKey = "test-key"

	store := sessionstore.NewMemoryStore(30 * time.Minute)
	runtime := providers.NewRuntime(providers.Settings{}, providers.ProviderFallback, "n/a", "n/a")
	engine := twin.NewEngine(store, runtime, twin.Config{FreeMessageLimit: 5})
	server := NewServer(cfg, engine, store, runtime, nil)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	rec := doJSON(t, router, http.MethodPost, "/api/voice/speak", map[string]any{
		"sessionId": sessionID,
		"text":      "hello",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Voice clone consent required", decodeResponse(t, rec)["error"])
}

func TestVoiceSpeakBrowserProviderRejected(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	created := decodeResponse(t, doJSON(t, router, http.MethodPost, "/api/session", nil))
	sessionID := created["sessionId"].(string)

	rec := doJSON(t, router, http.MethodPost, "/api/voice/speak", map[string]any{
		"sessionId": sessionID,
		"text":      "hello",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
