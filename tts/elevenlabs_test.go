package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElevenLabsSynthesize(t *testing.T) {
	var captured elevenLabsSynthesisRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-7", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	svc := NewElevenLabs("test-key", WithElevenLabsBaseURL(server.URL))
	reader, err := svc.Synthesize(context.Background(), "good morning", SynthesisConfig{VoiceID: "voice-7"})
	require.NoError(t, err)
	defer reader.Close()

	audio, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(audio))

	assert.Equal(t, "good morning", captured.Text)
	assert.Equal(t, ElevenLabsModelMultilingual, captured.ModelID)
	assert.InDelta(t, 0.42, captured.VoiceSettings.Stability, 1e-9)
	assert.InDelta(t, 0.78, captured.VoiceSettings.SimilarityBoost, 1e-9)
	assert.True(t, captured.VoiceSettings.UseSpeakerBoost)
}

func TestElevenLabsSynthesizeUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid api key"))
	}))
	defer server.Close()

	svc := NewElevenLabs("bad-key", WithElevenLabsBaseURL(server.URL))
	_, err := svc.Synthesize(context.Background(), "hello", SynthesisConfig{VoiceID: "voice-7"})

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Contains(t, synthErr.Hint, "ELEVENLABS_API_KEY")
}

func TestElevenLabsClone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices/add", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Sample Voice", r.FormValue("name"))
		_ = json.NewEncoder(w).Encode(map[string]string{"voice_id": "el-voice-3"})
	}))
	defer server.Close()

	svc := NewElevenLabs("test-key", WithElevenLabsBaseURL(server.URL))
	result, err := svc.Clone(context.Background(), CloneRequest{
		Label: "Sample Voice",
		Audio: []byte("fake-audio"),
	})
	require.NoError(t, err)

	assert.Equal(t, "el-voice-3", result.VoiceID)
	assert.Equal(t, ProviderElevenLabs, result.Provider)
}

func TestElevenLabsCloneFailureCarriesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": {"message": "sample too short"}}`))
	}))
	defer server.Close()

	svc := NewElevenLabs("test-key", WithElevenLabsBaseURL(server.URL))
	_, err := svc.Clone(context.Background(), CloneRequest{Audio: []byte("x")})

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "sample too short", synthErr.Message)
}
