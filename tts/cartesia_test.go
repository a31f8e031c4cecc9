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

func TestCartesiaSynthesize(t *testing.T) {
	var captured cartesiaSynthesisRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tts/bytes", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.NotEmpty(t, r.Header.Get("Cartesia-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	svc := NewCartesia("test-key", WithCartesiaBaseURL(server.URL))
	reader, err := svc.Synthesize(context.Background(), "hello there", SynthesisConfig{VoiceID: "voice-1"})
	require.NoError(t, err)
	defer reader.Close()

	audio, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(audio))

	assert.Equal(t, CartesiaModelSonic, captured.ModelID)
	assert.Equal(t, "hello there", captured.Transcript)
	assert.Equal(t, "id", captured.Voice.Mode)
	assert.Equal(t, "voice-1", captured.Voice.ID)
	assert.Equal(t, "mp3", captured.OutputFormat.Container)
	assert.Equal(t, "en", captured.Language)
}

func TestCartesiaSynthesizeEmptyText(t *testing.T) {
	svc := NewCartesia("test-key")
	_, err := svc.Synthesize(context.Background(), "", SynthesisConfig{VoiceID: "voice-1"})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestCartesiaSynthesizeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	svc := NewCartesia("test-key", WithCartesiaBaseURL(server.URL))
	_, err := svc.Synthesize(context.Background(), "hello", SynthesisConfig{VoiceID: "voice-1"})

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, ProviderCartesia, synthErr.Provider)
	assert.Contains(t, synthErr.Hint, "Cartesia")
}

func TestCartesiaClone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voices/clone", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "My Voice", r.FormValue("name"))
		assert.Equal(t, CartesiaCloneModeSimilarity, r.FormValue("mode"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "cloned-voice-9"})
	}))
	defer server.Close()

	svc := NewCartesia("test-key", WithCartesiaBaseURL(server.URL))
	result, err := svc.Clone(context.Background(), CloneRequest{
		Label:    "My Voice",
		Audio:    []byte("fake-audio"),
		MimeType: "audio/webm",
	})
	require.NoError(t, err)

	assert.Equal(t, "cloned-voice-9", result.VoiceID)
	assert.Equal(t, ProviderCartesia, result.Provider)
	assert.Equal(t, "My Voice", result.Label)
	assert.False(t, result.CreatedAt.IsZero())
}
