package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io"

	// ElevenLabsModelMultilingual is the default synthesis model.
	ElevenLabsModelMultilingual = "eleven_multilingual_v2"

	defaultElevenLabsTimeout = 30 * time.Second
)

// Voice settings tuned for a close, natural twin voice.
const (
	elevenLabsStability       = 0.42
	elevenLabsSimilarityBoost = 0.78
	elevenLabsStyle           = 0.34
)

// ElevenLabsService synthesizes and clones voices through the ElevenLabs API.
type ElevenLabsService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	model   string
}

// ElevenLabsOption configures the ElevenLabs service.
type ElevenLabsOption func(*ElevenLabsService)

// WithElevenLabsBaseURL sets a custom base URL.
func WithElevenLabsBaseURL(url string) ElevenLabsOption {
	return func(s *ElevenLabsService) { s.baseURL = url }
}

// WithElevenLabsClient sets a custom HTTP client.
func WithElevenLabsClient(client *http.Client) ElevenLabsOption {
	return func(s *ElevenLabsService) { s.client = client }
}

// WithElevenLabsModel sets the synthesis model.
func WithElevenLabsModel(model string) ElevenLabsOption {
	return func(s *ElevenLabsService) { s.model = model }
}

// NewElevenLabs creates an ElevenLabs service.
func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) *ElevenLabsService {
	s := &ElevenLabsService{
		apiKey:  apiKey,
		baseURL: elevenLabsBaseURL,
		client:  &http.Client{Timeout: defaultElevenLabsTimeout},
		model:   ElevenLabsModelMultilingual,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *ElevenLabsService) Name() string { return ProviderElevenLabs }

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsSynthesisRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to MP3 audio with the given cloned voice.
func (s *ElevenLabsService) Synthesize(ctx context.Context, text string, config SynthesisConfig) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	body, err := json.Marshal(elevenLabsSynthesisRequest{
		Text:    text,
		ModelID: s.model,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       elevenLabsStability,
			SimilarityBoost: elevenLabsSimilarityBoost,
			Style:           elevenLabsStyle,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, config.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &SynthesisError{Provider: ProviderElevenLabs, Message: "synthesis request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		message := string(detail)
		if message == "" {
			message = "voice synthesis failed"
		}
		return nil, &SynthesisError{
			Provider: ProviderElevenLabs,
			Message:  message,
			Hint:     VoiceErrorHint(message, ProviderElevenLabs),
		}
	}
	return resp.Body, nil
}

// Clone creates a new cloned voice from an uploaded sample.
func (s *ElevenLabsService) Clone(ctx context.Context, cloneReq CloneRequest) (CloneResult, error) {
	label := cloneReq.Label
	if label == "" {
		label = "Twin Voice " + time.Now().Format(time.RFC3339)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("name", label); err != nil {
		return CloneResult{}, err
	}
	if err := writer.WriteField("description", "Session-consented twin voice profile"); err != nil {
		return CloneResult{}, err
	}
	part, err := writer.CreateFormFile("files", "sample.webm")
	if err != nil {
		return CloneResult{}, err
	}
	if _, err := part.Write(cloneReq.Audio); err != nil {
		return CloneResult{}, err
	}
	if err := writer.Close(); err != nil {
		return CloneResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/voices/add", &buf)
	if err != nil {
		return CloneResult{}, err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return CloneResult{}, &SynthesisError{Provider: ProviderElevenLabs, Message: "voice clone request failed", Cause: err}
	}
	defer resp.Body.Close()

	var payload struct {
		VoiceID string `json:"voice_id"`
		Detail  struct {
			Message string `json:"message"`
		} `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && resp.StatusCode == http.StatusOK {
		return CloneResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		message := payload.Detail.Message
		if message == "" {
			message = payload.Message
		}
		if message == "" {
			message = "voice clone creation failed"
		}
		return CloneResult{}, &SynthesisError{
			Provider: ProviderElevenLabs,
			Message:  message,
			Hint:     VoiceErrorHint(message, ProviderElevenLabs),
		}
	}

	return CloneResult{
		VoiceID:   payload.VoiceID,
		Provider:  ProviderElevenLabs,
		Label:     label,
		CreatedAt: time.Now(),
	}, nil
}
