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
	cartesiaBaseURL = "https://api.cartesia.ai"

	// CartesiaModelSonic is the default low-latency synthesis model.
	CartesiaModelSonic = "sonic-2"

	// CartesiaCloneModeSimilarity prioritizes likeness over expressiveness.
	CartesiaCloneModeSimilarity = "similarity"

	cartesiaAPIVersion       = "2024-06-10"
	defaultCartesiaTimeout   = 30 * time.Second
	cartesiaOutputBitRate    = 128000
	cartesiaOutputSampleRate = 44100
)

// CartesiaService synthesizes and clones voices through the Cartesia API.
type CartesiaService struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	model     string
	cloneMode string
}

// CartesiaOption configures the Cartesia service.
type CartesiaOption func(*CartesiaService)

// WithCartesiaBaseURL sets a custom base URL.
func WithCartesiaBaseURL(url string) CartesiaOption {
	return func(s *CartesiaService) { s.baseURL = url }
}

// WithCartesiaClient sets a custom HTTP client.
func WithCartesiaClient(client *http.Client) CartesiaOption {
	return func(s *CartesiaService) { s.client = client }
}

// WithCartesiaModel sets the synthesis model.
func WithCartesiaModel(model string) CartesiaOption {
	return func(s *CartesiaService) { s.model = model }
}

// WithCartesiaCloneMode sets the voice cloning mode.
func WithCartesiaCloneMode(mode string) CartesiaOption {
	return func(s *CartesiaService) { s.cloneMode = mode }
}

// NewCartesia creates a Cartesia service.
func NewCartesia(apiKey string, opts ...CartesiaOption) *CartesiaService {
	s := &CartesiaService{
		apiKey:    apiKey,
		baseURL:   cartesiaBaseURL,
		client:    &http.Client{Timeout: defaultCartesiaTimeout},
		model:     CartesiaModelSonic,
		cloneMode: CartesiaCloneModeSimilarity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *CartesiaService) Name() string { return ProviderCartesia }

type cartesiaVoiceConfig struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	SampleRate int    `json:"sample_rate"`
	BitRate    int    `json:"bit_rate"`
}

type cartesiaSynthesisRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoiceConfig  `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
	Language     string               `json:"language,omitempty"`
}

// Synthesize converts text to MP3 audio with the given voice.
func (s *CartesiaService) Synthesize(ctx context.Context, text string, config SynthesisConfig) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	language := config.Language
	if language == "" {
		language = "en"
	}
	body, err := json.Marshal(cartesiaSynthesisRequest{
		ModelID:    s.model,
		Transcript: text,
		Voice:      cartesiaVoiceConfig{Mode: "id", ID: config.VoiceID},
		OutputFormat: cartesiaOutputFormat{
			Container:  "mp3",
			SampleRate: cartesiaOutputSampleRate,
			BitRate:    cartesiaOutputBitRate,
		},
		Language: language,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/tts/bytes", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &SynthesisError{Provider: ProviderCartesia, Message: "synthesis request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		message := string(detail)
		if message == "" {
			message = fmt.Sprintf("voice synthesis failed, status code: %d", resp.StatusCode)
		}
		return nil, &SynthesisError{
			Provider: ProviderCartesia,
			Message:  message,
			Hint:     VoiceErrorHint(message, ProviderCartesia),
		}
	}
	return resp.Body, nil
}

// Clone creates a new cloned voice from an uploaded sample.
func (s *CartesiaService) Clone(ctx context.Context, cloneReq CloneRequest) (CloneResult, error) {
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
	if err := writer.WriteField("mode", s.cloneMode); err != nil {
		return CloneResult{}, err
	}
	if err := writer.WriteField("language", "en"); err != nil {
		return CloneResult{}, err
	}
	part, err := writer.CreateFormFile("clip", "sample.webm")
	if err != nil {
		return CloneResult{}, err
	}
	if _, err := part.Write(cloneReq.Audio); err != nil {
		return CloneResult{}, err
	}
	if err := writer.Close(); err != nil {
		return CloneResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/voices/clone", &buf)
	if err != nil {
		return CloneResult{}, err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return CloneResult{}, &SynthesisError{Provider: ProviderCartesia, Message: "voice clone request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		message := string(detail)
		if message == "" {
			message = fmt.Sprintf("voice clone creation failed, status code: %d", resp.StatusCode)
		}
		return CloneResult{}, &SynthesisError{
			Provider: ProviderCartesia,
			Message:  message,
			Hint:     VoiceErrorHint(message, ProviderCartesia),
		}
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CloneResult{}, err
	}

	return CloneResult{
		VoiceID:   payload.ID,
		Provider:  ProviderCartesia,
		Label:     label,
		CreatedAt: time.Now(),
	}, nil
}

func (s *CartesiaService) setHeaders(req *http.Request) {
	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaAPIVersion)
}
