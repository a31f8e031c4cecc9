package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mirrorlabs/twinengine/logger"
	"github.com/mirrorlabs/twinengine/types"
)

const (
	defaultRequestTimeout = 60 * time.Second

	// defaultRequestsPerSecond limits outbound generation calls per provider.
	defaultRequestsPerSecond = 5
	defaultBurst             = 10
)

// OpenAICompatProvider implements the Provider interface against any
// OpenAI-compatible HTTP endpoint (OpenAI, OpenRouter, Ollama).
type OpenAICompatProvider struct {
	id      string
	baseURL string
	apiKey  string
	headers map[string]string
	reason  string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures an OpenAICompatProvider.
type Option func(*OpenAICompatProvider)

// WithHeaders sets extra headers sent on every request
// (e.g. OpenRouter attribution headers).
func WithHeaders(headers map[string]string) Option {
	return func(p *OpenAICompatProvider) {
		p.headers = headers
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *OpenAICompatProvider) {
		p.client = client
	}
}

// WithRateLimit overrides the default client-side rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(p *OpenAICompatProvider) {
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewOpenAICompat creates a provider for an OpenAI-compatible endpoint.
func NewOpenAICompat(id, baseURL, apiKey, reason string, opts ...Option) *OpenAICompatProvider {
	p := &OpenAICompatProvider{
		id:      id,
		baseURL: baseURL,
		apiKey:  apiKey,
		reason:  reason,
		client:  &http.Client{Timeout: defaultRequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the provider identifier.
func (p *OpenAICompatProvider) ID() string { return p.id }

// Enabled reports that this backend can serve generation calls.
func (p *OpenAICompatProvider) Enabled() bool { return true }

// Reason explains how this provider was configured.
func (p *OpenAICompatProvider) Reason() string { return p.reason }

// Close releases idle HTTP connections.
func (p *OpenAICompatProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Wire structures for the two request shapes.
type responsesRequest struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	Temperature     float32        `json:"temperature"`
	MaxOutputTokens int            `json:"max_output_tokens"`
}

type chatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []inputMessage `json:"messages"`
	Temperature float32        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat sends a generation request. It tries the Responses API first; when
// that path is unavailable or yields empty text it retries the request
// against the chat-completions endpoint. Backends are not guaranteed to agree
// on response shape, so both decoders must be supported.
func (p *OpenAICompatProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return ChatResponse{}, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	input := buildInput(req)

	logger.BackendCall(p.id, req.Model, "chat", len(input))

	body, status, err := p.post(ctx, "/responses", responsesRequest{
		Model:           req.Model,
		Input:           input,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	})
	if err == nil && status == http.StatusOK {
		if text := ExtractResponsesText(body); text != "" {
			latency := time.Since(start)
			logger.BackendResponse(p.id, req.Model, latency.Milliseconds())
			return ChatResponse{Content: text, Latency: latency, Raw: body}, nil
		}
	} else if err != nil {
		// Transport failure: the chat-completions endpoint will not fare
		// better on the same connection error.
		logger.BackendError(p.id, req.Model, err)
		return ChatResponse{}, fmt.Errorf("backend request failed: %w", err)
	}

	maxTokens := req.MaxTokens / 2
	if maxTokens < 64 {
		maxTokens = 64
	}

	body, status, err = p.post(ctx, "/chat/completions", chatCompletionRequest{
		Model:       req.Model,
		Messages:    input,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		logger.BackendError(p.id, req.Model, err)
		return ChatResponse{}, fmt.Errorf("backend request failed: %w", err)
	}
	if status != http.StatusOK {
		apiErr := &APIError{Provider: p.id, StatusCode: status, Message: extractErrorMessage(body)}
		logger.BackendError(p.id, req.Model, apiErr)
		return ChatResponse{Raw: body}, apiErr
	}

	latency := time.Since(start)
	logger.BackendResponse(p.id, req.Model, latency.Milliseconds())
	return ChatResponse{
		Content: ExtractChatCompletionText(body),
		Latency: latency,
		Raw:     body,
	}, nil
}

func buildInput(req ChatRequest) []inputMessage {
	input := make([]inputMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		input = append(input, inputMessage{Role: types.RoleSystem, Content: req.System})
	}
	for _, msg := range req.Messages {
		input = append(input, inputMessage{Role: msg.Role, Content: msg.Content})
	}
	return input
}

func (p *OpenAICompatProvider) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for key, value := range p.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
