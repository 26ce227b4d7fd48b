// Package openrouter implements the Provider interface against the OpenRouter
// HTTP API (https://openrouter.ai/api/v1).
package openrouter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/orchat/orchat/internal/provider"
	"github.com/orchat/orchat/internal/schema"
)

const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout applies per attempt.
	DefaultTimeout = 60 * time.Second
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries = 3

	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Config carries everything a Client needs. Nothing is read from ambient
// state: credential, timeout, and headers are passed in explicitly so
// independent clients can run concurrently with isolated configuration.
type Config struct {
	// APIKey is the bearer credential. Required.
	APIKey string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// Timeout is the per-attempt timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
	// ExtraHeaders are sent with every request (attribution headers like
	// HTTP-Referer and X-Title).
	ExtraHeaders map[string]string
	// MaxRetries overrides the default retry budget when non-zero.
	// Set to a negative value to disable retries entirely.
	MaxRetries int
	// Logger receives per-attempt debug events. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Client talks to the OpenRouter API. It is safe for concurrent use; each
// call carries its own retry state.
type Client struct {
	apiKey       string
	baseURL      string
	timeout      time.Duration
	extraHeaders map[string]string
	maxRetries   int
	log          zerolog.Logger

	// client handles bounded requests, streamClient streams: the former
	// enforces the timeout over the whole exchange, the latter only until
	// response headers so a long-lived stream is not cut off mid-read.
	client       *http.Client
	streamClient *http.Client
}

// New builds a Client from the config. A missing API key fails immediately,
// before any network attempt.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &provider.APIError{
			Kind:    provider.KindAuthMissing,
			Message: "OpenRouter API key is required",
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if cfg.MaxRetries == 0 {
		maxRetries = MaxRetries
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      timeout,
		extraHeaders: cfg.ExtraHeaders,
		maxRetries:   maxRetries,
		log:          log,
		client:       &http.Client{Timeout: timeout},
		streamClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: timeout},
		},
	}, nil
}

func (c *Client) Name() string { return "openrouter" }

func (c *Client) headers(extra map[string]string, stream bool) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiKey)
	h.Set("Content-Type", "application/json; charset=utf-8")
	if stream {
		h.Set("Accept", "text/event-stream; charset=utf-8")
	}
	for k, v := range c.extraHeaders {
		h.Set(k, v)
	}
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}

// do executes one logical request with the retry policy: up to maxRetries
// additional attempts on retryable failures (429, 5xx, network), doubling
// backoff with jitter between attempts. Non-retryable classifications return
// on first occurrence; an exhausted budget returns the last classified error.
// On success the caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, extra map[string]string, stream bool) (*http.Response, error) {
	client := c.client
	if stream {
		client = c.streamClient
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff + time.Duration(rand.Int63n(int64(backoff/4)+1))
			c.log.Debug().
				Int("attempt", attempt).
				Dur("backoff", delay).
				Err(lastErr).
				Str("path", path).
				Msg("retrying request")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header = c.headers(extra, stream)

		resp, err := client.Do(req)
		if err != nil {
			lastErr = provider.ClassifyTransport(err)
			if ae, ok := provider.AsAPIError(lastErr); !ok || !ae.Retryable() {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		apiErr := provider.Classify(resp.StatusCode, respBody)
		lastErr = apiErr
		if !apiErr.Retryable() {
			return nil, apiErr
		}
	}
	return nil, lastErr
}

// Wire format types for /chat/completions.

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []schema.Message `json:"messages"`
	Stream   bool             `json:"stream"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage"`
}

// usageFromWire validates a server-reported usage. A usage that breaks the
// total = prompt + completion invariant is dropped rather than committed.
func (c *Client) usageFromWire(w *wireUsage) *schema.Usage {
	if w == nil {
		return nil
	}
	u, err := schema.NewUsage(w.PromptTokens, w.CompletionTokens, w.TotalTokens)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping inconsistent usage from server")
		return nil
	}
	return &u
}

// Chat sends a non-streaming chat completion.
func (c *Client) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/chat/completions", payload, req.ExtraHeaders, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &provider.APIError{Kind: provider.KindRequest, Message: "malformed completion response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &provider.APIError{Kind: provider.KindRequest, Message: "completion response has no choices"}
	}

	return &provider.ChatResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage:   c.usageFromWire(parsed.Usage),
	}, nil
}

// Wire format types for /models.

type modelsResponse struct {
	Data []wireModel `json:"data"`
}

type wireModel struct {
	ID            string `json:"id"`
	ContextLength *int   `json:"context_length"`
	Pricing       struct {
		Prompt     flexPrice `json:"prompt"`
		Completion flexPrice `json:"completion"`
	} `json:"pricing"`
	Description string `json:"description"`
}

// flexPrice decodes a price that arrives either as a JSON number or as a
// quoted decimal string. Unparseable or negative values decode to nil
// (price unknown) instead of failing the whole catalog.
type flexPrice struct {
	value *float64
}

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil
	}
	p.value = &f
	return nil
}

// ListModels fetches the model catalog.
func (c *Client) ListModels(ctx context.Context) ([]schema.ModelInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/models", nil, nil, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &provider.APIError{Kind: provider.KindRequest, Message: "malformed models response", Err: err}
	}

	models := make([]schema.ModelInfo, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		models = append(models, schema.ModelInfo{
			ID:                m.ID,
			ContextLength:     m.ContextLength,
			PricingPrompt:     m.Pricing.Prompt.value,
			PricingCompletion: m.Pricing.Completion.value,
			Description:       m.Description,
		})
	}
	return models, nil
}

// ModelInfo looks up a single model in the catalog.
func (c *Client) ModelInfo(ctx context.Context, id string) (*schema.ModelInfo, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ID == id {
			return &models[i], nil
		}
	}
	return nil, &provider.APIError{
		Kind:    provider.KindRequest,
		Message: fmt.Sprintf("unknown model %q; run 'orchat models' to list available models", id),
	}
}
