package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel         = "anthropic/claude-sonnet-4"
	defaultTemperature   = 0.7
	defaultMaxTokens     = 2048
	defaultTimeout       = 60 * time.Second
	defaultStreamTimeout = 300 * time.Second
	defaultSimLatency    = 800 * time.Millisecond
)

// Config configures a Client. Zero values select defaults; an empty BaseURL
// selects the offline simulation mode.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Temperature overrides the sampling temperature when non-nil. An
	// explicit 0 is honored (deterministic sampling); nil selects the
	// default.
	Temperature   *float64
	MaxTokens     int
	Timeout       time.Duration
	StreamTimeout time.Duration
	// SimLatency is the artificial delay applied in simulation mode.
	SimLatency time.Duration
}

// Client talks to an OpenAI-compatible chat-completion gateway. When no base
// URL is configured it serves deterministic simulated replies instead; that
// is the designed default, never an error.
type Client struct {
	baseURL       string
	apiKey        string
	model         string
	temperature   float64
	maxTokens     int
	timeout       time.Duration
	streamTimeout time.Duration
	simLatency    time.Duration
	httpClient    *http.Client
}

// NewClient creates a completion client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		temperature:   defaultTemperature,
		maxTokens:     cfg.MaxTokens,
		timeout:       cfg.Timeout,
		streamTimeout: cfg.StreamTimeout,
		simLatency:    cfg.SimLatency,
		httpClient:    &http.Client{},
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if cfg.Temperature != nil {
		c.temperature = *cfg.Temperature
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.streamTimeout <= 0 {
		c.streamTimeout = defaultStreamTimeout
	}
	if c.simLatency < 0 {
		c.simLatency = 0
	} else if c.simLatency == 0 && cfg.BaseURL == "" {
		c.simLatency = defaultSimLatency
	}
	return c
}

// Simulated reports whether the client runs in offline simulation mode.
func (c *Client) Simulated() bool {
	return c.baseURL == ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single chat request and returns the full response.
func (c *Client) Complete(ctx context.Context, messages []Message) (Completion, error) {
	if c.Simulated() {
		return c.simulateComplete(ctx, messages)
	}

	start := time.Now()
	resp, err := c.do(ctx, messages, false, c.timeout)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Completion{}, fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Completion{}, fmt.Errorf("completion response has no choices")
	}

	model := parsed.Model
	if model == "" {
		model = "unknown"
	}
	return Completion{
		Content: parsed.Choices[0].Message.Content,
		Model:   model,
		Usage: Usage{
			Prompt:     parsed.Usage.PromptTokens,
			Completion: parsed.Usage.CompletionTokens,
			Total:      parsed.Usage.TotalTokens,
		},
		Latency: time.Since(start),
	}, nil
}

// StreamComplete opens a streaming chat request. The returned Stream is
// finite and not restartable: consume it with Recv until a Done delta or an
// error, or abandon it with Close.
func (c *Client) StreamComplete(ctx context.Context, messages []Message) (*Stream, error) {
	if c.Simulated() {
		return c.simulateStream(ctx, messages), nil
	}

	streamCtx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	resp, err := c.doWith(streamCtx, messages, true)
	if err != nil {
		cancel()
		return nil, err
	}
	return newStream(streamCtx, cancel, resp.Body), nil
}

// do issues a request under a fresh timeout context that is released before
// returning; only usable for non-streaming calls where the body is consumed
// by the caller promptly.
func (c *Client) do(ctx context.Context, messages []Message, stream bool, timeout time.Duration) (*http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, err := c.doWith(reqCtx, messages, stream)
	if err != nil {
		return nil, err
	}
	// Drain into memory so the deferred cancel cannot interrupt the read.
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, mapTransportErr(fmt.Errorf("reading completion response: %w", readErr))
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (c *Client) doWith(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportErr(fmt.Errorf("executing chat request: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return resp, nil
}

// mapTransportErr converts deadline and net timeouts into ErrTimeout so all
// callers can treat them uniformly with UpstreamError.
func mapTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
