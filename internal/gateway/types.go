package gateway

import (
	"errors"
	"fmt"
	"time"
)

// Message is one chat message sent to the completion gateway.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting for a completed request.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Completion is the result of a non-streaming chat request.
type Completion struct {
	Content string
	Model   string
	Usage   Usage
	Latency time.Duration
}

// Delta is one increment of a streamed completion. A Done delta carries no
// content and terminates the stream.
type Delta struct {
	Content string
	Model   string
	Done    bool
}

// ErrTimeout marks an upstream call that exceeded its deadline. Callers
// treat it exactly like an UpstreamError.
var ErrTimeout = errors.New("upstream timeout")

// UpstreamError is a non-success HTTP response from the gateway.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed: status %d: %s", e.StatusCode, e.Body)
}

// chatRequest is the JSON body for POST /v1/chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// chatResponse is the non-streaming response shape.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// streamChunk is one parsed SSE frame of a streaming response.
type streamChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
