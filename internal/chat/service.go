package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vetwatch/vetwatch/internal/agent"
	"github.com/vetwatch/vetwatch/internal/conversation"
	"github.com/vetwatch/vetwatch/internal/gateway"
)

// Service orchestrates one expert-chat exchange: persona lookup, prompt
// assembly, history injection, the gateway call, and history recording.
type Service struct {
	registry *agent.Registry
	client   *gateway.Client
	conv     *conversation.Manager
}

// NewService wires the chat pipeline together.
func NewService(registry *agent.Registry, client *gateway.Client, conv *conversation.Manager) *Service {
	return &Service{registry: registry, client: client, conv: conv}
}

// Request is one inbound chat turn.
type Request struct {
	PersonaID  string
	Message    string
	SessionKey string
	UserID     string
	Context    *agent.Context
}

// Reply is the completed response for a non-streaming turn.
type Reply struct {
	Content   string
	Persona   agent.Persona
	Model     string
	Usage     gateway.Usage
	LatencyMs int64
}

// AgentSummary identifies the responding persona inside relay frames and
// chat responses.
type AgentSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Frame is one streaming relay event. Type is "start", "chunk", "end",
// or "error"; the other fields are populated per type.
type Frame struct {
	Type     string         `json:"type"`
	Agent    *AgentSummary  `json:"agent,omitempty"`
	Content  string         `json:"content,omitempty"`
	Metadata *FrameMetadata `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// FrameMetadata rides on the terminal "end" frame.
type FrameMetadata struct {
	LatencyMs int64 `json:"latency"`
}

// FrameWriter receives relay frames in order. Implemented by the SSE
// response writer; a write error means the client is gone.
type FrameWriter interface {
	WriteFrame(Frame) error
}

// sessionKey returns the caller-provided key or derives the default
// userID-personaID key.
func (r Request) sessionKey() string {
	if r.SessionKey != "" {
		return r.SessionKey
	}
	userID := r.UserID
	if userID == "" {
		userID = "anonymous"
	}
	return userID + "-" + r.PersonaID
}

func (r Request) contextJSON() string {
	if r.Context == nil {
		return ""
	}
	b, err := json.Marshal(r.Context)
	if err != nil {
		return ""
	}
	return string(b)
}

// buildMessages assembles the outbound message list: system prompt, then
// prior history oldest first, then the new user message.
func (s *Service) buildMessages(req Request, key string) ([]gateway.Message, error) {
	system, err := s.registry.BuildSystemPrompt(req.PersonaID, req.Context)
	if err != nil {
		return nil, err
	}

	history := s.conv.History(key)
	messages := make([]gateway.Message, 0, len(history)+2)
	messages = append(messages, gateway.Message{Role: "system", Content: system})
	for _, e := range history {
		messages = append(messages, gateway.Message{Role: e.Role, Content: e.Content})
	}
	messages = append(messages, gateway.Message{Role: "user", Content: req.Message})
	return messages, nil
}

// Chat runs a full non-streaming turn. Persona lookup happens before any
// network or storage work, so an unknown persona never touches the
// gateway. The turn is recorded only after the completion succeeds.
func (s *Service) Chat(ctx context.Context, req Request) (Reply, error) {
	persona, err := s.registry.Get(req.PersonaID)
	if err != nil {
		return Reply{}, err
	}

	key := req.sessionKey()
	messages, err := s.buildMessages(req, key)
	if err != nil {
		return Reply{}, err
	}

	completion, err := s.client.Complete(ctx, messages)
	if err != nil {
		return Reply{}, fmt.Errorf("completing chat for %s: %w", req.PersonaID, err)
	}

	latencyMs := completion.Latency.Milliseconds()
	s.conv.AppendTurn(conversation.Turn{
		SessionKey:       key,
		UserID:           req.UserID,
		PersonaID:        req.PersonaID,
		ContextJSON:      req.contextJSON(),
		UserMessage:      req.Message,
		AssistantMessage: completion.Content,
		Model:            completion.Model,
		TotalTokens:      completion.Usage.Total,
		LatencyMs:        latencyMs,
	})

	return Reply{
		Content:   completion.Content,
		Persona:   persona,
		Model:     completion.Model,
		Usage:     completion.Usage,
		LatencyMs: latencyMs,
	}, nil
}

// StreamChat runs a streaming turn, relaying deltas to w as chunk frames
// between a start and an end frame. Failures before the first frame are
// returned to the caller; failures after the start frame are reported as
// an error frame because the response is already committed. A turn is
// recorded in history only when the stream finishes cleanly.
func (s *Service) StreamChat(ctx context.Context, req Request, w FrameWriter) error {
	persona, err := s.registry.Get(req.PersonaID)
	if err != nil {
		return err
	}

	key := req.sessionKey()
	messages, err := s.buildMessages(req, key)
	if err != nil {
		return err
	}

	summary := &AgentSummary{ID: persona.ID, Name: persona.Name, Avatar: persona.Avatar}
	if err := w.WriteFrame(Frame{Type: "start", Agent: summary}); err != nil {
		return fmt.Errorf("writing start frame: %w", err)
	}
	started := time.Now()

	stream, err := s.client.StreamComplete(ctx, messages)
	if err != nil {
		s.writeErrorFrame(w, err)
		return nil
	}
	defer stream.Close()

	var transcript []byte
	var model string
	for {
		delta, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.writeErrorFrame(w, err)
			return nil
		}
		if delta.Model != "" {
			model = delta.Model
		}
		if delta.Done {
			break
		}
		transcript = append(transcript, delta.Content...)
		if err := w.WriteFrame(Frame{Type: "chunk", Content: delta.Content}); err != nil {
			// Client disconnected mid-stream; abandon without recording.
			return fmt.Errorf("writing chunk frame: %w", err)
		}
	}

	latencyMs := time.Since(started).Milliseconds()
	if err := w.WriteFrame(Frame{Type: "end", Metadata: &FrameMetadata{LatencyMs: latencyMs}}); err != nil {
		return fmt.Errorf("writing end frame: %w", err)
	}

	s.conv.AppendTurn(conversation.Turn{
		SessionKey:       key,
		UserID:           req.UserID,
		PersonaID:        req.PersonaID,
		ContextJSON:      req.contextJSON(),
		UserMessage:      req.Message,
		AssistantMessage: string(transcript),
		Model:            model,
		LatencyMs:        latencyMs,
	})
	return nil
}

func (s *Service) writeErrorFrame(w FrameWriter, cause error) {
	slog.Error("chat stream failed after start", "error", cause)
	if err := w.WriteFrame(Frame{Type: "error", Error: "upstream completion failed"}); err != nil {
		slog.Warn("failed to deliver error frame", "error", err)
	}
}

// ClearSession removes the session's history from both tiers.
func (s *Service) ClearSession(sessionKey string) {
	s.conv.Clear(sessionKey)
}
