package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetwatch/vetwatch/internal/agent"
	"github.com/vetwatch/vetwatch/internal/chat"
	"github.com/vetwatch/vetwatch/internal/gateway"
	"github.com/vetwatch/vetwatch/internal/storage"
)

// ChatRequest is the inbound body for chat and chat/stream.
type ChatRequest struct {
	AgentID   string         `json:"agentId"`
	Message   string         `json:"message"`
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId"`
	Context   *agent.Context `json:"context"`
}

type chatResponseData struct {
	Content  string            `json:"content"`
	Agent    chat.AgentSummary `json:"agent"`
	Metadata chatMetadata      `json:"metadata"`
}

type chatMetadata struct {
	Model   string `json:"model"`
	Tokens  int    `json:"tokens"`
	Latency int64  `json:"latency"`
}

func handleListAgents(registry *agent.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, registry.All())
	}
}

func handleGetAgent(registry *agent.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := registry.Get(chi.URLParam(r, "id"))
		if errors.Is(err, agent.ErrPersonaNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "agent not found")
			return
		}
		writeData(w, p)
	}
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chat.Request, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return chat.Request{}, false
	}
	if req.AgentID == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "agentId is required")
		return chat.Request{}, false
	}
	if req.Message == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
		return chat.Request{}, false
	}

	return chat.Request{
		PersonaID:  req.AgentID,
		Message:    req.Message,
		SessionKey: req.SessionID,
		UserID:     req.UserID,
		Context:    req.Context,
	}, true
}

func chatErrorStatus(err error) (int, string) {
	var ue *gateway.UpstreamError
	switch {
	case errors.Is(err, agent.ErrPersonaNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &ue), errors.Is(err, gateway.ErrTimeout):
		return http.StatusBadGateway, "api_error"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}

func handleChat(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeChatRequest(w, r)
		if !ok {
			return
		}

		reply, err := svc.Chat(r.Context(), req)
		if err != nil {
			code, errType := chatErrorStatus(err)
			httpError(w, code, errType, "chat failed: %v", err)
			return
		}

		writeData(w, chatResponseData{
			Content: reply.Content,
			Agent: chat.AgentSummary{
				ID:     reply.Persona.ID,
				Name:   reply.Persona.Name,
				Avatar: reply.Persona.Avatar,
			},
			Metadata: chatMetadata{
				Model:   reply.Model,
				Tokens:  reply.Usage.Total,
				Latency: reply.LatencyMs,
			},
		})
	}
}

func handleChatStream(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeChatRequest(w, r)
		if !ok {
			return
		}

		sse, err := newSSEWriter(w)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}

		// Failures after the first frame are reported in-band; only
		// pre-stream failures surface here.
		if err := svc.StreamChat(r.Context(), req, sse); err != nil && !sse.started {
			code, errType := chatErrorStatus(err)
			httpError(w, code, errType, "chat failed: %v", err)
		}
	}
}

func handleDeleteConversation(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Clearing is idempotent: unknown sessions acknowledge too.
		svc.ClearSession(chi.URLParam(r, "id"))
		writeData(w, map[string]string{"status": "cleared"})
	}
}

func handleListSessions(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		sessions, err := store.ListConversations(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list sessions: %v", err)
			return
		}
		if sessions == nil {
			sessions = []storage.Conversation{}
		}
		writeData(w, sessions)
	}
}

func handleGetSession(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := store.GetConversation(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get session: %v", err)
			return
		}
		writeData(w, session)
	}
}
