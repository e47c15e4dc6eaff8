package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetwatch/vetwatch/internal/agent"
	"github.com/vetwatch/vetwatch/internal/chat"
	"github.com/vetwatch/vetwatch/internal/storage"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Registry *agent.Registry
	Chat     *chat.Service
	Store    *storage.Store
	Token    string // optional; empty disables bearer auth on /api
}

// NewHandler returns the full HTTP surface: /health unauthenticated, the
// /api tree behind optional bearer auth.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", handleListAgents(deps.Registry))
			r.Post("/chat", handleChat(deps.Chat))
			r.Post("/chat/stream", handleChatStream(deps.Chat))
			r.Delete("/conversations/{id}", handleDeleteConversation(deps.Chat))
			r.Get("/sessions", handleListSessions(deps.Store))
			r.Get("/sessions/{id}", handleGetSession(deps.Store))
			r.Get("/{id}", handleGetAgent(deps.Registry))
		})

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", handleListSites(deps.Store))
			r.Post("/", handleCreateSite(deps.Store))
			r.Get("/{id}", handleGetSite(deps.Store))
			r.Put("/{id}", handleUpdateSite(deps.Store))
			r.Delete("/{id}", handleDeleteSite(deps.Store))
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", handleListAlerts(deps.Store))
			r.Post("/", handleCreateAlert(deps.Store))
			r.Get("/stats", handleAlertStats(deps.Store))
			r.Put("/{id}/acknowledge", handleAcknowledgeAlert(deps.Store))
			r.Put("/{id}/resolve", handleResolveAlert(deps.Store))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", handleListReports(deps.Store))
			r.Post("/", handleCreateReport(deps.Store))
			r.Get("/{id}", handleGetReport(deps.Store))
			r.Delete("/{id}", handleDeleteReport(deps.Store))
		})

		r.Route("/monitoring", func(r chi.Router) {
			r.Get("/", handleListMonitoringData(deps.Store))
			r.Post("/", handleCreateMonitoringData(deps.Store))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
