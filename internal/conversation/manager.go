package conversation

import (
	"log/slog"
	"sync"
)

// historyWindow bounds the prompt context to the most recent entries
// (10 user/assistant turns).
const historyWindow = 20

// Entry is one role/content pair of the volatile history tier.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is a completed user/assistant exchange to record for a session.
type Turn struct {
	SessionKey       string
	UserID           string
	PersonaID        string
	ContextJSON      string
	UserMessage      string
	AssistantMessage string
	Model            string
	TotalTokens      int
	LatencyMs        int64
}

// SessionStore is the durable tier. Implemented by storage.Store.
// AppendSessionTurn must find-or-create the session record by key;
// DeleteSession must treat a missing record as success.
type SessionStore interface {
	AppendSessionTurn(t Turn) error
	DeleteSession(sessionKey string) error
}

// Manager owns per-session message history across two tiers: a volatile
// in-process map that feeds prompt context, and a best-effort durable store.
// The volatile tier is the source of truth for what goes back into prompts;
// durable-write failures are logged and never surfaced to callers.
//
// Entries have no TTL: they live until Clear or process exit, so long-running
// deployments with many distinct session keys grow without bound. Concurrent
// appends to the same key are last-writer-wins; the mutex protects map
// integrity only, not turn ordering.
type Manager struct {
	store SessionStore // nil disables durable persistence

	mu        sync.RWMutex
	histories map[string][]Entry
}

// NewManager creates a Manager backed by the given durable store. A nil
// store keeps the volatile tier only.
func NewManager(store SessionStore) *Manager {
	return &Manager{
		store:     store,
		histories: make(map[string][]Entry),
	}
}

// History returns the most recent entries for a session, oldest first,
// truncated to the history window. Unknown keys yield an empty slice.
func (m *Manager) History(sessionKey string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return trimWindow(m.histories[sessionKey])
}

// AppendTurn records a completed exchange: the volatile entry is replaced
// with the windowed history plus the new pair, then the durable tier is
// updated best-effort. A durable failure does not propagate — the caller's
// response already succeeded on the volatile path.
func (m *Manager) AppendTurn(t Turn) {
	m.mu.Lock()
	updated := append(trimWindow(m.histories[t.SessionKey]),
		Entry{Role: "user", Content: t.UserMessage},
		Entry{Role: "assistant", Content: t.AssistantMessage},
	)
	m.histories[t.SessionKey] = updated
	m.mu.Unlock()

	if m.store == nil {
		return
	}
	if err := m.store.AppendSessionTurn(t); err != nil {
		slog.Error("failed to persist conversation turn", "session", t.SessionKey, "error", err)
	}
}

// Clear removes the session from the volatile tier unconditionally and
// best-effort deletes the durable record. Clearing an unknown session is
// not an error.
func (m *Manager) Clear(sessionKey string) {
	m.mu.Lock()
	delete(m.histories, sessionKey)
	m.mu.Unlock()

	if m.store == nil {
		return
	}
	if err := m.store.DeleteSession(sessionKey); err != nil {
		slog.Error("failed to delete persisted conversation", "session", sessionKey, "error", err)
	}
}

func trimWindow(entries []Entry) []Entry {
	if len(entries) > historyWindow {
		entries = entries[len(entries)-historyWindow:]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
