package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vetwatch/vetwatch/internal/conversation"
)

// AppendSessionTurn persists one user/assistant exchange, creating the
// conversation record on first use of a session key. Implements
// conversation.SessionStore.
func (s *Store) AppendSessionTurn(t conversation.Turn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning turn transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	var convID string
	err = tx.QueryRow("SELECT id FROM conversations WHERE session_key = ?", t.SessionKey).Scan(&convID)
	if err == sql.ErrNoRows {
		convID = uuid.NewString()
		userID := t.UserID
		if userID == "" {
			userID = "anonymous"
		}
		contextJSON := t.ContextJSON
		if contextJSON == "" {
			contextJSON = "{}"
		}
		if _, err := tx.Exec(`
			INSERT INTO conversations (id, session_key, user_id, persona_id, context_json, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'active', ?, ?)`,
			convID, t.SessionKey, userID, t.PersonaID, contextJSON, now, now,
		); err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("looking up conversation: %w", err)
	} else {
		if _, err := tx.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", now, convID); err != nil {
			return fmt.Errorf("touching conversation: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO conversation_messages (conversation_id, role, content, created_at)
		VALUES (?, 'user', ?, ?)`,
		convID, t.UserMessage, now,
	); err != nil {
		return fmt.Errorf("inserting user message: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO conversation_messages (conversation_id, role, content, model, tokens, latency_ms, created_at)
		VALUES (?, 'assistant', ?, ?, ?, ?, ?)`,
		convID, t.AssistantMessage, t.Model, t.TotalTokens, t.LatencyMs, now,
	); err != nil {
		return fmt.Errorf("inserting assistant message: %w", err)
	}

	return tx.Commit()
}

// DeleteSession removes a conversation and its messages by session key.
// A missing session is not an error. Implements conversation.SessionStore.
func (s *Store) DeleteSession(sessionKey string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	var convID string
	err = tx.QueryRow("SELECT id FROM conversations WHERE session_key = ?", sessionKey).Scan(&convID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up conversation: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM conversation_messages WHERE conversation_id = ?", convID); err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM conversations WHERE id = ?", convID); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	return tx.Commit()
}

// GetConversation returns a conversation by session key with its full
// message transcript, oldest first.
func (s *Store) GetConversation(sessionKey string) (Conversation, error) {
	var c Conversation
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, session_key, user_id, persona_id, context_json, status, created_at, updated_at
		FROM conversations WHERE session_key = ?`, sessionKey,
	).Scan(&c.ID, &c.SessionKey, &c.UserID, &c.PersonaID, &c.ContextJSON, &c.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Conversation{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Conversation{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, role, content, model, tokens, latency_ms, created_at
		FROM conversation_messages WHERE conversation_id = ? ORDER BY id ASC`, c.ID,
	)
	if err != nil {
		return Conversation{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var m ConversationMessage
		var msgCreated string
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Model, &m.Tokens, &m.LatencyMs, &msgCreated); err != nil {
			return Conversation{}, err
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339, msgCreated); err != nil {
			return Conversation{}, fmt.Errorf("parsing message created_at: %w", err)
		}
		c.Messages = append(c.Messages, m)
	}
	return c, rows.Err()
}

// ListConversations returns active conversations, most recently updated
// first, without transcripts.
func (s *Store) ListConversations(limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, session_key, user_id, persona_id, context_json, status, created_at, updated_at
		FROM conversations WHERE status = 'active' ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Conversation
	for rows.Next() {
		var c Conversation
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.SessionKey, &c.UserID, &c.PersonaID, &c.ContextJSON, &c.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
