package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// chatTitleMaxLen is the number of characters of the first user message kept
// as the session title before an ellipsis is appended.
const chatTitleMaxLen = 57

// ChatSession is a persisted conversation thread owned by one coach,
// optionally scoped to one client.
type ChatSession struct {
	ID        int64
	CoachID   int64
	ClientID  sql.NullInt64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is one append-only turn within a session.
type ChatMessage struct {
	ID         int64
	ChatID     int64
	Role       string
	Content    string
	TokensUsed int
	CreatedAt  time.Time
}

// SessionTitle derives a session title from the first user message:
// the first 57 characters plus an ellipsis when truncated.
func SessionTitle(firstMessage string) string {
	if utf8.RuneCountInString(firstMessage) <= chatTitleMaxLen {
		return firstMessage
	}
	runes := []rune(firstMessage)
	return string(runes[:chatTitleMaxLen]) + "…"
}

// EnsureChatSession returns existingID as-is when non-zero (the caller owns
// any further checks), otherwise creates a new session titled after the
// first user message.
func EnsureChatSession(db *sql.DB, existingID, coachID int64, clientID sql.NullInt64, firstMessage string) (int64, error) {
	if existingID != 0 {
		return existingID, nil
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO chat_sessions (coach_id, client_id, title) VALUES (?, ?, ?) RETURNING id`,
		coachID, clientID, SessionTitle(firstMessage),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("models: create chat session for coach %d: %w", coachID, err)
	}
	return id, nil
}

// GetChatSessionByID retrieves a session by primary key.
func GetChatSessionByID(db *sql.DB, id int64) (*ChatSession, error) {
	s := &ChatSession{}
	err := db.QueryRow(
		`SELECT id, coach_id, client_id, title, created_at, updated_at
		 FROM chat_sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.CoachID, &s.ClientID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get chat session %d: %w", id, err)
	}
	return s, nil
}

// AppendChatMessage inserts one message. Append-only: this layer never
// updates or deletes messages, and it does not re-check session ownership.
func AppendChatMessage(db *sql.DB, chatID int64, role, content string, tokensUsed int) (*ChatMessage, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, fmt.Errorf("models: append chat message: %w: unknown role %q", ErrInvalidInput, role)
	}
	if content == "" {
		return nil, fmt.Errorf("models: append chat message: %w: content is required", ErrInvalidInput)
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO chat_messages (chat_id, role, content, tokens_used) VALUES (?, ?, ?, ?) RETURNING id`,
		chatID, role, content, tokensUsed,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: append chat message to session %d: %w", chatID, err)
	}

	m := &ChatMessage{}
	err = db.QueryRow(
		`SELECT id, chat_id, role, content, tokens_used, created_at FROM chat_messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.TokensUsed, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: get chat message %d: %w", id, err)
	}
	return m, nil
}

// TouchChatSession bumps the session's updated_at. Called once per
// successful assistant turn, never for user turns.
func TouchChatSession(db *sql.DB, id int64) error {
	result, err := db.Exec(
		`UPDATE chat_sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("models: touch chat session %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListChatSessions returns the coach's sessions, most recently updated
// first. When clientID is valid, only sessions scoped to that client are
// returned.
func ListChatSessions(db *sql.DB, coachID int64, clientID sql.NullInt64, limit int) ([]*ChatSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT id, coach_id, client_id, title, created_at, updated_at
	          FROM chat_sessions WHERE coach_id = ?`
	args := []any{coachID}
	if clientID.Valid {
		query += ` AND client_id = ?`
		args = append(args, clientID.Int64)
	}
	query += ` ORDER BY updated_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list chat sessions for coach %d: %w", coachID, err)
	}
	defer rows.Close()

	var sessions []*ChatSession
	for rows.Next() {
		s := &ChatSession{}
		if err := rows.Scan(&s.ID, &s.CoachID, &s.ClientID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("models: scan chat session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListChatMessages returns a session's messages in creation order,
// unpaginated. History trimming happens at prompt-assembly time, not here.
func ListChatMessages(db *sql.DB, chatID int64) ([]*ChatMessage, error) {
	rows, err := db.Query(
		`SELECT id, chat_id, role, content, tokens_used, created_at
		 FROM chat_messages
		 WHERE chat_id = ?
		 ORDER BY created_at ASC, id ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("models: list chat messages for session %d: %w", chatID, err)
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		m := &ChatMessage{}
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.TokensUsed, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteChatSession hard-deletes a session and (via cascade) its messages.
// Scoped to the owning coach; ErrNotFound when no owned row matched.
func DeleteChatSession(db *sql.DB, id, coachID int64) error {
	result, err := db.Exec(
		`DELETE FROM chat_sessions WHERE id = ? AND coach_id = ?`, id, coachID,
	)
	if err != nil {
		return fmt.Errorf("models: delete chat session %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
