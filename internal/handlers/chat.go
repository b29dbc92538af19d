package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/BigZorin/coachdesk/internal/assistant"
	"github.com/BigZorin/coachdesk/internal/models"
)

// Chat answers a single ephemeral question. Nothing is persisted; the
// caller may replay its own history.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req struct {
		ClientID int64               `json:"client_id"`
		Message  string              `json:"message"`
		History  []assistant.Message `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	engine, err := h.engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := engine.SendMessage(r.Context(), cid, req.ClientID, req.Message, req.History)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ChatSession runs one persisted chat turn, creating the session when no
// session_id is given.
func (h *Handler) ChatSession(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req struct {
		SessionID int64  `json:"session_id"`
		ClientID  int64  `json:"client_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var clientID sql.NullInt64
	if req.ClientID != 0 {
		clientID = sql.NullInt64{Int64: req.ClientID, Valid: true}
	}

	engine, err := h.engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := engine.SendSessionMessage(r.Context(), cid, req.SessionID, clientID, req.Message)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListSessions returns the coach's sessions, most recently active first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var clientID sql.NullInt64
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid client_id")
			return
		}
		clientID = sql.NullInt64{Int64: id, Valid: true}
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := models.ListChatSessions(h.DB, cid, clientID, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	type sessionJSON struct {
		ID        int64  `json:"id"`
		ClientID  int64  `json:"client_id,omitempty"`
		Title     string `json:"title"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}
	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		sj := sessionJSON{
			ID:        s.ID,
			Title:     s.Title,
			CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			UpdatedAt: s.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if s.ClientID.Valid {
			sj.ClientID = s.ClientID.Int64
		}
		out = append(out, sj)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// ListSessionMessages returns a session's full transcript in creation
// order.
func (h *Handler) ListSessionMessages(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	session, err := models.GetChatSessionByID(h.DB, sessionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if session.CoachID != cid {
		writeDomainError(w, r, models.ErrNotFound)
		return
	}

	messages, err := models.ListChatMessages(h.DB, sessionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	type messageJSON struct {
		ID         int64  `json:"id"`
		Role       string `json:"role"`
		Content    string `json:"content"`
		TokensUsed int    `json:"tokens_used,omitempty"`
		CreatedAt  string `json:"created_at"`
	}
	out := make([]messageJSON, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageJSON{
			ID:         m.ID,
			Role:       m.Role,
			Content:    m.Content,
			TokensUsed: m.TokensUsed,
			CreatedAt:  m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"title":      session.Title,
		"messages":   out,
	})
}

// DeleteSession hard-deletes a session and its messages.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := models.DeleteChatSession(h.DB, sessionID, cid); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Insights generates the roster insight set. An unconfigured assistant or
// an unparseable completion yields an empty set, not an error.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	engine, err := h.engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	insights, err := engine.GenerateInsights(r.Context(), cid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	// All-or-nothing: a partial extraction is treated as no insights.
	if len(insights) < assistant.MaxInsights {
		insights = []assistant.Insight{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"insights": insights,
	})
}
