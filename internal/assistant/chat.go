package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/BigZorin/coachdesk/internal/models"
)

// KnowledgeSource answers a free-text question from the external knowledge
// base. Implementations must degrade to "" on any failure; the chat flow
// never blocks on knowledge.
type KnowledgeSource interface {
	Query(ctx context.Context, question string) string
}

// ArtifactIngestor pushes a generated artifact into the knowledge base in
// the background. Calls return immediately; failures are logged and
// swallowed by the implementation.
type ArtifactIngestor interface {
	IngestAsync(clientID int64, title, body string, metadata map[string]string)
}

// Engine wires the context builders, the completion provider, and the
// optional knowledge and notification adapters into the chat, insight, and
// report flows. Knowledge, Ingest, and Notify may be nil.
type Engine struct {
	DB        *sql.DB
	Provider  Provider
	Knowledge KnowledgeSource
	Ingest    ArtifactIngestor
	Notify    Notifier
}

// ChatResult is the outcome of one completed chat turn.
type ChatResult struct {
	SessionID  int64  `json:"session_id,omitempty"`
	Reply      string `json:"reply"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// buildContext selects the scope for a chat turn: a single client's full
// context, or the roster digest when no client is given.
func (e *Engine) buildContext(ctx context.Context, coachID, clientID int64) (string, error) {
	if clientID != 0 {
		return BuildClientContext(ctx, e.DB, clientID)
	}
	return BuildCoachContext(ctx, e.DB, coachID)
}

// gather runs the context build and the knowledge lookup concurrently. A
// context failure aborts the turn; the knowledge lookup cannot fail.
func (e *Engine) gather(ctx context.Context, coachID, clientID int64, question string) (contextDoc, knowledge string, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := e.buildContext(gctx, coachID, clientID)
		if err != nil {
			return err
		}
		contextDoc = doc
		return nil
	})
	g.Go(func() error {
		if e.Knowledge != nil {
			knowledge = e.Knowledge.Query(gctx, question)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return contextDoc, knowledge, nil
}

// SendMessage answers a single question without any session: nothing is
// persisted and any replayed history is supplied by the caller. clientID 0
// scopes the question to the whole roster.
func (e *Engine) SendMessage(ctx context.Context, coachID, clientID int64, message string, history []Message) (*ChatResult, error) {
	if message == "" {
		return nil, fmt.Errorf("assistant: %w: empty message", models.ErrInvalidInput)
	}
	coach, err := models.GetCoachByID(e.DB, coachID)
	if err != nil {
		return nil, err
	}

	contextDoc, knowledge, err := e.gather(ctx, coachID, clientID, message)
	if err != nil {
		return nil, err
	}

	messages := BuildChatMessages(coach.Name, contextDoc, knowledge, history, message)
	resp, err := e.Provider.Complete(ctx, messages, Options{
		Temperature: models.GetTemperature(e.DB),
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Reply:      resp.Content,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}

// SendSessionMessage runs one persistent chat turn. The user message is
// stored before the completion call so a failed completion still leaves it
// in the transcript; the assistant reply and the session's recency bump
// happen only after a successful completion. sessionID 0 starts a new
// session titled after the first message.
func (e *Engine) SendSessionMessage(ctx context.Context, coachID, sessionID int64, clientID sql.NullInt64, message string) (*ChatResult, error) {
	if message == "" {
		return nil, fmt.Errorf("assistant: %w: empty message", models.ErrInvalidInput)
	}
	coach, err := models.GetCoachByID(e.DB, coachID)
	if err != nil {
		return nil, err
	}

	sessionID, err = models.EnsureChatSession(e.DB, sessionID, coachID, clientID, message)
	if err != nil {
		return nil, err
	}
	session, err := models.GetChatSessionByID(e.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CoachID != coachID {
		return nil, models.ErrNotFound
	}

	// Prior transcript, captured before this turn's user message lands.
	history, err := models.ListChatMessages(e.DB, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := models.AppendChatMessage(e.DB, sessionID, models.RoleUser, message, 0); err != nil {
		return nil, err
	}

	var scopeClientID int64
	if session.ClientID.Valid {
		scopeClientID = session.ClientID.Int64
	}
	contextDoc, knowledge, err := e.gather(ctx, coachID, scopeClientID, message)
	if err != nil {
		return nil, err
	}

	priorMessages := make([]Message, 0, len(history))
	for _, m := range history {
		priorMessages = append(priorMessages, Message{Role: m.Role, Content: m.Content})
	}

	messages := BuildChatMessages(coach.Name, contextDoc, knowledge, priorMessages, message)
	resp, err := e.Provider.Complete(ctx, messages, Options{
		Temperature: models.GetTemperature(e.DB),
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		// The user message stays persisted; the session keeps its old
		// recency so a dead turn does not float it to the top.
		return nil, err
	}

	if _, err := models.AppendChatMessage(e.DB, sessionID, models.RoleAssistant, resp.Content, resp.TokensUsed); err != nil {
		return nil, err
	}
	if err := models.TouchChatSession(e.DB, sessionID); err != nil {
		log.Printf("assistant: touch session %d: %v", sessionID, err)
	}

	return &ChatResult{
		SessionID:  sessionID,
		Reply:      resp.Content,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}
