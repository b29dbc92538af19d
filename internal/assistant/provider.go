package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/BigZorin/coachdesk/internal/models"
)

// ErrNotConfigured is returned when no completion provider is configured.
var ErrNotConfigured = fmt.Errorf("assistant: completion provider not configured")

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the interface for completion backends.
type Provider interface {
	// Complete sends a message list to the completion service and returns
	// the generated text with its token usage.
	Complete(ctx context.Context, messages []Message, opts Options) (*Response, error)

	// Ping validates connectivity and credentials. Used for "test
	// connection" from the settings API.
	Ping(ctx context.Context) error

	// Name returns the display name of this provider.
	Name() string
}

// Options controls completion behavior.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Response holds the completion output.
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	Duration   time.Duration
}

// APIError is a non-2xx response from the completion service. Completion
// failures must stay visible to the caller; this is the primary
// value-producing call.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}

// UserMessage projects the error into short, user-safe text. Raw error
// bodies never leak past a status code here.
func (e *APIError) UserMessage() string {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return "Invalid API key — check the assistant configuration."
	case e.StatusCode == http.StatusTooManyRequests:
		return "Rate limit exceeded — please wait a moment and try again."
	case e.StatusCode >= 500:
		return fmt.Sprintf("The assistant service is temporarily unavailable (HTTP %d). Please try again.", e.StatusCode)
	default:
		return fmt.Sprintf("The assistant request failed (HTTP %d). Please try again.", e.StatusCode)
	}
}

// NewProviderFromSettings creates a Provider from app settings (with env
// var overrides). Returns ErrNotConfigured when no endpoint is set.
func NewProviderFromSettings(db *sql.DB) (Provider, error) {
	baseURL := models.GetSetting(db, "llm.base_url")
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	model := models.GetSetting(db, "llm.model")
	apiKey := models.GetSetting(db, "llm.api_key")
	return NewOpenAIProvider(apiKey, model, baseURL), nil
}
