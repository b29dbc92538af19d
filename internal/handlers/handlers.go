// Package handlers exposes the JSON API under /api/v1. Authentication is
// owned by the boundary upstream; the calling coach arrives as the
// X-Coach-ID header.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BigZorin/coachdesk/internal/assistant"
	"github.com/BigZorin/coachdesk/internal/middleware"
	"github.com/BigZorin/coachdesk/internal/models"
)

// Handler carries the shared dependencies of all API handlers. The
// completion provider is rebuilt from settings per request so runtime
// reconfiguration takes effect without a restart.
type Handler struct {
	DB        *sql.DB
	Knowledge assistant.KnowledgeSource
	Ingest    assistant.ArtifactIngestor
	Notify    assistant.Notifier
}

// Router builds the /api/v1 route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/clients/{clientID}/policy", h.GetPolicy)
		r.Put("/clients/{clientID}/policy", h.PutPolicy)
		r.Post("/clients/{clientID}/report", h.GenerateReport)
		r.Get("/clients/{clientID}/reports", h.ListReports)

		r.Post("/chat", h.Chat)
		r.Post("/chat/sessions", h.ChatSession)
		r.Get("/chat/sessions", h.ListSessions)
		r.Get("/chat/sessions/{sessionID}/messages", h.ListSessionMessages)
		r.Delete("/chat/sessions/{sessionID}", h.DeleteSession)

		r.Get("/insights", h.Insights)

		r.Get("/notifications", h.ListNotifications)
		r.Post("/notifications/{notificationID}/read", h.MarkNotificationRead)

		r.Get("/settings", h.ListSettings)
		r.Put("/settings", h.PutSetting)
		r.Post("/settings/test-assistant", h.TestAssistant)
		r.Post("/settings/test-notify", h.TestNotify)
	})

	return r
}

// engine assembles an assistant engine for one request.
func (h *Handler) engine() (*assistant.Engine, error) {
	provider, err := assistant.NewProviderFromSettings(h.DB)
	if err != nil {
		return nil, err
	}
	return &assistant.Engine{
		DB:        h.DB,
		Provider:  provider,
		Knowledge: h.Knowledge,
		Ingest:    h.Ingest,
		Notify:    h.Notify,
	}, nil
}

// coachID extracts the calling coach from the X-Coach-ID header.
func coachID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-Coach-ID")
	if raw == "" {
		return 0, fmt.Errorf("%w: missing X-Coach-ID header", models.ErrInvalidInput)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid X-Coach-ID header", models.ErrInvalidInput)
	}
	return id, nil
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", models.ErrInvalidInput, name)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain errors onto the API's error taxonomy:
// completion service failures to 502 (user-safe text only), invalid input
// to 400, unknown ids to 404, missing configuration to 503.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *assistant.APIError
	switch {
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, apiErr.UserMessage())
	case errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, assistant.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
	default:
		log.Printf("[%s] handlers: %s %s: %v", middleware.GetRequestID(r.Context()), r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Health reports liveness and whether the assistant is configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"assistant_configured": models.IsAssistantConfigured(h.DB),
	})
}
