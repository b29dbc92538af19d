package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/BigZorin/coachdesk/internal/assistant"
	"github.com/BigZorin/coachdesk/internal/models"
	"github.com/BigZorin/coachdesk/internal/notify"
)

// ListSettings returns every registered setting with its resolved source.
// Sensitive values are masked; raw secrets never leave the server.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	values := models.ListSettingValues(h.DB)

	out := make([]map[string]any, 0, len(values))
	for _, v := range values {
		out = append(out, map[string]any{
			"key":       v.Key,
			"value":     v.Masked,
			"source":    v.Source,
			"read_only": v.ReadOnly,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": out})
}

// PutSetting updates one setting. An empty value deletes the stored row so
// the default (or env var) applies again.
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var err error
	if req.Value == "" {
		err = models.DeleteSetting(h.DB, req.Key)
	} else {
		err = models.SetSetting(h.DB, req.Key, req.Value)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestAssistant pings the configured completion service.
func (h *Handler) TestAssistant(w http.ResponseWriter, r *http.Request) {
	provider, err := assistant.NewProviderFromSettings(h.DB)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := provider.Ping(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"provider": provider.Name(),
	})
}

// TestNotify sends a test message through every configured broadcast URL.
func (h *Handler) TestNotify(w http.ResponseWriter, r *http.Request) {
	if err := notify.TestConnection(h.DB); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
