package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/BigZorin/coachdesk/internal/database"
	"github.com/BigZorin/coachdesk/internal/models"
)

// testHandler builds a Handler over a fresh in-memory database with one
// coach and one client seeded.
func testHandler(t testing.TB) (*Handler, *models.Coach, *models.Client) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	coach, err := models.CreateCoach(db, "Sam", "")
	if err != nil {
		t.Fatalf("create coach: %v", err)
	}
	client, err := models.CreateClient(db, coach.ID, "Alice")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	return &Handler{DB: db}, coach, client
}

// doRequest runs one request through the full router.
func doRequest(t testing.TB, h *Handler, method, path string, coachID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if coachID != 0 {
		req.Header.Set("X-Coach-ID", strconv.FormatInt(coachID, 10))
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t testing.TB, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, "GET", "/api/v1/health", 0, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Status              string `json:"status"`
		AssistantConfigured bool   `json:"assistant_configured"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.AssistantConfigured {
		t.Error("assistant should not be configured in a fresh db")
	}
}

func TestPolicyEndpoints(t *testing.T) {
	h, coach, client := testHandler(t)
	base := "/api/v1/clients/" + strconv.FormatInt(client.ID, 10) + "/policy"

	t.Run("missing coach header is 400", func(t *testing.T) {
		rec := doRequest(t, h, "GET", base, 0, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("absent policy reads as all unset", func(t *testing.T) {
		rec := doRequest(t, h, "GET", base, coach.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}
		var resp struct {
			Domains map[string]string `json:"domains"`
		}
		decodeJSON(t, rec, &resp)
		if len(resp.Domains) != len(models.AutonomyDomains) {
			t.Errorf("got %d domains, want %d", len(resp.Domains), len(models.AutonomyDomains))
		}
		for domain, level := range resp.Domains {
			if level != "unset" {
				t.Errorf("%s = %q, want unset", domain, level)
			}
		}
	})

	t.Run("put then get round-trips one domain", func(t *testing.T) {
		rec := doRequest(t, h, "PUT", base, coach.ID, `{"domain": "nutrition", "level": "assistant_led"}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}

		rec = doRequest(t, h, "GET", base, coach.ID, "")
		var resp struct {
			Domains map[string]string `json:"domains"`
		}
		decodeJSON(t, rec, &resp)
		if resp.Domains["nutrition"] != "assistant_led" {
			t.Errorf("nutrition = %q", resp.Domains["nutrition"])
		}
		if resp.Domains["training"] != "unset" {
			t.Errorf("training = %q, want unset", resp.Domains["training"])
		}
	})

	t.Run("unknown level is 400", func(t *testing.T) {
		rec := doRequest(t, h, "PUT", base, coach.ID, `{"domain": "nutrition", "level": "autopilot"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("other coach's client is 404", func(t *testing.T) {
		other, err := models.CreateCoach(h.DB, "Other", "")
		if err != nil {
			t.Fatalf("create coach: %v", err)
		}
		rec := doRequest(t, h, "GET", base, other.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestChatEndpoint_NotConfigured(t *testing.T) {
	h, coach, _ := testHandler(t)

	rec := doRequest(t, h, "POST", "/api/v1/chat", coach.ID, `{"message": "hello"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when assistant unconfigured", rec.Code)
	}
}

func TestChatEndpoints_WithProvider(t *testing.T) {
	h, coach, client := testHandler(t)

	// OpenAI-compatible stub.
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model": "stub", "choices": [{"message": {"content": "Alice looks good."}}], "usage": {"total_tokens": 42}}`))
	}))
	defer llm.Close()
	if err := models.SetSetting(h.DB, "llm.base_url", llm.URL); err != nil {
		t.Fatalf("set setting: %v", err)
	}

	t.Run("ephemeral chat", func(t *testing.T) {
		rec := doRequest(t, h, "POST", "/api/v1/chat", coach.ID,
			`{"client_id": `+strconv.FormatInt(client.ID, 10)+`, "message": "How is Alice?"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}
		var resp struct {
			Reply      string `json:"reply"`
			TokensUsed int    `json:"tokens_used"`
		}
		decodeJSON(t, rec, &resp)
		if resp.Reply != "Alice looks good." {
			t.Errorf("reply = %q", resp.Reply)
		}
		if resp.TokensUsed != 42 {
			t.Errorf("tokens = %d", resp.TokensUsed)
		}
	})

	t.Run("session chat persists and lists", func(t *testing.T) {
		rec := doRequest(t, h, "POST", "/api/v1/chat/sessions", coach.ID, `{"message": "Roster overview please"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}
		var turn struct {
			SessionID int64 `json:"session_id"`
		}
		decodeJSON(t, rec, &turn)
		if turn.SessionID == 0 {
			t.Fatal("no session id")
		}

		rec = doRequest(t, h, "GET", "/api/v1/chat/sessions", coach.ID, "")
		var list struct {
			Sessions []struct {
				ID    int64  `json:"id"`
				Title string `json:"title"`
			} `json:"sessions"`
		}
		decodeJSON(t, rec, &list)
		if len(list.Sessions) != 1 || list.Sessions[0].ID != turn.SessionID {
			t.Errorf("sessions = %+v", list.Sessions)
		}

		messagesPath := "/api/v1/chat/sessions/" + strconv.FormatInt(turn.SessionID, 10) + "/messages"
		rec = doRequest(t, h, "GET", messagesPath, coach.ID, "")
		var transcript struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		decodeJSON(t, rec, &transcript)
		if len(transcript.Messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(transcript.Messages))
		}
		if transcript.Messages[0].Role != "user" || transcript.Messages[1].Role != "assistant" {
			t.Errorf("roles = %s, %s", transcript.Messages[0].Role, transcript.Messages[1].Role)
		}
	})

	t.Run("delete session", func(t *testing.T) {
		rec := doRequest(t, h, "POST", "/api/v1/chat/sessions", coach.ID, `{"message": "to be deleted"}`)
		var turn struct {
			SessionID int64 `json:"session_id"`
		}
		decodeJSON(t, rec, &turn)

		path := "/api/v1/chat/sessions/" + strconv.FormatInt(turn.SessionID, 10)
		rec = doRequest(t, h, "DELETE", path, coach.ID, "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		rec = doRequest(t, h, "DELETE", path, coach.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", rec.Code)
		}
	})

	t.Run("completion failure maps to 502 with safe text", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"message": "secret internals", "type": "auth"}}`))
		}))
		defer failing.Close()
		if err := models.SetSetting(h.DB, "llm.base_url", failing.URL); err != nil {
			t.Fatalf("set setting: %v", err)
		}
		t.Cleanup(func() { models.SetSetting(h.DB, "llm.base_url", llm.URL) })

		rec := doRequest(t, h, "POST", "/api/v1/chat", coach.ID, `{"message": "hi"}`)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret internals") {
			t.Errorf("raw provider error leaked: %s", rec.Body.String())
		}
	})
}

func TestSettingsEndpoints(t *testing.T) {
	h, coach, _ := testHandler(t)

	t.Run("list includes registry keys", func(t *testing.T) {
		rec := doRequest(t, h, "GET", "/api/v1/settings", coach.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Settings []struct {
				Key    string `json:"key"`
				Source string `json:"source"`
			} `json:"settings"`
		}
		decodeJSON(t, rec, &resp)
		keys := make(map[string]string)
		for _, s := range resp.Settings {
			keys[s.Key] = s.Source
		}
		if _, ok := keys["llm.base_url"]; !ok {
			t.Errorf("llm.base_url missing from %v", keys)
		}
	})

	t.Run("put updates a setting", func(t *testing.T) {
		rec := doRequest(t, h, "PUT", "/api/v1/settings", coach.ID, `{"key": "digest.daily_budget", "value": "5"}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}
		if got := models.GetDigestDailyBudget(h.DB); got != 5 {
			t.Errorf("budget = %d, want 5", got)
		}
	})
}
