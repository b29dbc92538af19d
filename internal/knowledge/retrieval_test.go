package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BigZorin/coachdesk/internal/database"
	"github.com/BigZorin/coachdesk/internal/models"
)

// testDB creates a fresh in-memory SQLite database with migrations applied.
func testDB(t testing.TB) *sql.DB {
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
	return db
}

func TestRetriever_Query(t *testing.T) {
	t.Run("not configured returns empty immediately", func(t *testing.T) {
		db := testDB(t)
		r := NewRetriever(db)
		if got := r.Query(context.Background(), "anything"); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})

	t.Run("success returns the answer", func(t *testing.T) {
		db := testDB(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/query" {
				t.Errorf("path = %q", r.URL.Path)
			}
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req["top_k"] != float64(4) {
				t.Errorf("top_k = %v, want 4", req["top_k"])
			}
			if req["include_sources"] != false {
				t.Errorf("include_sources = %v", req["include_sources"])
			}
			json.NewEncoder(w).Encode(map[string]string{"answer": "periodize in 4-week blocks"})
		}))
		defer server.Close()

		if err := models.SetSetting(db, "knowledge.base_url", server.URL); err != nil {
			t.Fatalf("set setting: %v", err)
		}

		r := NewRetriever(db)
		if got := r.Query(context.Background(), "How to periodize?"); got != "periodize in 4-week blocks" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("server error degrades to empty", func(t *testing.T) {
		db := testDB(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		if err := models.SetSetting(db, "knowledge.base_url", server.URL); err != nil {
			t.Fatalf("set setting: %v", err)
		}

		r := NewRetriever(db)
		if got := r.Query(context.Background(), "q"); got != "" {
			t.Errorf("got %q, want empty on HTTP 500", got)
		}
	})

	t.Run("malformed response degrades to empty", func(t *testing.T) {
		db := testDB(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		if err := models.SetSetting(db, "knowledge.base_url", server.URL); err != nil {
			t.Fatalf("set setting: %v", err)
		}

		r := NewRetriever(db)
		if got := r.Query(context.Background(), "q"); got != "" {
			t.Errorf("got %q, want empty on bad JSON", got)
		}
	})

	t.Run("unreachable service degrades to empty", func(t *testing.T) {
		db := testDB(t)
		if err := models.SetSetting(db, "knowledge.base_url", "http://127.0.0.1:1"); err != nil {
			t.Fatalf("set setting: %v", err)
		}

		r := NewRetriever(db)
		if got := r.Query(context.Background(), "q"); got != "" {
			t.Errorf("got %q, want empty on connection failure", got)
		}
	})
}
