// Package knowledge adapts an external RAG service into two total
// operations: a bounded question lookup for chat enrichment and a
// fire-and-forget document upload for artifact enrichment. The service is
// strictly optional; every failure degrades to "no knowledge" and is never
// surfaced to callers.
package knowledge

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/BigZorin/coachdesk/internal/models"
)

// queryTimeout bounds a retrieval call. A slow knowledge base must never
// hold up a chat turn longer than this.
const queryTimeout = 15 * time.Second

// Retriever queries the knowledge service configured in app settings.
// Settings are read per call so runtime reconfiguration takes effect
// immediately.
type Retriever struct {
	DB     *sql.DB
	client *http.Client
}

// NewRetriever creates a retriever bound to the app settings in db.
func NewRetriever(db *sql.DB) *Retriever {
	return &Retriever{
		DB:     db,
		client: &http.Client{Timeout: queryTimeout},
	}
}

// Query asks the knowledge service for context relevant to question.
// Returns "" when the service is not configured, times out, or fails in
// any way; callers cannot distinguish failure from no relevant knowledge.
func (r *Retriever) Query(ctx context.Context, question string) string {
	baseURL := models.GetSetting(r.DB, "knowledge.base_url")
	if baseURL == "" || question == "" {
		return ""
	}
	apiKey := models.GetSetting(r.DB, "knowledge.api_key")
	collection := models.GetSetting(r.DB, "knowledge.collection")

	body, err := json.Marshal(map[string]any{
		"question":        question,
		"collection":      collection,
		"top_k":           4,
		"include_sources": false,
		"temperature":     0.1,
	})
	if err != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		log.Printf("knowledge: create query request: %v", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("knowledge: query failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		log.Printf("knowledge: query returned HTTP %d", resp.StatusCode)
		return ""
	}

	var result struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("knowledge: decode query response: %v", err)
		return ""
	}
	return result.Answer
}
