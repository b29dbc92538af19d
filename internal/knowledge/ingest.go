package knowledge

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/BigZorin/coachdesk/internal/models"
)

// ingestTimeout bounds the whole background upload, collection creation
// included.
const ingestTimeout = 30 * time.Second

// Ingestor uploads generated artifacts (reports, summaries) into the
// knowledge service so later retrievals can draw on them.
type Ingestor struct {
	DB     *sql.DB
	client *http.Client
}

// NewIngestor creates an ingestor bound to the app settings in db.
func NewIngestor(db *sql.DB) *Ingestor {
	return &Ingestor{
		DB:     db,
		client: &http.Client{Timeout: ingestTimeout},
	}
}

// IngestAsync uploads a document in the background and returns immediately.
// The artifact must already be durably stored by the caller; ingestion is
// pure enrichment and every failure is logged and swallowed.
func (i *Ingestor) IngestAsync(clientID int64, title, body string, metadata map[string]string) {
	baseURL := models.GetSetting(i.DB, "knowledge.base_url")
	if baseURL == "" || body == "" {
		return
	}
	apiKey := models.GetSetting(i.DB, "knowledge.api_key")
	collection := models.GetSetting(i.DB, "knowledge.collection")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		// Create-collection is idempotent on the service side; an
		// already-exists response is indistinguishable from success here
		// and both are fine.
		i.ensureCollection(ctx, baseURL, apiKey, collection)

		if err := i.upload(ctx, baseURL, apiKey, collection, clientID, title, body, metadata); err != nil {
			log.Printf("knowledge: ingest %q for client %d: %v", title, clientID, err)
			return
		}
		log.Printf("knowledge: ingested %q for client %d", title, clientID)
	}()
}

func (i *Ingestor) ensureCollection(ctx context.Context, baseURL, apiKey, collection string) {
	if collection == "" {
		return
	}
	body, _ := json.Marshal(map[string]string{"name": collection})
	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/collections", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (i *Ingestor) upload(ctx context.Context, baseURL, apiKey, collection string, clientID int64, title, body string, metadata map[string]string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", fmt.Sprintf("client-%d-%s.txt", clientID, sanitizeFilename(title)))
	if err != nil {
		return err
	}
	if _, err := part.Write([]byte(title + "\n\n" + body)); err != nil {
		return err
	}
	if collection != "" {
		if err := w.WriteField("collection", collection); err != nil {
			return err
		}
	}
	if len(metadata) > 0 {
		metaJSON, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		if err := w.WriteField("metadata", string(metaJSON)); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/documents", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// sanitizeFilename keeps uploaded filenames to a safe character set.
func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ', r == '-', r == '_', r == '.':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "document"
	}
	if len(out) > 60 {
		out = out[:60]
	}
	return string(out)
}
