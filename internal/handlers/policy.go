package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BigZorin/coachdesk/internal/models"
)

// ownedClient loads a client and verifies it belongs to the calling coach.
func (h *Handler) ownedClient(r *http.Request) (*models.Client, int64, error) {
	cid, err := coachID(r)
	if err != nil {
		return nil, 0, err
	}
	clientID, err := pathID(r, "clientID")
	if err != nil {
		return nil, 0, err
	}
	client, err := models.GetClientByID(h.DB, clientID)
	if err != nil {
		return nil, 0, err
	}
	if client.CoachID != cid {
		return nil, 0, models.ErrNotFound
	}
	return client, cid, nil
}

// GetPolicy returns the client's autonomy policy with every domain
// resolved, unset domains included. An absent policy row is a valid state
// and renders as all-unset.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	client, cid, err := h.ownedClient(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	policy, err := models.GetAutonomyPolicy(h.DB, client.ID, cid)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		writeDomainError(w, r, err)
		return
	}

	domains := make(map[string]string, len(models.AutonomyDomains))
	for _, domain := range models.AutonomyDomains {
		if policy != nil {
			domains[domain] = policy.Level(domain)
		} else {
			domains[domain] = "unset"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client_id": client.ID,
		"domains":   domains,
	})
}

// PutPolicy sets one domain's autonomy level. Other domains keep their
// current values.
func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	client, cid, err := h.ownedClient(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req struct {
		Domain string `json:"domain"`
		Level  string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := models.SetAutonomyLevel(h.DB, client.ID, cid, req.Domain, req.Level); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
