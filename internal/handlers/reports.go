package handlers

import (
	"net/http"
	"strconv"

	"github.com/BigZorin/coachdesk/internal/models"
)

// GenerateReport generates (or regenerates) the current week's report for
// one client and returns it.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	client, cid, err := h.ownedClient(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	engine, err := h.engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	report, err := engine.GenerateWeeklyReport(r.Context(), cid, client.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportJSON(report))
}

// ListReports returns a client's stored reports, newest week first.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	client, _, err := h.ownedClient(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := models.ListWeeklyReports(h.DB, client.ID, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(reports))
	for _, report := range reports {
		out = append(out, reportJSON(report))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

func reportJSON(report *models.WeeklyReport) map[string]any {
	return map[string]any{
		"id":          report.ID,
		"client_id":   report.ClientID,
		"week_number": report.WeekNumber,
		"year":        report.Year,
		"title":       report.Title,
		"body":        report.Body,
		"tokens_used": report.TokensUsed,
		"updated_at":  report.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ListNotifications returns the coach's notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := models.ListNotifications(h.DB, cid, unreadOnly, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(notifications))
	for _, n := range notifications {
		entry := map[string]any{
			"id":         n.ID,
			"type":       n.Type,
			"title":      n.Title,
			"read":       n.Read,
			"created_at": n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if n.Message.Valid {
			entry["message"] = n.Message.String
		}
		if n.Link.Valid {
			entry["link"] = n.Link.String
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

// MarkNotificationRead flags one notification as read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	cid, err := coachID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	id, err := pathID(r, "notificationID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := models.MarkNotificationRead(h.DB, id, cid); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
