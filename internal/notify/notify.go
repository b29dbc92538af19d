// Package notify provides channel-agnostic notification dispatch.
//
// Two delivery modes:
//   - In-app: a row in the notifications table for the coach's inbox.
//   - Broadcast: sent to globally configured Shoutrrr URLs (ntfy, Discord, etc.).
//
// Producers call Send() with a notification request. Errors are logged but
// never propagate; notifications must never block the triggering action.
package notify

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/containrrr/shoutrrr"

	"github.com/BigZorin/coachdesk/internal/models"
)

// Request describes a notification to send.
type Request struct {
	CoachID int64  // Target coach
	Type    string // Notification type constant (e.g. models.NotifyReportReady)
	Title   string // Short title for in-app display
	Message string // Longer description (optional)
	Link    string // Relative URL to navigate to on click (optional)
}

// Service dispatches notifications. It satisfies the assistant engine's
// Notifier interface.
type Service struct {
	DB *sql.DB
}

// ReportReady notifies the coach that a weekly report was generated.
func (s *Service) ReportReady(coachID int64, clientName string, report *models.WeeklyReport) {
	Send(s.DB, Request{
		CoachID: coachID,
		Type:    models.NotifyReportReady,
		Title:   fmt.Sprintf("Weekly report ready: %s", clientName),
		Message: report.Title,
		Link:    fmt.Sprintf("/api/v1/clients/%d/reports", report.ClientID),
	})
}

// Send dispatches a notification to the coach's in-app inbox and, when
// broadcast URLs are configured, to the external channels.
func Send(db *sql.DB, req Request) {
	if req.CoachID == 0 || req.Type == "" || req.Title == "" {
		return
	}

	if _, err := models.CreateNotification(db, req.CoachID, req.Type, req.Title, req.Message, req.Link); err != nil {
		log.Printf("notify: in-app notification failed for coach %d type %q: %v", req.CoachID, req.Type, err)
	}

	sendBroadcast(db, buildBody(req))
}

// sendBroadcast sends a message to all globally configured Shoutrrr URLs.
// These are admin/broadcast channels, not per-coach.
func sendBroadcast(db *sql.DB, body string) {
	urlsStr := models.GetSetting(db, "notify.urls")
	if urlsStr == "" {
		return
	}
	urls := parseURLs(urlsStr)
	if len(urls) == 0 {
		return
	}

	go func() {
		for _, u := range urls {
			if err := shoutrrr.Send(u, body); err != nil {
				log.Printf("notify: broadcast send failed for url %q: %v", maskURL(u), err)
			}
		}
	}()
}

// TestConnection sends a test message through every configured broadcast
// URL. Used by the settings API's "test notifications" action.
func TestConnection(db *sql.DB) error {
	urlsStr := models.GetSetting(db, "notify.urls")
	if urlsStr == "" {
		return fmt.Errorf("no notification channels configured (set notify.urls)")
	}

	var errs []string
	for _, u := range parseURLs(urlsStr) {
		if err := shoutrrr.Send(u, "CoachDesk test: if you see this, notifications are working!"); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", maskURL(u), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// buildBody constructs the message body from a Request.
func buildBody(req Request) string {
	body := req.Title
	if req.Message != "" {
		body = fmt.Sprintf("%s\n%s", body, req.Message)
	}
	if req.Link != "" {
		body = fmt.Sprintf("%s\n%s", body, req.Link)
	}
	return body
}

// parseURLs splits a comma-or-newline-separated URL string and trims whitespace.
func parseURLs(urlsStr string) []string {
	urlsStr = strings.ReplaceAll(urlsStr, "\n", ",")
	parts := strings.Split(urlsStr, ",")
	var urls []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// maskURL masks credentials in a Shoutrrr URL for safe logging.
func maskURL(u string) string {
	if len(u) <= 15 {
		return u[:5] + "••••"
	}
	return u[:15] + "••••"
}
