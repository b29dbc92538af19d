package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/BigZorin/coachdesk/internal/models"
)

// Notifier announces a freshly generated report to the coach.
type Notifier interface {
	ReportReady(coachID int64, clientName string, report *models.WeeklyReport)
}

// GenerateWeeklyReport builds the client's context, generates a progress
// report for the current ISO week, and stores it. Regenerating within the
// same week overwrites the stored report. Notification and knowledge
// ingestion run only after the report is durably stored, and neither can
// fail the operation.
func (e *Engine) GenerateWeeklyReport(ctx context.Context, coachID, clientID int64) (*models.WeeklyReport, error) {
	client, err := models.GetClientByID(e.DB, clientID)
	if err != nil {
		return nil, err
	}
	if client.CoachID != coachID {
		return nil, models.ErrNotFound
	}

	contextDoc, err := BuildClientContext(ctx, e.DB, clientID)
	if err != nil {
		return nil, err
	}

	messages := []Message{
		{Role: "system", Content: "You are a coaching assistant writing client progress reports. Use only the data provided."},
		{Role: "user", Content: "=== CLIENT DATA ===\n" + contextDoc + "\n\n" + reportPrompt},
	}
	resp, err := e.Provider.Complete(ctx, messages, Options{
		Temperature: models.GetTemperature(e.DB),
		MaxTokens:   reportMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	year, week := time.Now().ISOWeek()
	title := fmt.Sprintf("Week %d/%d: %s", week, year, client.Name)

	report, err := models.UpsertWeeklyReport(e.DB, clientID, week, year, title, resp.Content, resp.TokensUsed)
	if err != nil {
		return nil, err
	}

	if e.Notify != nil {
		e.Notify.ReportReady(coachID, client.Name, report)
	}
	if e.Ingest != nil {
		e.Ingest.IngestAsync(clientID, report.Title, report.Body, map[string]string{
			"kind":   "weekly_report",
			"client": client.Name,
			"week":   fmt.Sprintf("%d/%d", week, year),
		})
	}

	return report, nil
}
