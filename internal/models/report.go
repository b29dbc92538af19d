package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// WeeklyReport is a generated long-form summary of one client's week.
// Regenerating the same week overwrites the prior report (last write wins).
type WeeklyReport struct {
	ID         int64
	ClientID   int64
	WeekNumber int
	Year       int
	Title      string
	Body       string
	TokensUsed int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UpsertWeeklyReport inserts or overwrites the report for
// (client, week, year). The conflict key makes concurrent generation
// idempotent: no duplicate rows, last write wins.
func UpsertWeeklyReport(db *sql.DB, clientID int64, weekNumber, year int, title, body string, tokensUsed int) (*WeeklyReport, error) {
	if weekNumber < 1 || weekNumber > 53 {
		return nil, fmt.Errorf("models: upsert weekly report: %w: week number out of range", ErrInvalidInput)
	}
	if title == "" || body == "" {
		return nil, fmt.Errorf("models: upsert weekly report: %w: title and body are required", ErrInvalidInput)
	}

	_, err := db.Exec(
		`INSERT INTO weekly_reports (client_id, week_number, year, title, body, tokens_used)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(client_id, week_number, year)
		 DO UPDATE SET title = excluded.title, body = excluded.body,
		               tokens_used = excluded.tokens_used, updated_at = CURRENT_TIMESTAMP`,
		clientID, weekNumber, year, title, body, tokensUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("models: upsert weekly report for client %d: %w", clientID, err)
	}
	return GetWeeklyReport(db, clientID, weekNumber, year)
}

// GetWeeklyReport retrieves the report for (client, week, year).
func GetWeeklyReport(db *sql.DB, clientID int64, weekNumber, year int) (*WeeklyReport, error) {
	r := &WeeklyReport{}
	err := db.QueryRow(
		`SELECT id, client_id, week_number, year, title, body, tokens_used, created_at, updated_at
		 FROM weekly_reports
		 WHERE client_id = ? AND week_number = ? AND year = ?`,
		clientID, weekNumber, year,
	).Scan(&r.ID, &r.ClientID, &r.WeekNumber, &r.Year, &r.Title, &r.Body,
		&r.TokensUsed, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get weekly report (client %d, week %d/%d): %w", clientID, weekNumber, year, err)
	}
	return r, nil
}

// ListWeeklyReports returns a client's reports, newest week first.
func ListWeeklyReports(db *sql.DB, clientID int64, limit int) ([]*WeeklyReport, error) {
	if limit <= 0 {
		limit = 12
	}
	rows, err := db.Query(
		`SELECT id, client_id, week_number, year, title, body, tokens_used, created_at, updated_at
		 FROM weekly_reports
		 WHERE client_id = ?
		 ORDER BY year DESC, week_number DESC
		 LIMIT ?`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("models: list weekly reports for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var reports []*WeeklyReport
	for rows.Next() {
		r := &WeeklyReport{}
		if err := rows.Scan(&r.ID, &r.ClientID, &r.WeekNumber, &r.Year, &r.Title, &r.Body,
			&r.TokensUsed, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("models: scan weekly report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
