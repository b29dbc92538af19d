package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Program statuses. At most one ACTIVE program per client is expected.
const (
	ProgramDraft     = "DRAFT"
	ProgramActive    = "ACTIVE"
	ProgramCompleted = "COMPLETED"
)

// Program is a training/nutrition program assigned to a client.
type Program struct {
	ID          int64
	ClientID    int64
	Name        string
	Status      string
	Focus       sql.NullString
	DaysPerWeek int
	StartedAt   sql.NullString // YYYY-MM-DD
	CreatedAt   time.Time
}

// CreateProgram inserts a new program for a client.
func CreateProgram(db *sql.DB, clientID int64, name, status, focus string, daysPerWeek int) (*Program, error) {
	if name == "" {
		return nil, fmt.Errorf("models: create program: %w: name is required", ErrInvalidInput)
	}
	switch status {
	case ProgramDraft, ProgramActive, ProgramCompleted:
	default:
		return nil, fmt.Errorf("models: create program: %w: unknown status %q", ErrInvalidInput, status)
	}
	if daysPerWeek < 1 || daysPerWeek > 7 {
		daysPerWeek = 3
	}
	var focusVal sql.NullString
	if focus != "" {
		focusVal = sql.NullString{String: focus, Valid: true}
	}
	var startedVal sql.NullString
	if status == ProgramActive {
		startedVal = sql.NullString{String: time.Now().Format("2006-01-02"), Valid: true}
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO programs (client_id, name, status, focus, days_per_week, started_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		clientID, name, status, focusVal, daysPerWeek, startedVal,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: create program for client %d: %w", clientID, err)
	}
	return GetProgramByID(db, id)
}

// GetProgramByID retrieves a program by primary key.
func GetProgramByID(db *sql.DB, id int64) (*Program, error) {
	p := &Program{}
	err := db.QueryRow(
		`SELECT id, client_id, name, status, focus, days_per_week, started_at, created_at
		 FROM programs WHERE id = ?`, id,
	).Scan(&p.ID, &p.ClientID, &p.Name, &p.Status, &p.Focus, &p.DaysPerWeek, &p.StartedAt, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get program %d: %w", id, err)
	}
	return p, nil
}

// GetActiveProgram returns the client's active program, or nil if none.
// If multiple rows are ACTIVE (should not happen), the most recent wins.
func GetActiveProgram(db *sql.DB, clientID int64) (*Program, error) {
	p := &Program{}
	err := db.QueryRow(
		`SELECT id, client_id, name, status, focus, days_per_week, started_at, created_at
		 FROM programs
		 WHERE client_id = ? AND status = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, clientID, ProgramActive,
	).Scan(&p.ID, &p.ClientID, &p.Name, &p.Status, &p.Focus, &p.DaysPerWeek, &p.StartedAt, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("models: active program for client %d: %w", clientID, err)
	}
	return p, nil
}

// SetProgramStatus transitions a program's status. Activating a program
// completes any other active program for the same client first.
func SetProgramStatus(db *sql.DB, id int64, status string) error {
	switch status {
	case ProgramDraft, ProgramActive, ProgramCompleted:
	default:
		return fmt.Errorf("models: set program status: %w: unknown status %q", ErrInvalidInput, status)
	}

	if status == ProgramActive {
		p, err := GetProgramByID(db, id)
		if err != nil {
			return err
		}
		_, err = db.Exec(
			`UPDATE programs SET status = ? WHERE client_id = ? AND status = ? AND id != ?`,
			ProgramCompleted, p.ClientID, ProgramActive, id,
		)
		if err != nil {
			return fmt.Errorf("models: complete prior programs for client %d: %w", p.ClientID, err)
		}
	}

	result, err := db.Exec(`UPDATE programs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("models: set program %d status: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
