package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Client statuses. A coaching relationship is "active" until the coach
// pauses or ends it.
const (
	ClientActive = "active"
	ClientPaused = "paused"
	ClientEnded  = "ended"
)

// Client represents one coaching relationship plus the client's profile.
type Client struct {
	ID          int64
	CoachID     int64
	Name        string
	Status      string
	Sex         sql.NullString
	BirthDate   sql.NullString // YYYY-MM-DD
	HeightCM    sql.NullFloat64
	StartWeight sql.NullFloat64
	GoalWeight  sql.NullFloat64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateClient inserts a new client under the given coach.
func CreateClient(db *sql.DB, coachID int64, name string) (*Client, error) {
	if name == "" {
		return nil, fmt.Errorf("models: create client: %w: name is required", ErrInvalidInput)
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO clients (coach_id, name) VALUES (?, ?) RETURNING id`,
		coachID, name,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: create client %q: %w", name, err)
	}
	return GetClientByID(db, id)
}

// GetClientByID retrieves a client by primary key.
func GetClientByID(db *sql.DB, id int64) (*Client, error) {
	c := &Client{}
	err := db.QueryRow(
		`SELECT id, coach_id, name, status, sex, birth_date, height_cm,
		        start_weight, goal_weight, created_at, updated_at
		 FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.CoachID, &c.Name, &c.Status, &c.Sex, &c.BirthDate,
		&c.HeightCM, &c.StartWeight, &c.GoalWeight, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get client %d: %w", id, err)
	}
	return c, nil
}

// UpdateClientProfile updates the anthropometric fields of a client.
// Empty/zero values clear the corresponding column.
func UpdateClientProfile(db *sql.DB, id int64, sex, birthDate string, heightCM, startWeight, goalWeight float64) (*Client, error) {
	toNullS := func(s string) sql.NullString {
		if s == "" {
			return sql.NullString{}
		}
		return sql.NullString{String: s, Valid: true}
	}
	toNullF := func(f float64) sql.NullFloat64 {
		if f == 0 {
			return sql.NullFloat64{}
		}
		return sql.NullFloat64{Float64: f, Valid: true}
	}

	result, err := db.Exec(
		`UPDATE clients SET sex = ?, birth_date = ?, height_cm = ?,
		        start_weight = ?, goal_weight = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		toNullS(sex), toNullS(birthDate), toNullF(heightCM), toNullF(startWeight), toNullF(goalWeight), id,
	)
	if err != nil {
		return nil, fmt.Errorf("models: update client %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrNotFound
	}
	return GetClientByID(db, id)
}

// SetClientStatus transitions the coaching relationship status.
func SetClientStatus(db *sql.DB, id int64, status string) error {
	switch status {
	case ClientActive, ClientPaused, ClientEnded:
	default:
		return fmt.Errorf("models: set client status: %w: unknown status %q", ErrInvalidInput, status)
	}
	result, err := db.Exec(
		`UPDATE clients SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("models: set client %d status: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveClients returns the coach's active clients, oldest first.
func ListActiveClients(db *sql.DB, coachID int64) ([]*Client, error) {
	rows, err := db.Query(
		`SELECT id, coach_id, name, status, sex, birth_date, height_cm,
		        start_weight, goal_weight, created_at, updated_at
		 FROM clients
		 WHERE coach_id = ? AND status = ?
		 ORDER BY id`, coachID, ClientActive)
	if err != nil {
		return nil, fmt.Errorf("models: list active clients for coach %d: %w", coachID, err)
	}
	defer rows.Close()
	return scanClients(rows)
}

func scanClients(rows *sql.Rows) ([]*Client, error) {
	var clients []*Client
	for rows.Next() {
		c := &Client{}
		if err := rows.Scan(&c.ID, &c.CoachID, &c.Name, &c.Status, &c.Sex, &c.BirthDate,
			&c.HeightCM, &c.StartWeight, &c.GoalWeight, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("models: scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
