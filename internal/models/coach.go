package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Coach represents an account that owns clients and chat sessions.
type Coach struct {
	ID        int64
	Name      string
	Email     sql.NullString
	CreatedAt time.Time
}

// CreateCoach inserts a new coach.
func CreateCoach(db *sql.DB, name, email string) (*Coach, error) {
	if name == "" {
		return nil, fmt.Errorf("models: create coach: %w: name is required", ErrInvalidInput)
	}
	var emailVal sql.NullString
	if email != "" {
		emailVal = sql.NullString{String: email, Valid: true}
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO coaches (name, email) VALUES (?, ?) RETURNING id`,
		name, emailVal,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: create coach %q: %w", name, err)
	}
	return GetCoachByID(db, id)
}

// GetCoachByID retrieves a coach by primary key.
func GetCoachByID(db *sql.DB, id int64) (*Coach, error) {
	c := &Coach{}
	err := db.QueryRow(
		`SELECT id, name, email, created_at FROM coaches WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get coach %d: %w", id, err)
	}
	return c, nil
}

// ListCoaches returns all coaches, oldest first.
func ListCoaches(db *sql.DB) ([]*Coach, error) {
	rows, err := db.Query(`SELECT id, name, email, created_at FROM coaches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("models: list coaches: %w", err)
	}
	defer rows.Close()

	var coaches []*Coach
	for rows.Next() {
		c := &Coach{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan coach: %w", err)
		}
		coaches = append(coaches, c)
	}
	return coaches, rows.Err()
}
