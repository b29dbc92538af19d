package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Goal statuses.
const (
	GoalActive   = "active"
	GoalAchieved = "achieved"
	GoalDropped  = "dropped"
)

// Goal is a client objective tracked alongside the program.
type Goal struct {
	ID         int64
	ClientID   int64
	Title      string
	Status     string
	TargetDate sql.NullString // YYYY-MM-DD
	CreatedAt  time.Time
}

// CreateGoal inserts a new active goal for a client.
func CreateGoal(db *sql.DB, clientID int64, title, targetDate string) (*Goal, error) {
	if title == "" {
		return nil, fmt.Errorf("models: create goal: %w: title is required", ErrInvalidInput)
	}
	var targetVal sql.NullString
	if targetDate != "" {
		targetVal = sql.NullString{String: targetDate, Valid: true}
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO goals (client_id, title, status, target_date) VALUES (?, ?, ?, ?) RETURNING id`,
		clientID, title, GoalActive, targetVal,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: create goal for client %d: %w", clientID, err)
	}

	g := &Goal{}
	err = db.QueryRow(
		`SELECT id, client_id, title, status, target_date, created_at FROM goals WHERE id = ?`, id,
	).Scan(&g.ID, &g.ClientID, &g.Title, &g.Status, &g.TargetDate, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: get goal %d: %w", id, err)
	}
	return g, nil
}

// SetGoalStatus transitions a goal to achieved or dropped.
func SetGoalStatus(db *sql.DB, id int64, status string) error {
	switch status {
	case GoalActive, GoalAchieved, GoalDropped:
	default:
		return fmt.Errorf("models: set goal status: %w: unknown status %q", ErrInvalidInput, status)
	}
	result, err := db.Exec(`UPDATE goals SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("models: set goal %d status: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveGoals returns the client's active goals, oldest first.
func ListActiveGoals(db *sql.DB, clientID int64) ([]*Goal, error) {
	rows, err := db.Query(
		`SELECT id, client_id, title, status, target_date, created_at
		 FROM goals
		 WHERE client_id = ? AND status = ?
		 ORDER BY id`, clientID, GoalActive)
	if err != nil {
		return nil, fmt.Errorf("models: list active goals for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var goals []*Goal
	for rows.Next() {
		g := &Goal{}
		if err := rows.Scan(&g.ID, &g.ClientID, &g.Title, &g.Status, &g.TargetDate, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
