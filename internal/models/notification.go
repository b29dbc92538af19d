package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Notification types.
const (
	NotifyReportReady = "report_ready"
)

// Notification is an in-app notification row for a coach.
type Notification struct {
	ID        int64
	CoachID   int64
	Type      string
	Title     string
	Message   sql.NullString
	Link      sql.NullString
	Read      bool
	CreatedAt time.Time
}

// CreateNotification inserts an in-app notification for a coach.
func CreateNotification(db *sql.DB, coachID int64, typ, title, message, link string) (*Notification, error) {
	if typ == "" || title == "" {
		return nil, fmt.Errorf("models: create notification: %w: type and title are required", ErrInvalidInput)
	}
	var messageVal, linkVal sql.NullString
	if message != "" {
		messageVal = sql.NullString{String: message, Valid: true}
	}
	if link != "" {
		linkVal = sql.NullString{String: link, Valid: true}
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO notifications (coach_id, type, title, message, link) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		coachID, typ, title, messageVal, linkVal,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: create notification for coach %d: %w", coachID, err)
	}

	n := &Notification{}
	var readInt int
	err = db.QueryRow(
		`SELECT id, coach_id, type, title, message, link, read, created_at FROM notifications WHERE id = ?`, id,
	).Scan(&n.ID, &n.CoachID, &n.Type, &n.Title, &n.Message, &n.Link, &readInt, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: get notification %d: %w", id, err)
	}
	n.Read = readInt == 1
	return n, nil
}

// ListNotifications returns a coach's notifications, newest first.
func ListNotifications(db *sql.DB, coachID int64, unreadOnly bool, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, coach_id, type, title, message, link, read, created_at
	          FROM notifications WHERE coach_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := db.Query(query, coachID, limit)
	if err != nil {
		return nil, fmt.Errorf("models: list notifications for coach %d: %w", coachID, err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		var readInt int
		if err := rows.Scan(&n.ID, &n.CoachID, &n.Type, &n.Title, &n.Message, &n.Link, &readInt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan notification: %w", err)
		}
		n.Read = readInt == 1
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags a notification as read.
func MarkNotificationRead(db *sql.DB, id, coachID int64) error {
	result, err := db.Exec(
		`UPDATE notifications SET read = 1 WHERE id = ? AND coach_id = ?`, id, coachID,
	)
	if err != nil {
		return fmt.Errorf("models: mark notification %d read: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
