package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateCheckin is returned when a check-in already exists for the
// same client and date (daily) or client, week, and year (weekly).
var ErrDuplicateCheckin = errors.New("check-in already exists for this period")

// DailyCheckin is one day's self-reported snapshot: weight, mood, sleep.
type DailyCheckin struct {
	ID         int64
	ClientID   int64
	Date       string // YYYY-MM-DD
	Weight     sql.NullFloat64
	Mood       sql.NullInt64 // 1–5
	SleepHours sql.NullFloat64
	Notes      sql.NullString
	CreatedAt  time.Time
}

// WeeklyCheckin is the weekly reflection: energy, motivation, adherence.
type WeeklyCheckin struct {
	ID                 int64
	ClientID           int64
	WeekNumber         int
	Year               int
	Energy             sql.NullInt64 // 1–5
	Motivation         sql.NullInt64 // 1–5
	TrainingAdherence  sql.NullInt64 // 0–100
	NutritionAdherence sql.NullInt64 // 0–100
	Notes              sql.NullString
	CreatedAt          time.Time
}

// CreateDailyCheckin inserts a daily check-in. Zero-valued optional fields
// store as NULL.
func CreateDailyCheckin(db *sql.DB, clientID int64, date string, weight float64, mood int, sleepHours float64, notes string) (*DailyCheckin, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if mood < 0 || mood > 5 {
		return nil, fmt.Errorf("models: create daily check-in: %w: mood must be 1–5", ErrInvalidInput)
	}

	var weightVal, sleepVal sql.NullFloat64
	if weight > 0 {
		weightVal = sql.NullFloat64{Float64: weight, Valid: true}
	}
	if sleepHours > 0 {
		sleepVal = sql.NullFloat64{Float64: sleepHours, Valid: true}
	}
	var moodVal sql.NullInt64
	if mood > 0 {
		moodVal = sql.NullInt64{Int64: int64(mood), Valid: true}
	}
	var notesVal sql.NullString
	if notes != "" {
		notesVal = sql.NullString{String: notes, Valid: true}
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO daily_checkins (client_id, date, weight, mood, sleep_hours, notes)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		clientID, normalizeDate(date), weightVal, moodVal, sleepVal, notesVal,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCheckin
		}
		return nil, fmt.Errorf("models: create daily check-in for client %d: %w", clientID, err)
	}

	dc := &DailyCheckin{}
	err = db.QueryRow(
		`SELECT id, client_id, date, weight, mood, sleep_hours, notes, created_at
		 FROM daily_checkins WHERE id = ?`, id,
	).Scan(&dc.ID, &dc.ClientID, &dc.Date, &dc.Weight, &dc.Mood, &dc.SleepHours, &dc.Notes, &dc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: get daily check-in %d: %w", id, err)
	}
	return dc, nil
}

// ListDailyCheckins returns the client's most recent daily check-ins,
// newest date first, bounded by limit.
func ListDailyCheckins(db *sql.DB, clientID int64, limit int) ([]*DailyCheckin, error) {
	if limit <= 0 {
		limit = 14
	}
	rows, err := db.Query(
		`SELECT id, client_id, date, weight, mood, sleep_hours, notes, created_at
		 FROM daily_checkins
		 WHERE client_id = ?
		 ORDER BY date DESC
		 LIMIT ?`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("models: list daily check-ins for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var checkins []*DailyCheckin
	for rows.Next() {
		dc := &DailyCheckin{}
		if err := rows.Scan(&dc.ID, &dc.ClientID, &dc.Date, &dc.Weight, &dc.Mood,
			&dc.SleepHours, &dc.Notes, &dc.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan daily check-in: %w", err)
		}
		checkins = append(checkins, dc)
	}
	return checkins, rows.Err()
}

// RecentWeights returns the client's logged weights, most recent first,
// skipping check-ins without a weight.
func RecentWeights(db *sql.DB, clientID int64, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 14
	}
	rows, err := db.Query(
		`SELECT weight FROM daily_checkins
		 WHERE client_id = ? AND weight IS NOT NULL
		 ORDER BY date DESC
		 LIMIT ?`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("models: recent weights for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var weights []float64
	for rows.Next() {
		var w float64
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("models: scan weight: %w", err)
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}

// CreateWeeklyCheckin inserts a weekly check-in for the given ISO week.
func CreateWeeklyCheckin(db *sql.DB, clientID int64, weekNumber, year, energy, motivation, trainingAdh, nutritionAdh int, notes string) (*WeeklyCheckin, error) {
	if weekNumber < 1 || weekNumber > 53 {
		return nil, fmt.Errorf("models: create weekly check-in: %w: week number out of range", ErrInvalidInput)
	}

	toNull := func(n int) sql.NullInt64 {
		if n <= 0 {
			return sql.NullInt64{}
		}
		return sql.NullInt64{Int64: int64(n), Valid: true}
	}
	var notesVal sql.NullString
	if notes != "" {
		notesVal = sql.NullString{String: notes, Valid: true}
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO weekly_checkins (client_id, week_number, year, energy, motivation,
		        training_adherence, nutrition_adherence, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		clientID, weekNumber, year, toNull(energy), toNull(motivation),
		toNull(trainingAdh), toNull(nutritionAdh), notesVal,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCheckin
		}
		return nil, fmt.Errorf("models: create weekly check-in for client %d: %w", clientID, err)
	}

	return getWeeklyCheckinByID(db, id)
}

func getWeeklyCheckinByID(db *sql.DB, id int64) (*WeeklyCheckin, error) {
	wc := &WeeklyCheckin{}
	err := db.QueryRow(
		`SELECT id, client_id, week_number, year, energy, motivation,
		        training_adherence, nutrition_adherence, notes, created_at
		 FROM weekly_checkins WHERE id = ?`, id,
	).Scan(&wc.ID, &wc.ClientID, &wc.WeekNumber, &wc.Year, &wc.Energy, &wc.Motivation,
		&wc.TrainingAdherence, &wc.NutritionAdherence, &wc.Notes, &wc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get weekly check-in %d: %w", id, err)
	}
	return wc, nil
}

// ListWeeklyCheckins returns the client's most recent weekly check-ins,
// newest week first, bounded by limit.
func ListWeeklyCheckins(db *sql.DB, clientID int64, limit int) ([]*WeeklyCheckin, error) {
	if limit <= 0 {
		limit = 8
	}
	rows, err := db.Query(
		`SELECT id, client_id, week_number, year, energy, motivation,
		        training_adherence, nutrition_adherence, notes, created_at
		 FROM weekly_checkins
		 WHERE client_id = ?
		 ORDER BY year DESC, week_number DESC
		 LIMIT ?`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("models: list weekly check-ins for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var checkins []*WeeklyCheckin
	for rows.Next() {
		wc := &WeeklyCheckin{}
		if err := rows.Scan(&wc.ID, &wc.ClientID, &wc.WeekNumber, &wc.Year, &wc.Energy,
			&wc.Motivation, &wc.TrainingAdherence, &wc.NutritionAdherence, &wc.Notes, &wc.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan weekly check-in: %w", err)
		}
		checkins = append(checkins, wc)
	}
	return checkins, rows.Err()
}

// LatestDailyCheckin returns the most recent daily check-in, or nil.
func LatestDailyCheckin(db *sql.DB, clientID int64) (*DailyCheckin, error) {
	checkins, err := ListDailyCheckins(db, clientID, 1)
	if err != nil {
		return nil, err
	}
	if len(checkins) == 0 {
		return nil, nil
	}
	return checkins[0], nil
}
