package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Autonomy domains: the coaching areas a policy can govern.
const (
	DomainNutrition   = "nutrition"
	DomainTraining    = "training"
	DomainRestDays    = "rest_days"
	DomainSupplements = "supplements"
	DomainProgram     = "program"
)

// Autonomy levels: how directive the assistant may be within a domain.
const (
	LevelAssistantLed   = "assistant_led"
	LevelSuggestionOnly = "suggestion_only"
	LevelManualOnly     = "manual_only"
)

// AutonomyDomains lists all domains in rendering order.
var AutonomyDomains = []string{
	DomainNutrition,
	DomainTraining,
	DomainRestDays,
	DomainSupplements,
	DomainProgram,
}

// AutonomyPolicy is the per-domain permission table for one (coach, client)
// pair. A NULL domain column means "unset" — it is never coerced to a
// permissive level.
type AutonomyPolicy struct {
	ID          int64
	ClientID    int64
	CoachID     int64
	Nutrition   sql.NullString
	Training    sql.NullString
	RestDays    sql.NullString
	Supplements sql.NullString
	Program     sql.NullString
	UpdatedAt   time.Time
}

// Level returns the configured level for a domain, or "unset".
func (p *AutonomyPolicy) Level(domain string) string {
	var v sql.NullString
	switch domain {
	case DomainNutrition:
		v = p.Nutrition
	case DomainTraining:
		v = p.Training
	case DomainRestDays:
		v = p.RestDays
	case DomainSupplements:
		v = p.Supplements
	case DomainProgram:
		v = p.Program
	}
	if v.Valid {
		return v.String
	}
	return "unset"
}

// ValidAutonomyDomain reports whether domain is a known coaching domain.
func ValidAutonomyDomain(domain string) bool {
	switch domain {
	case DomainNutrition, DomainTraining, DomainRestDays, DomainSupplements, DomainProgram:
		return true
	}
	return false
}

// ValidAutonomyLevel reports whether level is a known autonomy level.
func ValidAutonomyLevel(level string) bool {
	switch level {
	case LevelAssistantLed, LevelSuggestionOnly, LevelManualOnly:
		return true
	}
	return false
}

// GetAutonomyPolicy retrieves the policy for a (client, coach) pair.
// Returns ErrNotFound when no policy has been configured yet — a valid
// state the caller must treat as all-domains-unset.
func GetAutonomyPolicy(db *sql.DB, clientID, coachID int64) (*AutonomyPolicy, error) {
	p := &AutonomyPolicy{}
	err := db.QueryRow(
		`SELECT id, client_id, coach_id, nutrition, training, rest_days, supplements, program, updated_at
		 FROM autonomy_policies
		 WHERE client_id = ? AND coach_id = ?`, clientID, coachID,
	).Scan(&p.ID, &p.ClientID, &p.CoachID, &p.Nutrition, &p.Training, &p.RestDays,
		&p.Supplements, &p.Program, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get autonomy policy (client %d, coach %d): %w", clientID, coachID, err)
	}
	return p, nil
}

// SetAutonomyLevel upserts a single domain's level for a (client, coach)
// pair. Other domains are never touched — this is a merge, not a replace.
// The domain name is validated against the known set before being spliced
// into the statement.
func SetAutonomyLevel(db *sql.DB, clientID, coachID int64, domain, level string) error {
	if !ValidAutonomyDomain(domain) {
		return fmt.Errorf("models: set autonomy level: %w: unknown domain %q", ErrInvalidInput, domain)
	}
	if !ValidAutonomyLevel(level) {
		return fmt.Errorf("models: set autonomy level: %w: unknown level %q", ErrInvalidInput, level)
	}

	// domain is whitelist-validated above, so interpolating the column name
	// is safe. SQLite's ON CONFLICT gives us the atomic single-field merge.
	query := fmt.Sprintf(
		`INSERT INTO autonomy_policies (client_id, coach_id, %s, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(client_id, coach_id)
		 DO UPDATE SET %s = excluded.%s, updated_at = CURRENT_TIMESTAMP`,
		domain, domain, domain,
	)
	if _, err := db.Exec(query, clientID, coachID, level); err != nil {
		return fmt.Errorf("models: set autonomy level (client %d, coach %d, %s): %w", clientID, coachID, domain, err)
	}
	return nil
}

// LevelInstruction renders the behavioral instruction text for a level,
// embedded verbatim in the assistant's context document.
func LevelInstruction(level string) string {
	switch level {
	case LevelAssistantLed:
		return "assistant-led: you may propose concrete changes in this area on your own initiative"
	case LevelSuggestionOnly:
		return "suggestion-only: you may analyze and propose options in this area, but the coach decides"
	case LevelManualOnly:
		return "manual-only: stay silent on this area unless the coach explicitly asks about it"
	default:
		return "unset: no autonomy level has been configured for this area"
	}
}
