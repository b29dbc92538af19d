// Package assistant implements CoachDesk's context and orchestration
// engine: it aggregates a client's (or a whole coach roster's) data into a
// bounded textual context, merges in an optional knowledge lookup, enforces
// the per-domain autonomy policy on what the assistant may say, calls the
// completion service under timeout, persists the conversation, and triggers
// non-blocking knowledge enrichment from generated artifacts.
package assistant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/BigZorin/coachdesk/internal/models"
)

// Context window bounds. More rows are fetched than rendered so the weight
// trend has enough samples to look a week back.
const (
	weeklyFetchWindow = 8
	dailyFetchWindow  = 14
	weeklyRenderLimit = 4
	dailyRenderLimit  = 7
)

// trendDeadBand is the weight delta (in the client's unit) below which the
// trend is called stable.
const trendDeadBand = 0.3

// Weight trend classifications.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
	TrendUnknown = "unknown"
)

// ClassifyWeightTrend classifies a most-recent-first weight series by
// comparing the latest sample against the one roughly a week back (or as
// far back as available). Fewer than two samples is unknown.
func ClassifyWeightTrend(weights []float64) string {
	if len(weights) < 2 {
		return TrendUnknown
	}
	ref := len(weights) - 1
	if ref > 6 {
		ref = 6
	}
	diff := weights[0] - weights[ref]
	switch {
	case diff > trendDeadBand:
		return TrendRising
	case diff < -trendDeadBand:
		return TrendFalling
	default:
		return TrendStable
	}
}

// clientData is everything one context build reads, gathered concurrently.
type clientData struct {
	client  *models.Client
	weekly  []*models.WeeklyCheckin
	daily   []*models.DailyCheckin
	program *models.Program
	policy  *models.AutonomyPolicy
	goals   []*models.Goal
}

// BuildClientContext aggregates one client's data into the textual context
// document the completion service receives. Built fresh per request, never
// cached, never mutated.
func BuildClientContext(ctx context.Context, db *sql.DB, clientID int64) (string, error) {
	d := &clientData{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		client, err := models.GetClientByID(db, clientID)
		if err != nil {
			return fmt.Errorf("assistant: load client %d: %w", clientID, err)
		}
		d.client = client

		// The policy key needs the coach id from the client row, so this
		// read chains off the profile read instead of joining the fan-out.
		policy, err := models.GetAutonomyPolicy(db, clientID, client.CoachID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		d.policy = policy
		return nil
	})
	g.Go(func() error {
		weekly, err := models.ListWeeklyCheckins(db, clientID, weeklyFetchWindow)
		if err != nil {
			return err
		}
		d.weekly = weekly
		return nil
	})
	g.Go(func() error {
		daily, err := models.ListDailyCheckins(db, clientID, dailyFetchWindow)
		if err != nil {
			return err
		}
		d.daily = daily
		return nil
	})
	g.Go(func() error {
		program, err := models.GetActiveProgram(db, clientID)
		if err != nil {
			return err
		}
		d.program = program
		return nil
	})
	g.Go(func() error {
		goals, err := models.ListActiveGoals(db, clientID)
		if err != nil {
			return err
		}
		d.goals = goals
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", err
	}

	return renderClientContext(d), nil
}

// renderClientContext flattens the gathered data in a fixed order:
// identity, weight trend, active program, goals, weekly check-ins, daily
// check-ins, and (only when configured) the autonomy policy.
func renderClientContext(d *clientData) string {
	var b strings.Builder
	c := d.client

	// Identity and anthropometrics. Missing fields degrade to "Unknown".
	fmt.Fprintf(&b, "CLIENT: %s (relationship: %s)\n", c.Name, c.Status)
	fmt.Fprintf(&b, "Sex: %s | Born: %s | Height: %s cm\n",
		orUnknown(c.Sex), orUnknown(c.BirthDate), orUnknownFloat(c.HeightCM))
	fmt.Fprintf(&b, "Start weight: %s | Goal weight: %s\n",
		orUnknownFloat(c.StartWeight), orUnknownFloat(c.GoalWeight))

	// Weight trend over the daily samples carrying a weight.
	var weights []float64
	for _, dc := range d.daily {
		if dc.Weight.Valid {
			weights = append(weights, dc.Weight.Float64)
		}
	}
	fmt.Fprintf(&b, "Weight trend (vs ~1 week ago): %s\n", ClassifyWeightTrend(weights))

	if d.program != nil {
		fmt.Fprintf(&b, "\nACTIVE PROGRAM: %s", d.program.Name)
		if d.program.Focus.Valid {
			fmt.Fprintf(&b, " — focus: %s", d.program.Focus.String)
		}
		fmt.Fprintf(&b, " (%d days/week", d.program.DaysPerWeek)
		if d.program.StartedAt.Valid {
			fmt.Fprintf(&b, ", started %s", d.program.StartedAt.String)
		}
		b.WriteString(")\n")
	} else {
		b.WriteString("\nACTIVE PROGRAM: none\n")
	}

	if len(d.goals) > 0 {
		b.WriteString("\nGOALS:\n")
		for _, g := range d.goals {
			fmt.Fprintf(&b, "- %s", g.Title)
			if g.TargetDate.Valid {
				fmt.Fprintf(&b, " (target %s)", g.TargetDate.String)
			}
			b.WriteString("\n")
		}
	}

	if len(d.weekly) > 0 {
		b.WriteString("\nWEEKLY CHECK-INS (most recent first):\n")
		weekly := d.weekly
		if len(weekly) > weeklyRenderLimit {
			weekly = weekly[:weeklyRenderLimit]
		}
		for _, wc := range weekly {
			fmt.Fprintf(&b, "- Week %d/%d: energy %s/5, motivation %s/5, training %s%%, nutrition %s%%",
				wc.WeekNumber, wc.Year,
				orUnknownInt(wc.Energy), orUnknownInt(wc.Motivation),
				orUnknownInt(wc.TrainingAdherence), orUnknownInt(wc.NutritionAdherence))
			if wc.Notes.Valid {
				fmt.Fprintf(&b, " — %s", wc.Notes.String)
			}
			b.WriteString("\n")
		}
	}

	if len(d.daily) > 0 {
		b.WriteString("\nDAILY CHECK-INS (most recent first):\n")
		daily := d.daily
		if len(daily) > dailyRenderLimit {
			daily = daily[:dailyRenderLimit]
		}
		for _, dc := range daily {
			fmt.Fprintf(&b, "- %s:", dc.Date)
			if dc.Weight.Valid {
				fmt.Fprintf(&b, " weight %.1f", dc.Weight.Float64)
			}
			if dc.Mood.Valid {
				fmt.Fprintf(&b, " mood %d/5", dc.Mood.Int64)
			}
			if dc.SleepHours.Valid {
				fmt.Fprintf(&b, " sleep %.1fh", dc.SleepHours.Float64)
			}
			if dc.Notes.Valid {
				fmt.Fprintf(&b, " — %s", dc.Notes.String)
			}
			b.WriteString("\n")
		}
	}

	if d.policy != nil {
		b.WriteString("\n")
		b.WriteString(renderPolicyBlock(d.policy))
	}

	return b.String()
}

// renderPolicyBlock translates the autonomy policy into the literal
// behavioral instructions the assistant must obey, one line per domain.
// Unset domains are rendered as unset, never coerced to a permissive level.
func renderPolicyBlock(p *models.AutonomyPolicy) string {
	var b strings.Builder
	b.WriteString("AUTONOMY POLICY (follow these rules exactly for each area):\n")
	for _, domain := range models.AutonomyDomains {
		fmt.Fprintf(&b, "- %s: %s\n", domain, models.LevelInstruction(p.Level(domain)))
	}
	return b.String()
}

func orUnknown(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return "Unknown"
}

func orUnknownFloat(f sql.NullFloat64) string {
	if f.Valid {
		return fmt.Sprintf("%.1f", f.Float64)
	}
	return "Unknown"
}

func orUnknownInt(n sql.NullInt64) string {
	if n.Valid {
		return fmt.Sprintf("%d", n.Int64)
	}
	return "?"
}
