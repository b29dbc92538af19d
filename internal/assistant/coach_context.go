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

// NoActiveClients is the context document produced for a coach whose
// roster has no active clients.
const NoActiveClients = "No active clients."

// clientDigest is the condensed per-client slice of a roster context.
type clientDigest struct {
	client      *models.Client
	trend       string
	latestDaily *models.DailyCheckin
	weights     []float64
	weekly      []*models.WeeklyCheckin
	policy      *models.AutonomyPolicy
}

// BuildCoachContext aggregates a condensed digest of every active client
// on the coach's roster. Per-client history is capped by the digest budget
// settings so the document stays bounded as the roster grows.
func BuildCoachContext(ctx context.Context, db *sql.DB, coachID int64) (string, error) {
	clients, err := models.ListActiveClients(db, coachID)
	if err != nil {
		return "", fmt.Errorf("assistant: list active clients: %w", err)
	}
	if len(clients) == 0 {
		return NoActiveClients, nil
	}

	dailyBudget := models.GetDigestDailyBudget(db)
	weeklyBudget := models.GetDigestWeeklyBudget(db)

	digests := make([]*clientDigest, len(clients))
	g, _ := errgroup.WithContext(ctx)
	for i, c := range clients {
		g.Go(func() error {
			d, err := buildClientDigest(db, c, dailyBudget, weeklyBudget)
			if err != nil {
				return err
			}
			digests[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COACH ROSTER: %d active clients\n", len(clients))
	for _, d := range digests {
		b.WriteString("\n")
		b.WriteString(renderClientDigest(d))
	}
	return b.String(), nil
}

func buildClientDigest(db *sql.DB, c *models.Client, dailyBudget, weeklyBudget int) (*clientDigest, error) {
	latestDaily, err := models.LatestDailyCheckin(db, c.ID)
	if err != nil {
		return nil, err
	}
	weights, err := models.RecentWeights(db, c.ID, dailyBudget)
	if err != nil {
		return nil, err
	}
	weekly, err := models.ListWeeklyCheckins(db, c.ID, weeklyBudget)
	if err != nil {
		return nil, err
	}
	policy, err := models.GetAutonomyPolicy(db, c.ID, c.CoachID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return &clientDigest{
		client:      c,
		trend:       ClassifyWeightTrend(weights),
		latestDaily: latestDaily,
		weights:     weights,
		weekly:      weekly,
		policy:      policy,
	}, nil
}

func renderClientDigest(d *clientDigest) string {
	var b strings.Builder
	c := d.client

	fmt.Fprintf(&b, "### %s (%s)\n", c.Name, c.Status)

	latestWeight := "Unknown"
	if len(d.weights) > 0 {
		latestWeight = fmt.Sprintf("%.1f", d.weights[0])
	}
	fmt.Fprintf(&b, "Weight: %s (goal %s), trend %s\n",
		latestWeight, orUnknownFloat(c.GoalWeight), d.trend)

	if d.latestDaily != nil {
		dc := d.latestDaily
		fmt.Fprintf(&b, "Latest daily (%s):", dc.Date)
		if dc.Mood.Valid {
			fmt.Fprintf(&b, " mood %d/5", dc.Mood.Int64)
		}
		if dc.SleepHours.Valid {
			fmt.Fprintf(&b, " sleep %.1fh", dc.SleepHours.Float64)
		}
		if dc.Notes.Valid {
			fmt.Fprintf(&b, " note: %s", dc.Notes.String)
		}
		b.WriteString("\n")
	}

	for _, wc := range d.weekly {
		fmt.Fprintf(&b, "Weekly (week %d/%d): energy %s/5, motivation %s/5, training %s%%, nutrition %s%%\n",
			wc.WeekNumber, wc.Year,
			orUnknownInt(wc.Energy), orUnknownInt(wc.Motivation),
			orUnknownInt(wc.TrainingAdherence), orUnknownInt(wc.NutritionAdherence))
	}

	if d.policy != nil {
		levels := make([]string, 0, len(models.AutonomyDomains))
		for _, domain := range models.AutonomyDomains {
			levels = append(levels, fmt.Sprintf("%s=%s", domain, d.policy.Level(domain)))
		}
		fmt.Fprintf(&b, "Autonomy: %s\n", strings.Join(levels, ", "))
	}

	return b.String()
}
