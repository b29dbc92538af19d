package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/BigZorin/coachdesk/internal/models"
)

func TestClassifyWeightTrend(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64 // most recent first
		want    string
	}{
		{"no samples", nil, TrendUnknown},
		{"one sample", []float64{80.0}, TrendUnknown},
		{"steady loss", []float64{80.0, 80.5, 81.0, 81.2}, TrendFalling},
		{"steady gain", []float64{82.0, 81.5, 81.0}, TrendRising},
		{"within dead band", []float64{80.2, 80.0, 80.1}, TrendStable},
		{"exactly at dead band is stable", []float64{80.3, 80.0}, TrendStable},
		{"just past dead band", []float64{80.31, 80.0}, TrendRising},
		{"comparison capped at a week back", []float64{80.0, 80.0, 80.0, 80.0, 80.0, 80.0, 81.0, 90.0}, TrendFalling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyWeightTrend(tt.weights); got != tt.want {
				t.Errorf("ClassifyWeightTrend(%v) = %q, want %q", tt.weights, got, tt.want)
			}
		})
	}
}

func TestBuildClientContext(t *testing.T) {
	db := testDB(t)
	coach, client := testCoachAndClient(t, db)

	t.Run("missing profile fields degrade to Unknown", func(t *testing.T) {
		doc, err := BuildClientContext(context.Background(), db, client.ID)
		if err != nil {
			t.Fatalf("build context: %v", err)
		}
		if !strings.Contains(doc, "Alice") {
			t.Errorf("missing client name in:\n%s", doc)
		}
		if !strings.Contains(doc, "Unknown") {
			t.Errorf("missing Unknown placeholder in:\n%s", doc)
		}
		if !strings.Contains(doc, TrendUnknown) {
			t.Errorf("trend should be unknown with no weights:\n%s", doc)
		}
	})

	t.Run("no policy block when no policy exists", func(t *testing.T) {
		doc, err := BuildClientContext(context.Background(), db, client.ID)
		if err != nil {
			t.Fatalf("build context: %v", err)
		}
		if strings.Contains(doc, "AUTONOMY POLICY") {
			t.Errorf("unexpected policy block:\n%s", doc)
		}
	})

	t.Run("policy block renders every domain", func(t *testing.T) {
		if err := models.SetAutonomyLevel(db, client.ID, coach.ID, models.DomainNutrition, models.LevelAssistantLed); err != nil {
			t.Fatalf("set level: %v", err)
		}

		doc, err := BuildClientContext(context.Background(), db, client.ID)
		if err != nil {
			t.Fatalf("build context: %v", err)
		}
		if !strings.Contains(doc, "AUTONOMY POLICY") {
			t.Fatalf("missing policy block:\n%s", doc)
		}
		if !strings.Contains(doc, "assistant-led") {
			t.Errorf("missing configured level:\n%s", doc)
		}
		// Unconfigured domains must render as unset, never a permissive default.
		if !strings.Contains(doc, "no autonomy level has been configured") {
			t.Errorf("missing unset rendering:\n%s", doc)
		}
	})

	t.Run("check-ins and trend appear", func(t *testing.T) {
		dates := []struct {
			date   string
			weight float64
		}{
			{"2026-08-27", 81.2}, {"2026-08-28", 81.0}, {"2026-08-29", 80.5}, {"2026-08-30", 80.0},
		}
		for _, d := range dates {
			if _, err := models.CreateDailyCheckin(db, client.ID, d.date, d.weight, 4, 7.0, ""); err != nil {
				t.Fatalf("seed %s: %v", d.date, err)
			}
		}
		if _, err := models.CreateWeeklyCheckin(db, client.ID, 35, 2026, 4, 3, 90, 80, "good week"); err != nil {
			t.Fatalf("seed weekly: %v", err)
		}

		doc, err := BuildClientContext(context.Background(), db, client.ID)
		if err != nil {
			t.Fatalf("build context: %v", err)
		}
		if !strings.Contains(doc, TrendFalling) {
			t.Errorf("want falling trend in:\n%s", doc)
		}
		if !strings.Contains(doc, "DAILY CHECK-INS") || !strings.Contains(doc, "2026-08-30") {
			t.Errorf("missing daily section:\n%s", doc)
		}
		if !strings.Contains(doc, "Week 35/2026") {
			t.Errorf("missing weekly section:\n%s", doc)
		}
	})

	t.Run("program and goals render", func(t *testing.T) {
		program, err := models.CreateProgram(db, client.ID, "Cut Phase 2", models.ProgramDraft, "fat loss", 4)
		if err != nil {
			t.Fatalf("seed program: %v", err)
		}
		if err := models.SetProgramStatus(db, program.ID, models.ProgramActive); err != nil {
			t.Fatalf("activate program: %v", err)
		}
		if _, err := models.CreateGoal(db, client.ID, "Drop to 78kg", "2026-12-01"); err != nil {
			t.Fatalf("seed goal: %v", err)
		}

		doc, err := BuildClientContext(context.Background(), db, client.ID)
		if err != nil {
			t.Fatalf("build context: %v", err)
		}
		if !strings.Contains(doc, "ACTIVE PROGRAM: Cut Phase 2") {
			t.Errorf("missing program block:\n%s", doc)
		}
		if !strings.Contains(doc, "4 days/week") {
			t.Errorf("missing program schedule:\n%s", doc)
		}
		if !strings.Contains(doc, "Drop to 78kg (target 2026-12-01)") {
			t.Errorf("missing goal line:\n%s", doc)
		}
	})

	t.Run("unknown client fails", func(t *testing.T) {
		if _, err := BuildClientContext(context.Background(), db, 99999); err == nil {
			t.Error("expected error for unknown client")
		}
	})
}

func TestBuildCoachContext(t *testing.T) {
	db := testDB(t)

	t.Run("empty roster yields sentinel", func(t *testing.T) {
		coach, err := models.CreateCoach(db, "Empty", "")
		if err != nil {
			t.Fatalf("create coach: %v", err)
		}
		doc, err := BuildCoachContext(context.Background(), db, coach.ID)
		if err != nil {
			t.Fatalf("build coach context: %v", err)
		}
		if doc != NoActiveClients {
			t.Errorf("doc = %q, want %q", doc, NoActiveClients)
		}
	})

	t.Run("paused clients excluded", func(t *testing.T) {
		coach, client := testCoachAndClient(t, db)
		paused, err := models.CreateClient(db, coach.ID, "Bob")
		if err != nil {
			t.Fatalf("create client: %v", err)
		}
		if err := models.SetClientStatus(db, paused.ID, models.ClientPaused); err != nil {
			t.Fatalf("pause: %v", err)
		}

		doc, err := BuildCoachContext(context.Background(), db, coach.ID)
		if err != nil {
			t.Fatalf("build coach context: %v", err)
		}
		if !strings.Contains(doc, client.Name) {
			t.Errorf("missing active client:\n%s", doc)
		}
		if strings.Contains(doc, "Bob") {
			t.Errorf("paused client leaked into digest:\n%s", doc)
		}
		if !strings.Contains(doc, "1 active client") {
			t.Errorf("missing roster header:\n%s", doc)
		}
	})
}
