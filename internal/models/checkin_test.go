package models

import (
	"testing"
)

func TestCreateDailyCheckin(t *testing.T) {
	db := testDB(t)
	_, client := testCoachAndClient(t, db)

	t.Run("basic create", func(t *testing.T) {
		dc, err := CreateDailyCheckin(db, client.ID, "2026-08-30", 80.5, 4, 7.5, "slept well")
		if err != nil {
			t.Fatalf("create daily check-in: %v", err)
		}
		if !dc.Weight.Valid || dc.Weight.Float64 != 80.5 {
			t.Errorf("weight = %v, want 80.5", dc.Weight)
		}
		if !dc.Mood.Valid || dc.Mood.Int64 != 4 {
			t.Errorf("mood = %v, want 4", dc.Mood)
		}
	})

	t.Run("duplicate date rejected", func(t *testing.T) {
		_, err := CreateDailyCheckin(db, client.ID, "2026-08-30", 81.0, 0, 0, "")
		if err != ErrDuplicateCheckin {
			t.Errorf("err = %v, want ErrDuplicateCheckin", err)
		}
	})

	t.Run("zero fields store as null", func(t *testing.T) {
		dc, err := CreateDailyCheckin(db, client.ID, "2026-08-31", 0, 0, 0, "")
		if err != nil {
			t.Fatalf("create daily check-in: %v", err)
		}
		if dc.Weight.Valid || dc.Mood.Valid || dc.SleepHours.Valid || dc.Notes.Valid {
			t.Errorf("optional fields should be null: %+v", dc)
		}
	})
}

func TestRecentWeights(t *testing.T) {
	db := testDB(t)
	_, client := testCoachAndClient(t, db)

	// Mixed entries: weight-less check-ins must be skipped, order must be
	// most recent first.
	seed := []struct {
		date   string
		weight float64
	}{
		{"2026-08-25", 82.0},
		{"2026-08-26", 0},
		{"2026-08-27", 81.4},
		{"2026-08-28", 81.0},
	}
	for _, s := range seed {
		if _, err := CreateDailyCheckin(db, client.ID, s.date, s.weight, 0, 0, ""); err != nil {
			t.Fatalf("seed %s: %v", s.date, err)
		}
	}

	weights, err := RecentWeights(db, client.ID, 0)
	if err != nil {
		t.Fatalf("recent weights: %v", err)
	}
	want := []float64{81.0, 81.4, 82.0}
	if len(weights) != len(want) {
		t.Fatalf("got %v, want %v", weights, want)
	}
	for i := range want {
		if weights[i] != want[i] {
			t.Errorf("weights[%d] = %v, want %v", i, weights[i], want[i])
		}
	}
}

func TestCreateWeeklyCheckin(t *testing.T) {
	db := testDB(t)
	_, client := testCoachAndClient(t, db)

	t.Run("basic create", func(t *testing.T) {
		wc, err := CreateWeeklyCheckin(db, client.ID, 35, 2026, 4, 3, 90, 80, "solid week")
		if err != nil {
			t.Fatalf("create weekly check-in: %v", err)
		}
		if wc.WeekNumber != 35 || wc.Year != 2026 {
			t.Errorf("week = %d/%d", wc.WeekNumber, wc.Year)
		}
	})

	t.Run("duplicate week rejected", func(t *testing.T) {
		_, err := CreateWeeklyCheckin(db, client.ID, 35, 2026, 0, 0, 0, 0, "")
		if err != ErrDuplicateCheckin {
			t.Errorf("err = %v, want ErrDuplicateCheckin", err)
		}
	})

	t.Run("week number validated", func(t *testing.T) {
		if _, err := CreateWeeklyCheckin(db, client.ID, 54, 2026, 0, 0, 0, 0, ""); err == nil {
			t.Error("expected error for week 54")
		}
	})
}

func TestListWeeklyCheckins_Order(t *testing.T) {
	db := testDB(t)
	_, client := testCoachAndClient(t, db)

	// Across a year boundary: 2026 weeks must come before late 2025.
	for _, wk := range []struct{ week, year int }{
		{52, 2025}, {1, 2026}, {2, 2026},
	} {
		if _, err := CreateWeeklyCheckin(db, client.ID, wk.week, wk.year, 3, 3, 0, 0, ""); err != nil {
			t.Fatalf("seed week %d/%d: %v", wk.week, wk.year, err)
		}
	}

	checkins, err := ListWeeklyCheckins(db, client.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(checkins) != 3 {
		t.Fatalf("got %d check-ins, want 3", len(checkins))
	}
	if checkins[0].WeekNumber != 2 || checkins[0].Year != 2026 {
		t.Errorf("first = %d/%d, want 2/2026", checkins[0].WeekNumber, checkins[0].Year)
	}
	if checkins[2].WeekNumber != 52 || checkins[2].Year != 2025 {
		t.Errorf("last = %d/%d, want 52/2025", checkins[2].WeekNumber, checkins[2].Year)
	}
}
