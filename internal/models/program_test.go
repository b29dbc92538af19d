package models

import (
	"errors"
	"testing"
)

func TestCreateProgram(t *testing.T) {
	db := testDB(t)
	_, client := testCoachAndClient(t, db)

	t.Run("active program gets a start date", func(t *testing.T) {
		p, err := CreateProgram(db, client.ID, "Base Block", ProgramActive, "hypertrophy", 4)
		if err != nil {
			t.Fatalf("create program: %v", err)
		}
		if !p.StartedAt.Valid {
			t.Error("active program missing started_at")
		}
		if p.DaysPerWeek != 4 {
			t.Errorf("days per week = %d, want 4", p.DaysPerWeek)
		}
	})

	t.Run("draft program has no start date", func(t *testing.T) {
		p, err := CreateProgram(db, client.ID, "Next Block", ProgramDraft, "", 3)
		if err != nil {
			t.Fatalf("create program: %v", err)
		}
		if p.StartedAt.Valid {
			t.Errorf("draft program got started_at %q", p.StartedAt.String)
		}
		if p.Focus.Valid {
			t.Errorf("empty focus stored as %q", p.Focus.String)
		}
	})

	t.Run("out-of-range schedule falls back to default", func(t *testing.T) {
		p, err := CreateProgram(db, client.ID, "Odd Schedule", ProgramDraft, "", 9)
		if err != nil {
			t.Fatalf("create program: %v", err)
		}
		if p.DaysPerWeek != 3 {
			t.Errorf("days per week = %d, want 3", p.DaysPerWeek)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		if _, err := CreateProgram(db, client.ID, "", ProgramDraft, "", 3); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		if _, err := CreateProgram(db, client.ID, "Bad", "RUNNING", "", 3); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})
}

func TestSetProgramStatus(t *testing.T) {
	db := testDB(t)
	_, client := testCoachAndClient(t, db)

	first, err := CreateProgram(db, client.ID, "Block A", ProgramActive, "", 3)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := CreateProgram(db, client.ID, "Block B", ProgramDraft, "", 3)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	t.Run("activating completes the prior active program", func(t *testing.T) {
		if err := SetProgramStatus(db, second.ID, ProgramActive); err != nil {
			t.Fatalf("activate: %v", err)
		}

		active, err := GetActiveProgram(db, client.ID)
		if err != nil {
			t.Fatalf("get active: %v", err)
		}
		if active == nil || active.ID != second.ID {
			t.Fatalf("active = %+v, want Block B", active)
		}

		prior, err := GetProgramByID(db, first.ID)
		if err != nil {
			t.Fatalf("get prior: %v", err)
		}
		if prior.Status != ProgramCompleted {
			t.Errorf("prior status = %q, want COMPLETED", prior.Status)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		if err := SetProgramStatus(db, first.ID, "PAUSED"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("missing program is not found", func(t *testing.T) {
		if err := SetProgramStatus(db, 99999, ProgramCompleted); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestGetActiveProgram_NoneIsNil(t *testing.T) {
	db := testDB(t)
	_, client := testCoachAndClient(t, db)

	p, err := GetActiveProgram(db, client.ID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if p != nil {
		t.Errorf("got %+v, want nil", p)
	}
}
