package core

import (
	"testing"
	"time"
)

func TestActivityValidate(t *testing.T) {
	cases := []struct {
		a  Activity
		ok bool
	}{
		{Activity{Name: "cleaning", HourlyWage: 1000}, true},
		{Activity{Name: "  ", HourlyWage: 1000}, false},
		{Activity{Name: "cleaning", HourlyWage: 0}, false},
		{Activity{Name: "cleaning", HourlyWage: -5}, false},
	}
	for i, tc := range cases {
		err := tc.a.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSessionValidate(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Minute)
	after := start.Add(time.Hour)

	good := []Session{
		{StartAt: start, HourlyWage: 1000},
		{StartAt: start, EndAt: &start, HourlyWage: 1000},
		{StartAt: start, EndAt: &after, HourlyWage: 1000},
	}
	for i, s := range good {
		if err := s.Validate(); err != nil {
			t.Fatalf("good case %d: %v", i, err)
		}
	}

	if err := (Session{StartAt: start, EndAt: &before}).Validate(); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if err := (Session{}).Validate(); err != ErrMissingStart {
		t.Fatalf("expected ErrMissingStart, got %v", err)
	}
}

func TestSessionEarningsOpenIsZero(t *testing.T) {
	s := Session{StartAt: time.Now().Add(-2 * time.Hour), HourlyWage: 1500}
	if !s.IsOpen() {
		t.Fatalf("expected open session")
	}
	if s.Minutes() != 0 || s.Amount() != 0 {
		t.Fatalf("open session must contribute nothing, got %d min / %d", s.Minutes(), s.Amount())
	}
}

func TestTodoValidate(t *testing.T) {
	if err := (Todo{Date: "2024-03-15", Title: "dishes"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Todo{Date: "2024-03-15"}).Validate(); err != ErrEmptyTitle {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if err := (Todo{Date: "15/03/2024", Title: "x"}).Validate(); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestLocaleFor(t *testing.T) {
	if got := LocaleFor("ja-JP"); got.UnknownActivity != "不明" {
		t.Fatalf("ja-JP should map to Japanese, got %q", got.UnknownActivity)
	}
	if got := LocaleFor("en"); got.UnknownActivity != "unknown" {
		t.Fatalf("en should map to English, got %q", got.UnknownActivity)
	}
	if got := LocaleFor("not a tag!"); got.UnknownActivity != "unknown" {
		t.Fatalf("invalid tags default to English")
	}

	seeds := English.Seeds()
	seeds[0].Name = "changed"
	if English.SeedActivities[0].Name != "cleaning" {
		t.Fatalf("Seeds must return a copy")
	}
}
