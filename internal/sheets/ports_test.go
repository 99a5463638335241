package sheets

import (
	"testing"

	"timecard/internal/core"
	"timecard/internal/export"
)

func TestMonthSheetStrings(t *testing.T) {
	s := MonthSheet{
		Month:     "2024-03",
		Currency:  "JPY",
		Summary:   core.Summary{TotalMinutes: 115, TotalAmount: 2300, SessionCount: 2},
		Breakdown: []core.ActivityTotal{{Name: "cleaning", Minutes: 25, Amount: 417}, {Name: "shopping", Minutes: 90, Amount: 1800}},
		Rows: []export.Row{
			{Date: "2024/03/15", Activity: "shopping", Start: "09:00", End: "10:30", Minutes: 90, HourlyWage: 1200, Amount: 1800},
			{Date: "2024/03/16", Activity: "cleaning", Start: "08:00", HourlyWage: 1000},
		},
		Labels: export.Japanese,
	}

	got := s.Strings()
	if len(got) != 1+2+4+2 {
		t.Fatalf("unexpected row count %d: %v", len(got), got)
	}
	if got[0][0] != "日付" {
		t.Fatalf("header not localized: %v", got[0])
	}
	if got[2][3] != "-" || got[2][7] != "未" {
		t.Fatalf("open row not rendered: %v", got[2])
	}
	if len(got[3]) != 0 {
		t.Fatalf("expected separator row, got %v", got[3])
	}
	if got[4][0] != "2024-03" || got[4][2] != "未" {
		t.Fatalf("unexpected status row %v", got[4])
	}
	if got[6][1] != "2300" {
		t.Fatalf("unexpected total row %v", got[6])
	}
	if got[8][0] != "shopping" || got[8][2] != "1800" {
		t.Fatalf("unexpected breakdown row %v", got[8])
	}
}
