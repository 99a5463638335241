package core

import (
	"sort"
	"time"
)

// Summary totals the closed sessions of a month.
type Summary struct {
	TotalMinutes int64 `json:"totalMinutes"`
	TotalAmount  int64 `json:"totalAmount"`
	SessionCount int   `json:"sessionCount"`
}

// ActivityTotal is minutes and amount aggregated under an activity display name.
type ActivityTotal struct {
	Name    string `json:"name"`
	Minutes int64  `json:"minutes"`
	Amount  int64  `json:"amount"`
}

// MonthReport is a compact summary for a specific month.
type MonthReport struct {
	Month     MonthKey        `json:"month"`
	Paid      bool            `json:"paid"`
	Summary   Summary         `json:"summary"`
	Breakdown []ActivityTotal `json:"breakdown"`
	Sessions  []Session       `json:"sessions"`
}

// SessionsInMonth keeps ledger order and returns every session, open or
// closed, whose start falls in key.
func SessionsInMonth(sessions []Session, key MonthKey, loc *time.Location) []Session {
	out := make([]Session, 0)
	for _, s := range sessions {
		if s.MonthKey(loc) == key {
			out = append(out, s)
		}
	}
	return out
}

// Summarize totals minutes and amount over the closed sessions only.
// SessionCount counts closed sessions as well.
func Summarize(sessions []Session) Summary {
	var sum Summary
	for _, s := range sessions {
		if s.IsOpen() {
			continue
		}
		m := s.Minutes()
		sum.TotalMinutes += m
		sum.TotalAmount += Amount(m, s.HourlyWage)
		sum.SessionCount++
	}
	return sum
}

// BreakdownByActivity groups closed sessions by the display name nameOf
// returns for their activity id. Activities sharing a name merge into one
// bucket. The result is sorted by name.
func BreakdownByActivity(sessions []Session, nameOf func(activityID string) string) []ActivityTotal {
	byName := make(map[string]*ActivityTotal)
	for _, s := range sessions {
		if s.IsOpen() {
			continue
		}
		name := nameOf(s.ActivityID)
		t, ok := byName[name]
		if !ok {
			t = &ActivityTotal{Name: name}
			byName[name] = t
		}
		m := s.Minutes()
		t.Minutes += m
		t.Amount += Amount(m, s.HourlyWage)
	}

	out := make([]ActivityTotal, 0, len(byName))
	for _, t := range byName {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SortByStartDesc orders sessions newest first, the way the history is shown.
func SortByStartDesc(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartAt.After(sessions[j].StartAt)
	})
}

// ActiveSession scans for the session without an end time.
func ActiveSession(sessions []Session) (Session, bool) {
	for _, s := range sessions {
		if s.IsOpen() {
			return s, true
		}
	}
	return Session{}, false
}
