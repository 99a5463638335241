package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Activity is a named, wage-bearing category of work a session is logged against.
	Activity struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		HourlyWage int64  `json:"hourlyWage"`
		Active     bool   `json:"active"`
		SortOrder  int    `json:"sortOrder"`
	}

	// Session is one timed work interval. A nil EndAt means the session is still open.
	Session struct {
		ID         string     `json:"id"`
		ActivityID string     `json:"taskId"`
		StartAt    time.Time  `json:"startAt"`
		EndAt      *time.Time `json:"endAt,omitempty"`
		HourlyWage int64      `json:"hourlyWage"` // wage snapshot taken when the session was created
		Paid       bool       `json:"paid"`
	}

	// Todo is a dated to-do entry. Date is a calendar day in YYYY-MM-DD form.
	Todo struct {
		ID        string `json:"id"`
		Date      string `json:"date"`
		Title     string `json:"title"`
		Notes     string `json:"notes"`
		Completed bool   `json:"completed"`
	}

	// MonthlyStatus records which months have been settled.
	MonthlyStatus map[MonthKey]bool
)

const DateLayout = "2006-01-02"

var (
	ErrEmptyName          = errors.New("empty activity name")
	ErrInvalidWage        = errors.New("hourly wage must be positive")
	ErrInvalidRange       = errors.New("end time must not be before start time")
	ErrMissingStart       = errors.New("start time cannot be zero")
	ErrSessionAlreadyOpen = errors.New("another session is already running")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrActivityInactive   = errors.New("activity is inactive")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTodoNotFound       = errors.New("todo not found")
	ErrEmptyTitle         = errors.New("empty todo title")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidClock       = errors.New("invalid clock time")
)

func (a Activity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("activity name too long (max 100 characters)")
	}
	if a.HourlyWage <= 0 {
		return ErrInvalidWage
	}
	return nil
}

// IsOpen reports whether the session is still running.
func (s Session) IsOpen() bool {
	return s.EndAt == nil
}

// Validate checks the time range. Open sessions only need a start.
func (s Session) Validate() error {
	if s.StartAt.IsZero() {
		return ErrMissingStart
	}
	if s.EndAt != nil && s.EndAt.Before(s.StartAt) {
		return ErrInvalidRange
	}
	if s.HourlyWage < 0 {
		return ErrInvalidWage
	}
	return nil
}

// Minutes returns the whole minutes worked. Open sessions report zero.
func (s Session) Minutes() int64 {
	if s.EndAt == nil {
		return 0
	}
	return Minutes(s.StartAt, *s.EndAt)
}

// Amount returns the earnings of a closed session. Open sessions report zero.
func (s Session) Amount() int64 {
	return Amount(s.Minutes(), s.HourlyWage)
}

// MonthKey returns the month the session is attributed to, which is always its start month.
func (s Session) MonthKey(loc *time.Location) MonthKey {
	return MonthKeyOf(s.StartAt, loc)
}

func (t Todo) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}
