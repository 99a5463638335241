package core

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

const monthLayout = "2006-01"

// MonthKeyOf truncates t to its year and month in loc.
func MonthKeyOf(t time.Time, loc *time.Location) MonthKey {
	if loc == nil {
		loc = time.Local
	}
	return MonthKey(t.In(loc).Format(monthLayout))
}

// ParseMonthKey validates s as a YYYY-MM month.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKey(t.Format(monthLayout)), nil
}

func (k MonthKey) String() string {
	return string(k)
}

// Range returns the first instant of the month and the first instant of the next one in loc.
func (k MonthKey) Range(loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(monthLayout, string(k), loc)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	return t, t.AddDate(0, 1, 0)
}

// Prev returns the previous calendar month.
func (k MonthKey) Prev() MonthKey {
	start, _ := k.Range(time.UTC)
	return MonthKeyOf(start.AddDate(0, -1, 0), time.UTC)
}

// RecentMonths lists the n months ending with the month of now, newest first.
func RecentMonths(now time.Time, n int, loc *time.Location) []MonthKey {
	if n <= 0 {
		return nil
	}
	out := make([]MonthKey, 0, n)
	k := MonthKeyOf(now, loc)
	for i := 0; i < n; i++ {
		out = append(out, k)
		k = k.Prev()
	}
	return out
}

// ClockOn combines a YYYY-MM-DD date and an "HH:MM" clock time in loc.
func ClockOn(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
}
