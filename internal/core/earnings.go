package core

import "time"

// Minutes returns the whole minutes between start and end. Sub-minute
// remainders are dropped and an inverted range yields zero.
func Minutes(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Minute)
}

// Amount converts minutes at an hourly wage to whole currency units,
// rounding half away from zero: Amount(30, 1000) == 500, Amount(25, 1000) == 417.
//
// The computation stays in integers: round(m*w/60) == floor((2*m*w + 60) / 120)
// for non-negative products.
func Amount(minutes, hourlyWage int64) int64 {
	p := minutes * hourlyWage
	if p < 0 {
		return -((-2*p + 60) / 120)
	}
	return (2*p + 60) / 120
}

// Elapsed is the running duration of an open session as seen at now.
// It is display only and never feeds totals.
func Elapsed(s Session, now time.Time) time.Duration {
	end := now
	if s.EndAt != nil {
		end = *s.EndAt
	}
	d := end.Sub(s.StartAt)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}
