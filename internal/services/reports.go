package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"timecard/internal/core"
	"timecard/internal/storage"
)

// Reports computes month reports and caches them until the next mutation.
type Reports struct {
	repo *storage.Repository
	opts *Options

	// gen counts invalidations. A report built from a snapshot older than
	// the latest invalidation is returned but never cached.
	mu  sync.Mutex
	gen uint64
}

// Month returns the report for key. Sessions are listed oldest first.
func (r *Reports) Month(ctx context.Context, key core.MonthKey) core.MonthReport {
	if cached, ok := r.opts.ReportCache.Get(string(key)); ok {
		return cloneReport(cached)
	}

	gen := r.generation()
	report := BuildReport(r.repo.View(ctx), key, r.opts.Location, r.opts.Locale)

	r.mu.Lock()
	if r.gen == gen {
		r.opts.ReportCache.Set(string(key), report)
	}
	r.mu.Unlock()
	return cloneReport(report)
}

func (r *Reports) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Recent returns the reports of the n months up to and including now's, newest first.
func (r *Reports) Recent(ctx context.Context, now time.Time, n int) []core.MonthReport {
	keys := core.RecentMonths(now, n, r.opts.Location)
	out := make([]core.MonthReport, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.Month(ctx, k))
	}
	return out
}

// NameOf resolves activity display names against the current state.
func (r *Reports) NameOf(ctx context.Context) func(string) string {
	return nameResolver(r.repo.View(ctx).Activities, r.opts.Locale)
}

// Invalidate drops every cached report.
func (r *Reports) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.opts.ReportCache.Purge()
}

// BuildReport derives the report for key from a state snapshot.
func BuildReport(st storage.State, key core.MonthKey, loc *time.Location, locale core.Locale) core.MonthReport {
	sessions := core.SessionsInMonth(st.Sessions, key, loc)
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].StartAt.Before(sessions[j].StartAt) })

	return core.MonthReport{
		Month:     key,
		Paid:      st.MonthlyStatus[key],
		Summary:   core.Summarize(sessions),
		Breakdown: core.BreakdownByActivity(sessions, nameResolver(st.Activities, locale)),
		Sessions:  sessions,
	}
}

func cloneReport(r core.MonthReport) core.MonthReport {
	r.Breakdown = append([]core.ActivityTotal(nil), r.Breakdown...)
	r.Sessions = append([]core.Session(nil), r.Sessions...)
	return r
}
