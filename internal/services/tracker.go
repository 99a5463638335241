// Package services implements the ledger operations on top of the state
// repository. Every mutation is one storage.Repository.Update, so multi-key
// changes such as settling a month commit together.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"timecard/internal/amqp"
	"timecard/internal/cache"
	"timecard/internal/core"
	"timecard/internal/metrics"
	"timecard/internal/storage"
)

// Publisher sends settlement events. *amqp.Client satisfies it.
type Publisher interface {
	PublishMonthSettled(ctx context.Context, msg *amqp.MonthSettledMessage) error
}

type Options struct {
	// Location decides which month a session belongs to. Nil means time.Local.
	Location *time.Location
	Locale   core.Locale
	Currency string

	// ReportCache defaults to a 24 entry LRU with a five minute TTL.
	ReportCache cache.Cache[core.MonthReport]
	Publisher   Publisher
	Logger      *slog.Logger

	Now   func() time.Time
	NewID func() string
}

func (o *Options) setDefaults() {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Locale.Tag.IsRoot() {
		o.Locale = core.English
	}
	if o.Currency == "" {
		o.Currency = "JPY"
	}
	if o.ReportCache == nil {
		o.ReportCache = cache.NewLRU[core.MonthReport](24, 5*time.Minute, cache.WithObserver(metrics.RecordCacheLookup))
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
}

// Tracker bundles the services that share one repository.
type Tracker struct {
	Activities *ActivityRegistry
	Sessions   *SessionLedger
	Payments   *PaymentTracker
	Reports    *Reports
	Todos      *TodoList

	repo *storage.Repository
	opts Options
}

func New(repo *storage.Repository, opts Options) *Tracker {
	opts.setDefaults()
	t := &Tracker{repo: repo, opts: opts}
	o := &t.opts

	t.Reports = &Reports{repo: repo, opts: o}
	t.Activities = &ActivityRegistry{repo: repo, opts: o}
	t.Sessions = &SessionLedger{repo: repo, opts: o}
	t.Todos = &TodoList{repo: repo, opts: o}
	t.Payments = &PaymentTracker{repo: repo, reports: t.Reports, ledger: t.Sessions, opts: o}

	repo.OnChange(func(context.Context, []storage.Key) {
		t.Reports.Invalidate()
	})
	return t
}

// Ready reports whether the backing store answers.
func (t *Tracker) Ready(ctx context.Context) error {
	return t.repo.Ready(ctx)
}

func (t *Tracker) Locale() core.Locale     { return t.opts.Locale }
func (t *Tracker) Location() *time.Location { return t.opts.Location }
func (t *Tracker) Currency() string         { return t.opts.Currency }
func (t *Tracker) Now() time.Time           { return t.opts.Now() }

// findSession returns the index of id in sessions, or -1.
func findSession(sessions []core.Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func findActivity(activities []core.Activity, id string) int {
	for i := range activities {
		if activities[i].ID == id {
			return i
		}
	}
	return -1
}
