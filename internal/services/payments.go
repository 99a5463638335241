package services

import (
	"context"
	"fmt"

	"timecard/internal/amqp"
	"timecard/internal/core"
	"timecard/internal/log"
	"timecard/internal/metrics"
	"timecard/internal/storage"
)

// PaymentTracker records which months have been paid out.
type PaymentTracker struct {
	repo    *storage.Repository
	reports *Reports
	ledger  *SessionLedger
	opts    *Options
}

// IsPaid defaults to false for months never settled.
func (p *PaymentTracker) IsPaid(ctx context.Context, key core.MonthKey) bool {
	return p.repo.View(ctx).MonthlyStatus[key]
}

// SetPaid sets the month flag and the paid flag of every session started in
// that month, open ones included, in one update. Repeating a call is a no-op.
// A settlement event is published when a month becomes paid.
func (p *PaymentTracker) SetPaid(ctx context.Context, key core.MonthKey, paid bool) error {
	changed := false
	err := p.repo.Update(ctx, func(st *storage.State) error {
		if cur, ok := st.MonthlyStatus[key]; !ok || cur != paid {
			st.MonthlyStatus[key] = paid
			changed = true
		}
		for i := range st.Sessions {
			if st.Sessions[i].MonthKey(p.opts.Location) != key || st.Sessions[i].Paid == paid {
				continue
			}
			st.Sessions[i].Paid = paid
			changed = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set month %s paid: %w", key, err)
	}
	if !changed {
		return nil
	}

	metrics.RecordMonthSettled(paid)
	p.opts.Logger.InfoContext(ctx, "Month payment status changed", log.FieldOperation, log.OpSettle, log.FieldMonth, key, log.FieldPaid, paid)

	if paid {
		p.publish(ctx, key)
	}
	return nil
}

// SetSessionPaid is the per-session toggle; the month flag is left as is.
func (p *PaymentTracker) SetSessionPaid(ctx context.Context, id string, paid bool) (bool, error) {
	return p.ledger.SetSessionPaid(ctx, id, paid)
}

// publish is best effort: the local state is already committed.
func (p *PaymentTracker) publish(ctx context.Context, key core.MonthKey) {
	if p.opts.Publisher == nil {
		p.opts.Logger.DebugContext(ctx, "No publisher configured, skipping settlement event", log.FieldMonth, key)
		return
	}
	msg := amqp.NewMonthSettledMessage(p.reports.Month(ctx, key), p.opts.Currency, p.reports.NameOf(ctx))
	if err := p.opts.Publisher.PublishMonthSettled(ctx, msg); err != nil {
		p.opts.Logger.ErrorContext(ctx, "Failed to publish settlement event", log.FieldMonth, key, log.FieldError, err)
	}
}
