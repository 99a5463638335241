// Package worker exports settled months to the configured sheet backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"timecard/internal/amqp"
	"timecard/internal/core"
	"timecard/internal/export"
	"timecard/internal/log"
	"timecard/internal/metrics"
	"timecard/internal/sheets"
)

// ReportSource rebuilds month reports from the ledger. *services.Reports
// satisfies it.
type ReportSource interface {
	Month(ctx context.Context, key core.MonthKey) core.MonthReport
	NameOf(ctx context.Context) func(activityID string) string
}

type Config struct {
	Location *time.Location
	Locale   core.Locale
	Currency string
}

// SettlementWorker turns settlement messages into month sheets.
type SettlementWorker struct {
	reports ReportSource
	writer  sheets.MonthReportWriter
	cfg     Config
}

func NewSettlementWorker(reports ReportSource, writer sheets.MonthReportWriter, cfg Config) *SettlementWorker {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Locale.Tag.IsRoot() {
		cfg.Locale = core.English
	}
	return &SettlementWorker{reports: reports, writer: writer, cfg: cfg}
}

// HandleMonthSettled writes the month named by msg. The ledger is the source
// of truth when available; the report embedded in the message is used
// otherwise.
func (w *SettlementWorker) HandleMonthSettled(ctx context.Context, msg *amqp.MonthSettledMessage) error {
	slog.InfoContext(ctx, "Processing settlement message", log.FieldMonth, msg.Month, log.FieldPaid, msg.Paid)

	var report core.MonthReport
	switch {
	case w.reports != nil:
		report = w.reports.Month(ctx, msg.Month)
	case msg.Report != nil:
		report = *msg.Report
	default:
		err := errors.New("message carries no report and no ledger is configured")
		metrics.RecordSettlementExport(time.Time{}, err)
		return err
	}

	currency := msg.Currency
	if currency == "" {
		currency = w.cfg.Currency
	}
	err := w.export(ctx, report, currency, msg.ActivityNames)
	metrics.RecordSettlementExport(time.Now(), err)
	return err
}

// ExportPaidMonths writes every paid month among the n most recent. Run at
// startup to catch settlements published while the worker was down.
func (w *SettlementWorker) ExportPaidMonths(ctx context.Context, now time.Time, n int) (int, error) {
	if w.reports == nil {
		return 0, nil
	}
	exported := 0
	for _, key := range core.RecentMonths(now, n, w.cfg.Location) {
		report := w.reports.Month(ctx, key)
		if !report.Paid {
			continue
		}
		if err := w.export(ctx, report, w.cfg.Currency, nil); err != nil {
			return exported, err
		}
		exported++
	}
	if exported > 0 {
		slog.InfoContext(ctx, "Startup export complete", "months", exported)
	}
	return exported, nil
}

func (w *SettlementWorker) export(ctx context.Context, report core.MonthReport, currency string, names map[string]string) error {
	nameOf := w.nameOf(ctx, names)
	sheet := sheets.MonthSheet{
		Month:     report.Month,
		Paid:      report.Paid,
		Currency:  currency,
		Summary:   report.Summary,
		Breakdown: report.Breakdown,
		Rows:      export.Rows(report, nameOf, w.cfg.Location),
		Labels:    export.LabelsFor(w.cfg.Locale),
	}

	ref, err := w.writer.WriteMonth(ctx, sheet)
	if err != nil {
		return fmt.Errorf("write month %s: %w", report.Month, err)
	}
	slog.InfoContext(ctx, "Month exported", log.FieldOperation, log.OpExport, log.FieldMonth, report.Month, log.FieldSheetsRef, ref)
	return nil
}

// nameOf prefers live activity names; names carried by a message are the
// fallback when no ledger is configured.
func (w *SettlementWorker) nameOf(ctx context.Context, names map[string]string) func(string) string {
	if w.reports != nil {
		return w.reports.NameOf(ctx)
	}
	unknown := w.cfg.Locale.UnknownActivity
	return func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return unknown
	}
}
