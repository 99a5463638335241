// Package sheets defines where settled month reports are exported to.
package sheets

import (
	"context"
	"fmt"
	"strconv"

	"timecard/internal/core"
	"timecard/internal/export"
)

// MonthSheet is a month report with activity names resolved, ready to be
// laid out as a spreadsheet tab.
type MonthSheet struct {
	Month     core.MonthKey
	Paid      bool
	Currency  string
	Summary   core.Summary
	Breakdown []core.ActivityTotal
	Rows      []export.Row
	Labels    export.Labels
}

// Ports for outbound adapters.
type (
	MonthReportWriter interface {
		// WriteMonth replaces whatever was exported for the month before.
		WriteMonth(ctx context.Context, sheet MonthSheet) (ref string, err error)
	}
)

// Values lays the sheet out as rows: the CSV header and session rows, a
// blank line, totals, then the per-activity breakdown.
func (s MonthSheet) Values() [][]any {
	out := make([][]any, 0, len(s.Rows)+len(s.Breakdown)+6)

	header := make([]any, len(s.Labels.Header))
	for i, h := range s.Labels.Header {
		header[i] = h
	}
	out = append(out, header)

	for _, r := range s.Rows {
		end := r.End
		if end == "" {
			end = "-"
		}
		status := s.Labels.Unpaid
		if r.Paid {
			status = s.Labels.Paid
		}
		out = append(out, []any{r.Date, r.Activity, r.Start, end, r.Minutes, r.HourlyWage, r.Amount, status})
	}

	status := s.Labels.Unpaid
	if s.Paid {
		status = s.Labels.Paid
	}
	out = append(out,
		[]any{},
		[]any{string(s.Month), s.Currency, status},
		[]any{s.Labels.Header[4], s.Summary.TotalMinutes},
		[]any{s.Labels.Header[6], s.Summary.TotalAmount},
	)
	for _, b := range s.Breakdown {
		out = append(out, []any{b.Name, b.Minutes, b.Amount})
	}
	return out
}

// Strings renders Values as text, the way a reader of the sheet sees it.
func (s MonthSheet) Strings() [][]string {
	vals := s.Values()
	out := make([][]string, len(vals))
	for i, row := range vals {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case int64:
				out[i][j] = strconv.FormatInt(x, 10)
			default:
				out[i][j] = fmt.Sprint(x)
			}
		}
	}
	return out
}
