// Package export renders a month of sessions as a spreadsheet-friendly CSV.
package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"timecard/internal/core"
)

const (
	bom         = "\ufeff"
	dateLayout  = "2006/01/02"
	clockLayout = "15:04"
	openEnd     = "-"
)

var ErrBadHeader = errors.New("unexpected csv header")

// Labels are the user-visible strings of an export.
type Labels struct {
	Header         []string
	Paid           string
	Unpaid         string
	FilenamePrefix string
}

var (
	English = Labels{
		Header:         []string{"date", "activity", "start", "end", "duration(min)", "hourly wage", "amount", "payment status"},
		Paid:           "paid",
		Unpaid:         "unpaid",
		FilenamePrefix: "timecard_",
	}
	Japanese = Labels{
		Header:         []string{"日付", "作業内容", "開始", "終了", "時間(分)", "時給", "金額(円)", "支払状態"},
		Paid:           "済",
		Unpaid:         "未",
		FilenamePrefix: "勤怠集計_",
	}
)

func LabelsFor(l core.Locale) Labels {
	if base, _ := l.Tag.Base(); base == language.MustParseBase("ja") {
		return Japanese
	}
	return English
}

// Row is one session as exported. Open sessions have an empty End and zero
// minutes and amount.
type Row struct {
	Date       string
	Activity   string
	Start      string
	End        string
	Minutes    int64
	HourlyWage int64
	Amount     int64
	Paid       bool
}

// Rows converts the sessions of report in their report order.
func Rows(report core.MonthReport, nameOf func(activityID string) string, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	out := make([]Row, 0, len(report.Sessions))
	for _, s := range report.Sessions {
		start := s.StartAt.In(loc)
		row := Row{
			Date:       start.Format(dateLayout),
			Activity:   nameOf(s.ActivityID),
			Start:      start.Format(clockLayout),
			HourlyWage: s.HourlyWage,
			Paid:       s.Paid,
		}
		if s.EndAt != nil {
			row.End = s.EndAt.In(loc).Format(clockLayout)
			row.Minutes = s.Minutes()
			row.Amount = s.Amount()
		}
		out = append(out, row)
	}
	return out
}

// Filename is the suggested download name for the month.
func Filename(key core.MonthKey, labels Labels) string {
	return labels.FilenamePrefix + string(key) + ".csv"
}

// Write emits a BOM, the header and one record per row.
func Write(w io.Writer, rows []Row, labels Labels) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(labels.Header); err != nil {
		return err
	}
	for _, r := range rows {
		end := r.End
		if end == "" {
			end = openEnd
		}
		status := labels.Unpaid
		if r.Paid {
			status = labels.Paid
		}
		record := []string{
			r.Date,
			r.Activity,
			r.Start,
			end,
			strconv.FormatInt(r.Minutes, 10),
			strconv.FormatInt(r.HourlyWage, 10),
			strconv.FormatInt(r.Amount, 10),
			status,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// Parse reads back a file produced by Write with the same labels.
func Parse(r io.Reader, labels Labels) ([]Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, []byte(bom)) {
		br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(labels.Header)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		if header[i] != labels.Header[i] {
			return nil, fmt.Errorf("%w: column %d is %q", ErrBadHeader, i+1, header[i])
		}
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRecord(rec, labels)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string, labels Labels) (Row, error) {
	row := Row{Date: rec[0], Activity: rec[1], Start: rec[2], End: rec[3]}
	if row.End == openEnd {
		row.End = ""
	}

	var err error
	if row.Minutes, err = strconv.ParseInt(rec[4], 10, 64); err != nil {
		return Row{}, fmt.Errorf("duration: %w", err)
	}
	if row.HourlyWage, err = core.ParseWage(rec[5]); err != nil {
		return Row{}, fmt.Errorf("hourly wage: %w", err)
	}
	if row.Amount, err = core.ParseAmount(rec[6]); err != nil {
		return Row{}, fmt.Errorf("amount: %w", err)
	}

	switch rec[7] {
	case labels.Paid:
		row.Paid = true
	case labels.Unpaid:
	default:
		return Row{}, fmt.Errorf("unknown payment status %q", rec[7])
	}
	return row, nil
}
