package http

import (
	"bytes"
	"mime"
	"net/http"

	"timecard/internal/core"
	"timecard/internal/export"
)

type monthView struct {
	Month     core.MonthKey        `json:"month"`
	Paid      bool                 `json:"paid"`
	Currency  string               `json:"currency"`
	Summary   core.Summary         `json:"summary"`
	Total     string               `json:"totalFormatted"`
	Breakdown []core.ActivityTotal `json:"breakdown"`
	Sessions  []sessionView        `json:"sessions,omitempty"`
}

func (s *Server) viewMonth(report core.MonthReport, nameOf func(string) string, withSessions bool) monthView {
	v := monthView{
		Month:     report.Month,
		Paid:      report.Paid,
		Currency:  s.formatter.Currency(),
		Summary:   report.Summary,
		Total:     s.formatter.Format(report.Summary.TotalAmount),
		Breakdown: nonNil(report.Breakdown),
	}
	if withSessions {
		v.Sessions = viewSessions(report.Sessions, nameOf)
	}
	return v
}

// handleRecentMonths lists summaries of the last n months, newest first.
func (s *Server) handleRecentMonths(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 12, 120)
	reports := s.tracker.Reports.Recent(r.Context(), s.tracker.Now(), n)
	nameOf := s.tracker.Reports.NameOf(r.Context())

	out := make([]monthView, 0, len(reports))
	for _, rep := range reports {
		out = append(out, s.viewMonth(rep, nameOf, false))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	key, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report := s.tracker.Reports.Month(r.Context(), key)
	NewJSONResponse().Body(s.viewMonth(report, s.tracker.Reports.NameOf(r.Context()), true)).Write(w)
}

// handleSetMonthPaid settles or reopens a month together with its sessions.
func (s *Server) handleSetMonthPaid(w http.ResponseWriter, r *http.Request) {
	key, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req setPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.tracker.Payments.SetPaid(r.Context(), key, req.Paid); err != nil {
		writeError(w, r, err)
		return
	}
	report := s.tracker.Reports.Month(r.Context(), key)
	NewJSONResponse().Body(s.viewMonth(report, s.tracker.Reports.NameOf(r.Context()), false)).Write(w)
}

// handleExportCSV streams the month as a BOM-prefixed CSV attachment.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	key, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	labels := export.LabelsFor(s.tracker.Locale())
	report := s.tracker.Reports.Month(r.Context(), key)
	rows := export.Rows(report, s.tracker.Reports.NameOf(r.Context()), s.tracker.Location())

	var buf bytes.Buffer
	if err := export.Write(&buf, rows, labels); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.Filename(key, labels),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
