package http

import (
	"net/http"
	"time"

	"timecard/internal/core"
	"timecard/internal/log"
	"timecard/internal/services"
)

// sessionView adds the derived fields a client would otherwise recompute.
type sessionView struct {
	core.Session
	ActivityName string `json:"activityName"`
	Minutes      int64  `json:"minutes"`
	Amount       int64  `json:"amount"`

	// ElapsedSeconds is only meaningful for the running session.
	ElapsedSeconds int64 `json:"elapsedSeconds"`
}

func viewSession(s core.Session, nameOf func(string) string) sessionView {
	return sessionView{Session: s, ActivityName: nameOf(s.ActivityID), Minutes: s.Minutes(), Amount: s.Amount()}
}

func viewSessions(sessions []core.Session, nameOf func(string) string) []sessionView {
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, viewSession(s, nameOf))
	}
	return out
}

type startSessionRequest struct {
	ActivityID string `json:"taskId"`
}

// manualSessionRequest takes either RFC 3339 instants or a date with two
// clock times in the ledger's zone.
type manualSessionRequest struct {
	ActivityID string `json:"taskId"`
	StartAt    string `json:"startAt,omitempty"`
	EndAt      string `json:"endAt,omitempty"`
	Date       string `json:"date,omitempty"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
}

// updateSessionRequest edits activity and end time. Payment flags are set
// through the paid endpoints only.
type updateSessionRequest struct {
	ActivityID *string `json:"taskId,omitempty"`
	EndAt      *string `json:"endAt,omitempty"`
}

type setPaidRequest struct {
	Paid bool `json:"paid"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.tracker.Sessions.List(r.Context())
	if m := r.URL.Query().Get("month"); m != "" {
		key, err := core.ParseMonthKey(m)
		if err != nil {
			writeError(w, r, err)
			return
		}
		sessions = core.SessionsInMonth(sessions, key, s.tracker.Location())
	}
	NewJSONResponse().Body(viewSessions(sessions, s.tracker.Reports.NameOf(r.Context()))).Write(w)
}

// handleActiveSession answers 204 when nothing is running.
func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	active, ok := s.tracker.Sessions.Active(r.Context())
	if !ok {
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	now := s.tracker.Now()
	view := viewSession(active, s.tracker.Reports.NameOf(r.Context()))
	view.ElapsedSeconds = int64(core.Elapsed(active, now) / time.Second)
	view.Minutes = core.Minutes(active.StartAt, now)
	view.Amount = core.Amount(view.Minutes, active.HourlyWage)
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	started, err := s.tracker.Sessions.Start(r.Context(), req.ActivityID, s.tracker.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(viewSession(started, s.tracker.Reports.NameOf(r.Context()))).Write(w)
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	stopped, found, err := s.tracker.Sessions.Stop(r.Context(), r.PathValue("id"), s.tracker.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrSessionNotFound)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogSession(r.Context(), log.OpStop, stopped.ID, stopped.ActivityID, stopped.Minutes(), stopped.Amount())
	NewJSONResponse().Body(viewSession(stopped, s.tracker.Reports.NameOf(r.Context()))).Write(w)
}

func (s *Server) handleCreateManualSession(w http.ResponseWriter, r *http.Request) {
	var req manualSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		created core.Session
		err     error
	)
	if req.Date != "" {
		created, err = s.tracker.Sessions.CreateManualFromForm(r.Context(), req.ActivityID, req.Date, req.Start, req.End)
	} else {
		var start, end time.Time
		if start, err = parseInstant("startAt", req.StartAt); err == nil {
			if end, err = parseInstant("endAt", req.EndAt); err == nil {
				created, err = s.tracker.Sessions.CreateManual(r.Context(), req.ActivityID, start, end)
			}
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(viewSession(created, s.tracker.Reports.NameOf(r.Context()))).Write(w)
}

// handleUpdateSession patches activity and end time. Start time and wage
// snapshot are immutable, and a closed session stays closed.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := services.SessionPatch{ActivityID: req.ActivityID}
	if req.EndAt != nil {
		end, err := parseInstant("endAt", *req.EndAt)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.EndAt = &end
	}

	updated, found, err := s.tracker.Sessions.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrSessionNotFound)
		return
	}
	NewJSONResponse().Body(viewSession(updated, s.tracker.Reports.NameOf(r.Context()))).Write(w)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	found, err := s.tracker.Sessions.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrSessionNotFound)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleSetSessionPaid toggles one session; the month flag is unchanged.
func (s *Server) handleSetSessionPaid(w http.ResponseWriter, r *http.Request) {
	var req setPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	found, err := s.tracker.Payments.SetSessionPaid(r.Context(), r.PathValue("id"), req.Paid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrSessionNotFound)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
