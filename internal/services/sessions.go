package services

import (
	"context"
	"fmt"
	"time"

	"timecard/internal/core"
	"timecard/internal/log"
	"timecard/internal/metrics"
	"timecard/internal/storage"
)

// SessionLedger records work sessions. At most one session is open at a time.
type SessionLedger struct {
	repo *storage.Repository
	opts *Options
}

// Active returns the open session, if any.
func (l *SessionLedger) Active(ctx context.Context) (core.Session, bool) {
	return core.ActiveSession(l.repo.View(ctx).Sessions)
}

// Start opens a session for an active activity, snapshotting its wage.
func (l *SessionLedger) Start(ctx context.Context, activityID string, now time.Time) (core.Session, error) {
	var s core.Session
	err := l.repo.Update(ctx, func(st *storage.State) error {
		if _, open := core.ActiveSession(st.Sessions); open {
			return core.ErrSessionAlreadyOpen
		}
		i := findActivity(st.Activities, activityID)
		if i < 0 {
			return core.ErrActivityNotFound
		}
		a := st.Activities[i]
		if !a.Active {
			return core.ErrActivityInactive
		}
		s = core.Session{
			ID:         l.opts.NewID(),
			ActivityID: a.ID,
			StartAt:    now,
			HourlyWage: a.HourlyWage,
		}
		st.Sessions = append(st.Sessions, s)
		return nil
	})
	if err != nil {
		return core.Session{}, fmt.Errorf("start session: %w", err)
	}

	metrics.RecordSessionStarted()
	l.opts.Logger.InfoContext(ctx, "Session started", log.FieldOperation, log.OpStart, log.FieldSessionID, s.ID, log.FieldActivityID, activityID, "hourly_wage", s.HourlyWage)
	return s, nil
}

// Stop closes the open session id at now. A now earlier than the start is
// clamped to the start. Closed or unknown ids are ignored.
func (l *SessionLedger) Stop(ctx context.Context, id string, now time.Time) (stopped core.Session, found bool, err error) {
	err = l.repo.Update(ctx, func(st *storage.State) error {
		i := findSession(st.Sessions, id)
		if i < 0 || !st.Sessions[i].IsOpen() {
			return nil
		}
		end := now
		if end.Before(st.Sessions[i].StartAt) {
			end = st.Sessions[i].StartAt
		}
		st.Sessions[i].EndAt = &end
		stopped, found = st.Sessions[i], true
		return nil
	})
	if err != nil {
		return core.Session{}, false, fmt.Errorf("stop session %s: %w", id, err)
	}
	if found {
		metrics.RecordSessionStopped(stopped.Minutes())
		l.opts.Logger.InfoContext(ctx, "Session stopped", log.FieldOperation, log.OpStop, log.FieldSessionID, id, log.FieldMinutes, stopped.Minutes(), log.FieldAmount, stopped.Amount())
	}
	return stopped, found, nil
}

// CreateManual backfills a closed session. It is not subject to the single
// open session rule.
func (l *SessionLedger) CreateManual(ctx context.Context, activityID string, startAt, endAt time.Time) (core.Session, error) {
	s := core.Session{ActivityID: activityID, StartAt: startAt, EndAt: &endAt}
	if err := s.Validate(); err != nil {
		return core.Session{}, err
	}

	err := l.repo.Update(ctx, func(st *storage.State) error {
		i := findActivity(st.Activities, activityID)
		if i < 0 {
			return core.ErrActivityNotFound
		}
		s.ID = l.opts.NewID()
		s.HourlyWage = st.Activities[i].HourlyWage
		st.Sessions = append(st.Sessions, s)
		return nil
	})
	if err != nil {
		return core.Session{}, fmt.Errorf("create manual session: %w", err)
	}

	l.opts.Logger.InfoContext(ctx, "Manual session recorded", log.FieldOperation, log.OpCreate, log.FieldSessionID, s.ID, log.FieldActivityID, activityID, log.FieldMinutes, s.Minutes())
	return s, nil
}

// CreateManualFromForm takes a YYYY-MM-DD date and two HH:MM clock times in
// the configured location.
func (l *SessionLedger) CreateManualFromForm(ctx context.Context, activityID, date, startClock, endClock string) (core.Session, error) {
	start, err := core.ClockOn(date, startClock, l.opts.Location)
	if err != nil {
		return core.Session{}, err
	}
	end, err := core.ClockOn(date, endClock, l.opts.Location)
	if err != nil {
		return core.Session{}, err
	}
	return l.CreateManual(ctx, activityID, start, end)
}

// SessionPatch holds the editable fields of a session. Nil fields are left
// alone. The start time, wage snapshot and paid flag are not editable here,
// and a closed session cannot be reopened.
type SessionPatch struct {
	ActivityID *string
	EndAt      *time.Time
}

// Update applies patch to the session with id. Setting EndAt on the open
// session closes it. found is false when no such session exists.
func (l *SessionLedger) Update(ctx context.Context, id string, patch SessionPatch) (updated core.Session, found bool, err error) {
	err = l.repo.Update(ctx, func(st *storage.State) error {
		i := findSession(st.Sessions, id)
		if i < 0 {
			return nil
		}
		next := st.Sessions[i]
		if patch.ActivityID != nil && *patch.ActivityID != next.ActivityID {
			if findActivity(st.Activities, *patch.ActivityID) < 0 {
				return core.ErrActivityNotFound
			}
			next.ActivityID = *patch.ActivityID
		}
		if patch.EndAt != nil {
			end := *patch.EndAt
			next.EndAt = &end
		}
		if err := next.Validate(); err != nil {
			return err
		}
		st.Sessions[i] = next
		updated, found = next, true
		return nil
	})
	if err != nil {
		return core.Session{}, false, fmt.Errorf("update session %s: %w", id, err)
	}
	if found {
		l.opts.Logger.InfoContext(ctx, "Session updated", log.FieldOperation, log.OpUpdate, log.FieldSessionID, id, log.FieldActivityID, updated.ActivityID, log.FieldMinutes, updated.Minutes())
	}
	return updated, found, nil
}

func (l *SessionLedger) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := l.repo.Update(ctx, func(st *storage.State) error {
		i := findSession(st.Sessions, id)
		if i < 0 {
			return nil
		}
		st.Sessions = append(st.Sessions[:i], st.Sessions[i+1:]...)
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", id, err)
	}
	if found {
		l.opts.Logger.InfoContext(ctx, "Session deleted", log.FieldOperation, log.OpDelete, log.FieldSessionID, id)
	}
	return found, nil
}

// List returns all sessions, newest start first.
func (l *SessionLedger) List(ctx context.Context) []core.Session {
	out := l.repo.View(ctx).Sessions
	core.SortByStartDesc(out)
	return out
}

// SetSessionPaid flips the paid flag of one session without touching the
// month status.
func (l *SessionLedger) SetSessionPaid(ctx context.Context, id string, paid bool) (bool, error) {
	found := false
	err := l.repo.Update(ctx, func(st *storage.State) error {
		i := findSession(st.Sessions, id)
		if i < 0 {
			return nil
		}
		st.Sessions[i].Paid = paid
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("set session %s paid: %w", id, err)
	}
	return found, nil
}
