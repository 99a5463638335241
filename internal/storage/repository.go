package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"timecard/internal/core"
)

// State is the full application state as persisted.
type State struct {
	Activities    []core.Activity
	Sessions      []core.Session
	Todos         []core.Todo
	MonthlyStatus core.MonthlyStatus
}

// ChangeFunc is called after a successful Update with the keys it wrote.
type ChangeFunc func(ctx context.Context, changed []Key)

const maxConflictRetries = 3

// Repository is the single writer of the state. Updates are serialized and
// each one commits every changed document in one PutMany.
type Repository struct {
	store  DocumentStore
	seeds  []core.Activity
	logger *slog.Logger

	mu    sync.Mutex
	hooks []ChangeFunc
}

// NewRepository wraps store. seeds is the activity list used until the
// activities document has been written.
func NewRepository(store DocumentStore, seeds []core.Activity, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:  store,
		seeds:  append([]core.Activity(nil), seeds...),
		logger: logger,
	}
}

// OnChange registers fn to run after every committed Update.
func (r *Repository) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// View returns the current state. Unreadable documents are replaced by their
// defaults and logged.
func (r *Repository) View(ctx context.Context) State {
	st, _, err := r.load(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Falling back to default state", "error", err)
		return r.defaults()
	}
	return st
}

// Ready reports whether the underlying store is reachable.
func (r *Repository) Ready(ctx context.Context) error {
	if _, err := r.store.Get(ctx, KeyActivities); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Update loads the state, applies fn and saves the documents fn changed.
// When fn returns an error nothing is written.
func (r *Repository) Update(ctx context.Context, fn func(*State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		changed, err := r.updateOnce(ctx, fn)
		if err == nil {
			for _, hook := range r.hooks {
				hook(ctx, changed)
			}
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		lastErr = err
		r.logger.WarnContext(ctx, "Concurrent document change, retrying", "attempt", attempt+1, "error", err)
	}
	return lastErr
}

func (r *Repository) updateOnce(ctx context.Context, fn func(*State) error) ([]Key, error) {
	st, loaded, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	if err := fn(&st); err != nil {
		return nil, err
	}
	normalize(&st)

	encoded, err := encodeState(st)
	if err != nil {
		return nil, err
	}

	var writes []Write
	var changed []Key
	for _, key := range AllKeys {
		prev := loaded[key]
		if bytes.Equal(prev.Value, encoded[key]) {
			continue
		}
		writes = append(writes, Write{Key: key, Value: encoded[key], ExpectRevision: prev.Revision})
		changed = append(changed, key)
	}
	if len(writes) == 0 {
		return nil, nil
	}

	if err := r.store.PutMany(ctx, writes); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	r.logger.DebugContext(ctx, "State saved", "documents", len(writes))
	return changed, nil
}

// load reads every document. The returned map holds, per key, the canonical
// encoding of what was decoded and the stored revision. Unwritten documents
// compare equal to their defaults so untouched seeds are not persisted.
func (r *Repository) load(ctx context.Context) (State, map[Key]Document, error) {
	st := r.defaults()
	revisions := make(map[Key]int64, len(AllKeys))
	corrupt := make(map[Key]bool)

	for _, key := range AllKeys {
		doc, err := r.store.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return State{}, nil, fmt.Errorf("load %s: %w", key, err)
		}
		revisions[key] = doc.Revision
		if err := decodeInto(&st, key, doc.Value); err != nil {
			r.logger.WarnContext(ctx, "Discarding unreadable document", "key", string(key), "error", err)
			resetKey(&st, r, key)
			corrupt[key] = true
		}
	}
	normalize(&st)

	encoded, err := encodeState(st)
	if err != nil {
		return State{}, nil, err
	}
	loaded := make(map[Key]Document, len(AllKeys))
	for _, key := range AllKeys {
		d := Document{Value: encoded[key], Revision: revisions[key]}
		if corrupt[key] {
			// Forces the next Update to repair the stored value.
			d.Value = nil
		}
		loaded[key] = d
	}
	return st, loaded, nil
}

func (r *Repository) defaults() State {
	return State{
		Activities:    append([]core.Activity(nil), r.seeds...),
		Sessions:      []core.Session{},
		Todos:         []core.Todo{},
		MonthlyStatus: core.MonthlyStatus{},
	}
}

func decodeInto(st *State, key Key, raw []byte) error {
	switch key {
	case KeyActivities:
		var v []core.Activity
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.Activities = v
	case KeySessions:
		var v []core.Session
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.Sessions = v
	case KeyTodos:
		var v []core.Todo
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.Todos = v
	case KeyMonthlyStatus:
		var v core.MonthlyStatus
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.MonthlyStatus = v
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func resetKey(st *State, r *Repository, key Key) {
	d := r.defaults()
	switch key {
	case KeyActivities:
		st.Activities = d.Activities
	case KeySessions:
		st.Sessions = d.Sessions
	case KeyTodos:
		st.Todos = d.Todos
	case KeyMonthlyStatus:
		st.MonthlyStatus = d.MonthlyStatus
	}
}

func normalize(st *State) {
	if st.Activities == nil {
		st.Activities = []core.Activity{}
	}
	if st.Sessions == nil {
		st.Sessions = []core.Session{}
	}
	if st.Todos == nil {
		st.Todos = []core.Todo{}
	}
	if st.MonthlyStatus == nil {
		st.MonthlyStatus = core.MonthlyStatus{}
	}
}

func encodeState(st State) (map[Key][]byte, error) {
	out := make(map[Key][]byte, len(AllKeys))
	values := map[Key]any{
		KeyActivities:    st.Activities,
		KeySessions:      st.Sessions,
		KeyTodos:         st.Todos,
		KeyMonthlyStatus: st.MonthlyStatus,
	}
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = raw
	}
	return out, nil
}
