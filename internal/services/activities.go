package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"timecard/internal/core"
	"timecard/internal/log"
	"timecard/internal/storage"
)

// ActivityRegistry maintains the list of billable activities.
type ActivityRegistry struct {
	repo *storage.Repository
	opts *Options
}

// ActivityPatch holds the fields to change. Nil fields are left alone.
type ActivityPatch struct {
	Name       *string `json:"name,omitempty"`
	HourlyWage *int64  `json:"hourlyWage,omitempty"`
	Active     *bool   `json:"active,omitempty"`
	SortOrder  *int    `json:"sortOrder,omitempty"`
}

// Create appends a new active activity after the existing ones.
func (r *ActivityRegistry) Create(ctx context.Context, name string, hourlyWage int64) (core.Activity, error) {
	a := core.Activity{
		ID:         r.opts.NewID(),
		Name:       strings.TrimSpace(name),
		HourlyWage: hourlyWage,
		Active:     true,
	}
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}

	err := r.repo.Update(ctx, func(st *storage.State) error {
		a.SortOrder = len(st.Activities) + 1
		st.Activities = append(st.Activities, a)
		return nil
	})
	if err != nil {
		return core.Activity{}, fmt.Errorf("create activity: %w", err)
	}

	r.opts.Logger.InfoContext(ctx, "Activity created", log.FieldOperation, log.OpCreate, log.FieldActivityID, a.ID, "name", a.Name, "hourly_wage", a.HourlyWage)
	return a, nil
}

// Update applies patch to the activity with id. found is false when no such
// activity exists, in which case nothing is written.
func (r *ActivityRegistry) Update(ctx context.Context, id string, patch ActivityPatch) (updated core.Activity, found bool, err error) {
	err = r.repo.Update(ctx, func(st *storage.State) error {
		i := findActivity(st.Activities, id)
		if i < 0 {
			return nil
		}
		a := st.Activities[i]
		if patch.Name != nil {
			a.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.HourlyWage != nil {
			a.HourlyWage = *patch.HourlyWage
		}
		if patch.Active != nil {
			a.Active = *patch.Active
		}
		if patch.SortOrder != nil {
			a.SortOrder = *patch.SortOrder
		}
		if err := a.Validate(); err != nil {
			return err
		}
		st.Activities[i] = a
		updated, found = a, true
		return nil
	})
	if err != nil {
		return core.Activity{}, false, fmt.Errorf("update activity %s: %w", id, err)
	}
	return updated, found, nil
}

func (r *ActivityRegistry) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	_, found, err := r.Update(ctx, id, ActivityPatch{Active: &active})
	return found, err
}

// Delete removes the activity. Sessions that reference it are kept and
// report under the unknown label from then on.
func (r *ActivityRegistry) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := r.repo.Update(ctx, func(st *storage.State) error {
		i := findActivity(st.Activities, id)
		if i < 0 {
			return nil
		}
		st.Activities = append(st.Activities[:i], st.Activities[i+1:]...)
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete activity %s: %w", id, err)
	}
	if found {
		r.opts.Logger.InfoContext(ctx, "Activity deleted", log.FieldOperation, log.OpDelete, log.FieldActivityID, id)
	}
	return found, nil
}

// List returns every activity ordered by sortOrder, ties kept in insertion order.
func (r *ActivityRegistry) List(ctx context.Context) []core.Activity {
	out := r.repo.View(ctx).Activities
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// ListActive returns the activities a new session may be started for.
func (r *ActivityRegistry) ListActive(ctx context.Context) []core.Activity {
	all := r.List(ctx)
	out := all[:0]
	for _, a := range all {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}

// Resolve never fails: an unknown id yields a placeholder carrying the
// localized unknown label.
func (r *ActivityRegistry) Resolve(ctx context.Context, id string) core.Activity {
	return resolveActivity(r.repo.View(ctx).Activities, id, r.opts.Locale)
}

func resolveActivity(activities []core.Activity, id string, locale core.Locale) core.Activity {
	if i := findActivity(activities, id); i >= 0 {
		return activities[i]
	}
	return core.Activity{ID: id, Name: locale.UnknownActivity}
}

// nameResolver builds the lookup BreakdownByActivity and the CSV export use.
func nameResolver(activities []core.Activity, locale core.Locale) func(string) string {
	names := make(map[string]string, len(activities))
	for _, a := range activities {
		names[a.ID] = a.Name
	}
	return func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return locale.UnknownActivity
	}
}
