package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"timecard/internal/core"
	"timecard/internal/storage"
)

// TodoList is a plain dated to-do list kept next to the ledger.
type TodoList struct {
	repo *storage.Repository
	opts *Options
}

// TodoGroup holds the todos of one date.
type TodoGroup struct {
	Date  string      `json:"date"`
	Todos []core.Todo `json:"todos"`
}

func (l *TodoList) Add(ctx context.Context, date, title, notes string) (core.Todo, error) {
	t := core.Todo{
		ID:    l.opts.NewID(),
		Date:  strings.TrimSpace(date),
		Title: strings.TrimSpace(title),
		Notes: strings.TrimSpace(notes),
	}
	if err := t.Validate(); err != nil {
		return core.Todo{}, err
	}

	err := l.repo.Update(ctx, func(st *storage.State) error {
		st.Todos = append(st.Todos, t)
		return nil
	})
	if err != nil {
		return core.Todo{}, fmt.Errorf("add todo: %w", err)
	}
	return t, nil
}

// Toggle flips completion. found is false for unknown ids.
func (l *TodoList) Toggle(ctx context.Context, id string) (toggled core.Todo, found bool, err error) {
	err = l.repo.Update(ctx, func(st *storage.State) error {
		for i := range st.Todos {
			if st.Todos[i].ID == id {
				st.Todos[i].Completed = !st.Todos[i].Completed
				toggled, found = st.Todos[i], true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return core.Todo{}, false, fmt.Errorf("toggle todo %s: %w", id, err)
	}
	return toggled, found, nil
}

func (l *TodoList) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := l.repo.Update(ctx, func(st *storage.State) error {
		for i := range st.Todos {
			if st.Todos[i].ID == id {
				st.Todos = append(st.Todos[:i], st.Todos[i+1:]...)
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete todo %s: %w", id, err)
	}
	return found, nil
}

// Grouped returns todos by date, dates ascending, open items before
// completed ones within a date.
func (l *TodoList) Grouped(ctx context.Context) []TodoGroup {
	byDate := make(map[string][]core.Todo)
	for _, t := range l.repo.View(ctx).Todos {
		byDate[t.Date] = append(byDate[t.Date], t)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]TodoGroup, 0, len(dates))
	for _, d := range dates {
		todos := byDate[d]
		sort.SliceStable(todos, func(i, j int) bool { return !todos[i].Completed && todos[j].Completed })
		out = append(out, TodoGroup{Date: d, Todos: todos})
	}
	return out
}
