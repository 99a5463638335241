package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timecard/internal/core"
	"timecard/internal/storage"
	"timecard/internal/storage/memory"
)

func newRepo(t *testing.T) (*storage.Repository, *memory.Store) {
	t.Helper()
	store := memory.New()
	return storage.NewRepository(store, core.English.Seeds(), nil), store
}

func TestViewReturnsSeedsWhenEmpty(t *testing.T) {
	repo, _ := newRepo(t)
	st := repo.View(context.Background())

	require.Len(t, st.Activities, 3)
	assert.Equal(t, "1", st.Activities[0].ID)
	assert.Empty(t, st.Sessions)
	assert.Empty(t, st.Todos)
	assert.NotNil(t, st.MonthlyStatus)
}

func TestCorruptDocumentFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	store.Set(storage.KeySessions, []byte(`{not json`))
	store.Set(storage.KeyMonthlyStatus, []byte(`{"2024-03":true}`))

	st := repo.View(ctx)
	assert.Empty(t, st.Sessions)
	assert.True(t, st.MonthlyStatus["2024-03"])

	// Any update repairs the corrupt document.
	require.NoError(t, repo.Update(ctx, func(*storage.State) error { return nil }))
	doc, err := store.Get(ctx, storage.KeySessions)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(doc.Value))
}

func TestUpdateWritesOnlyChangedDocuments(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	var seen [][]storage.Key
	repo.OnChange(func(_ context.Context, changed []storage.Key) {
		seen = append(seen, changed)
	})

	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, func(st *storage.State) error {
		st.Sessions = append(st.Sessions, core.Session{ID: "s1", ActivityID: "1", StartAt: start, HourlyWage: 1000})
		return nil
	}))

	require.Len(t, seen, 1)
	assert.Equal(t, []storage.Key{storage.KeySessions}, seen[0])

	_, err := store.Get(ctx, storage.KeyActivities)
	assert.ErrorIs(t, err, storage.ErrNotFound, "untouched seeds are not persisted")

	st := repo.View(ctx)
	require.Len(t, st.Sessions, 1)
	assert.True(t, st.Sessions[0].StartAt.Equal(start))
	assert.True(t, st.Sessions[0].IsOpen())
}

func TestUpdateCommitsMultipleDocumentsTogether(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	end := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, func(st *storage.State) error {
		st.Sessions = append(st.Sessions, core.Session{
			ID: "s1", ActivityID: "1", StartAt: end.Add(-time.Hour), EndAt: &end, HourlyWage: 1000,
		})
		return nil
	}))
	require.NoError(t, repo.Update(ctx, func(st *storage.State) error {
		st.MonthlyStatus["2024-03"] = true
		st.Sessions[0].Paid = true
		return nil
	}))

	sessions, err := store.Get(ctx, storage.KeySessions)
	require.NoError(t, err)
	status, err := store.Get(ctx, storage.KeyMonthlyStatus)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sessions.Revision)
	assert.Equal(t, int64(1), status.Revision)
	assert.Contains(t, string(sessions.Value), `"paid":true`)
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	boom := errors.New("boom")

	err := repo.Update(ctx, func(st *storage.State) error {
		st.Todos = append(st.Todos, core.Todo{ID: "t", Title: "x", Date: "2024-03-01"})
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, storage.KeyTodos)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

type failingStore struct {
	storage.DocumentStore
}

func (failingStore) Get(context.Context, storage.Key) (storage.Document, error) {
	return storage.Document{}, errors.New("disk on fire")
}

func TestReadFailures(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewRepository(failingStore{}, core.English.Seeds(), nil)

	st := repo.View(ctx)
	assert.Len(t, st.Activities, 3, "view degrades to defaults")

	err := repo.Update(ctx, func(*storage.State) error { return nil })
	require.Error(t, err, "update must not overwrite what it could not read")
	require.Error(t, repo.Ready(ctx))
}

func TestNewFromFilesPreloadsDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"),
		[]byte(`[{"id":"9","name":"gardening","hourlyWage":1300,"active":true,"sortOrder":1}]`), 0o644))

	repo := storage.NewRepository(memory.NewFromFiles(dir), core.English.Seeds(), nil)
	st := repo.View(context.Background())
	require.Len(t, st.Activities, 1)
	assert.Equal(t, "gardening", st.Activities[0].Name)
	assert.Equal(t, int64(1300), st.Activities[0].HourlyWage)
}
