package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "timecard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.Get(context.Background(), KeySessions)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreRevisions(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.PutMany(ctx, []Write{{Key: KeyTodos, Value: []byte(`[]`)}}))
	doc, err := s.Get(ctx, KeyTodos)
	require.NoError(t, err)
	require.Equal(t, int64(1), doc.Revision)
	require.Equal(t, `[]`, string(doc.Value))

	// Inserting again at revision 0 must conflict.
	err = s.PutMany(ctx, []Write{{Key: KeyTodos, Value: []byte(`[1]`)}})
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, s.PutMany(ctx, []Write{{Key: KeyTodos, Value: []byte(`[2]`), ExpectRevision: 1}}))
	doc, err = s.Get(ctx, KeyTodos)
	require.NoError(t, err)
	require.Equal(t, int64(2), doc.Revision)
	require.Equal(t, `[2]`, string(doc.Value))

	hist, err := s.History(ctx, KeyTodos, 5)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, `[]`, string(hist[0].Value))
	require.Equal(t, int64(1), hist[0].Revision)
}

func TestSQLiteStorePutManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.PutMany(ctx, []Write{{Key: KeySessions, Value: []byte(`[]`)}}))

	err := s.PutMany(ctx, []Write{
		{Key: KeyMonthlyStatus, Value: []byte(`{"2024-03":true}`)},
		{Key: KeySessions, Value: []byte(`[{}]`), ExpectRevision: 7},
	})
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.Get(ctx, KeyMonthlyStatus)
	require.ErrorIs(t, err, ErrNotFound, "first write must be rolled back")
}

func TestSQLiteStoreReopenRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timecard.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.PutMany(context.Background(), []Write{{Key: KeyActivities, Value: []byte(`[]`)}}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	doc, err := s.Get(context.Background(), KeyActivities)
	require.NoError(t, err)
	require.Equal(t, int64(1), doc.Revision)
}

func TestSQLiteStoreHistoryIsBounded(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.PutMany(ctx, []Write{{Key: KeySessions, Value: []byte(`[0]`)}}))
	const writes = HistoryDepth + 30
	for rev := int64(1); rev <= writes; rev++ {
		value := []byte(fmt.Sprintf("[%d]", rev))
		require.NoError(t, s.PutMany(ctx, []Write{{Key: KeySessions, Value: value, ExpectRevision: rev}}))
	}

	var rows int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_history WHERE key = ?`, string(KeySessions)).Scan(&rows))
	require.Equal(t, HistoryDepth, rows)

	hist, err := s.History(ctx, KeySessions, 100)
	require.NoError(t, err)
	require.Len(t, hist, HistoryDepth)
	require.Equal(t, int64(writes), hist[0].Revision, "newest archived revision first")
	require.Equal(t, int64(writes-HistoryDepth+1), hist[len(hist)-1].Revision)
}

func TestSQLiteStoreRestore(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.PutMany(ctx, []Write{{Key: KeyTodos, Value: []byte(`["a"]`)}}))
	require.NoError(t, s.PutMany(ctx, []Write{{Key: KeyTodos, Value: []byte(`[]`), ExpectRevision: 1}}))

	doc, err := s.Restore(ctx, KeyTodos, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), doc.Revision)

	got, err := s.Get(ctx, KeyTodos)
	require.NoError(t, err)
	require.Equal(t, `["a"]`, string(got.Value))
	require.Equal(t, int64(3), got.Revision)

	// The value replaced by the restore is itself archived.
	hist, err := s.History(ctx, KeyTodos, 1)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(hist[0].Value))

	_, err = s.Restore(ctx, KeyTodos, 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseKey(t *testing.T) {
	for _, k := range AllKeys {
		got, ok := ParseKey(string(k))
		require.True(t, ok)
		require.Equal(t, k, got)
	}
	_, ok := ParseKey("sessions")
	require.False(t, ok)
}
