package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// HistoryDepth is how many replaced revisions are kept per document.
const HistoryDepth = 20

// SQLiteStore keeps each document as one row in the documents table. A
// replaced value is copied to document_history before it is overwritten,
// and only the last HistoryDepth copies per key are kept.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns ErrNotFound when the key has never been written.
func (s *SQLiteStore) Get(ctx context.Context, key Key) (Document, error) {
	var doc Document
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value, revision FROM documents WHERE key = ?`, string(key),
	).Scan(&value, &doc.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", key, err)
	}
	doc.Value = []byte(value)
	return doc, nil
}

func (s *SQLiteStore) PutMany(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		if err := putOne(ctx, tx, w); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Documents saved to SQLite", "count", len(writes))
	return nil
}

func putOne(ctx context.Context, tx *sql.Tx, w Write) error {
	var res sql.Result
	var err error

	if w.ExpectRevision == 0 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO documents (key, value, revision) VALUES (?, ?, 1)
			 ON CONFLICT(key) DO NOTHING`,
			string(w.Key), string(w.Value))
	} else {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO document_history (key, value, revision)
			 SELECT key, value, revision FROM documents WHERE key = ? AND revision = ?`,
			string(w.Key), w.ExpectRevision); err != nil {
			return fmt.Errorf("archive document %s: %w", w.Key, err)
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM document_history WHERE key = ? AND revision <= ?`,
			string(w.Key), w.ExpectRevision-HistoryDepth); err != nil {
			return fmt.Errorf("prune history %s: %w", w.Key, err)
		}
		res, err = tx.ExecContext(ctx,
			`UPDATE documents SET value = ?, revision = revision + 1, updated_at = CURRENT_TIMESTAMP
			 WHERE key = ? AND revision = ?`,
			string(w.Value), string(w.Key), w.ExpectRevision)
	}
	if err != nil {
		return fmt.Errorf("write document %s: %w", w.Key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write document %s: %w", w.Key, err)
	}
	if n == 0 {
		return fmt.Errorf("write document %s at revision %d: %w", w.Key, w.ExpectRevision, ErrConflict)
	}
	return nil
}

// History returns up to limit previous values of key, newest first.
func (s *SQLiteStore) History(ctx context.Context, key Key, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT value, revision FROM document_history WHERE key = ?
		 ORDER BY revision DESC LIMIT ?`, string(key), limit)
	if err != nil {
		return nil, fmt.Errorf("query history %s: %w", key, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var value string
		var d Document
		if err := rows.Scan(&value, &d.Revision); err != nil {
			return nil, fmt.Errorf("scan history %s: %w", key, err)
		}
		d.Value = []byte(value)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Restore writes the archived value of key at revision back as the current
// value. The value it replaces is archived like any other write. Returns
// ErrNotFound when that revision is no longer kept.
func (s *SQLiteStore) Restore(ctx context.Context, key Key, revision int64) (Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM document_history WHERE key = ? AND revision = ?
		 ORDER BY id DESC LIMIT 1`, string(key), revision,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("restore %s revision %d: %w", key, revision, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("restore %s: %w", key, err)
	}

	var current int64
	if err := tx.QueryRowContext(ctx,
		`SELECT revision FROM documents WHERE key = ?`, string(key),
	).Scan(&current); err != nil {
		return Document{}, fmt.Errorf("restore %s: %w", key, err)
	}
	if err := putOne(ctx, tx, Write{Key: key, Value: []byte(value), ExpectRevision: current}); err != nil {
		return Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Document restored", "key", string(key), "from_revision", revision, "revision", current+1)
	return Document{Value: []byte(value), Revision: current + 1}, nil
}
