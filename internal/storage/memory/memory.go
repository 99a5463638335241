// Package memory is a process-local DocumentStore used in development and
// tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"timecard/internal/storage"
)

type Store struct {
	mu   sync.Mutex
	docs map[storage.Key]storage.Document
}

func New() *Store {
	return &Store{docs: make(map[storage.Key]storage.Document)}
}

// NewFromFiles preloads documents from <base>/<key>.json. Missing files are
// skipped so the repository falls back to its defaults.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range storage.AllKeys {
		raw, err := os.ReadFile(filepath.Join(base, string(key)+".json"))
		if err != nil || len(raw) == 0 {
			continue
		}
		s.docs[key] = storage.Document{Value: raw, Revision: 1}
	}
	return s
}

func (s *Store) Get(_ context.Context, key storage.Key) (storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	return storage.Document{Value: append([]byte(nil), doc.Value...), Revision: doc.Revision}, nil
}

// PutMany checks every revision before applying any write.
func (s *Store) PutMany(_ context.Context, writes []storage.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		if cur := s.docs[w.Key].Revision; cur != w.ExpectRevision {
			return fmt.Errorf("write document %s at revision %d (stored %d): %w",
				w.Key, w.ExpectRevision, cur, storage.ErrConflict)
		}
	}
	for _, w := range writes {
		s.docs[w.Key] = storage.Document{
			Value:    append([]byte(nil), w.Value...),
			Revision: w.ExpectRevision + 1,
		}
	}
	return nil
}

// Set overwrites a document regardless of revision.
func (s *Store) Set(key storage.Key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev := s.docs[key].Revision + 1
	s.docs[key] = storage.Document{Value: append([]byte(nil), value...), Revision: rev}
}

func (s *Store) Close() error { return nil }
