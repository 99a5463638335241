// Package storage persists the application state as four keyed JSON
// documents. Every mutation reads the whole state and writes back the
// documents that changed, in one atomic batch.
package storage

import (
	"context"
	"errors"
)

// Key names a persisted document.
type Key string

const (
	KeyActivities    Key = "tasks"
	KeySessions      Key = "logs"
	KeyTodos         Key = "todos"
	KeyMonthlyStatus Key = "monthly_status"
)

// AllKeys lists the documents in load order.
var AllKeys = []Key{KeyActivities, KeySessions, KeyTodos, KeyMonthlyStatus}

// ParseKey accepts the stored document names.
func ParseKey(s string) (Key, bool) {
	for _, k := range AllKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict means a document changed between read and write.
	ErrConflict = errors.New("document revision conflict")
)

// Document is a stored JSON value and its revision. Revision 0 means the
// document has never been written.
type Document struct {
	Value    []byte
	Revision int64
}

// Write replaces the value of Key provided its stored revision still equals
// ExpectRevision.
type Write struct {
	Key            Key
	Value          []byte
	ExpectRevision int64
}

// DocumentStore is the narrow load/save surface the repository depends on.
type DocumentStore interface {
	Get(ctx context.Context, key Key) (Document, error)
	// PutMany applies all writes or none of them.
	PutMany(ctx context.Context, writes []Write) error
	Close() error
}
