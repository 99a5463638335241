// Package memory keeps exported month sheets in process, for development
// and tests.
package memory

import (
	"context"
	"sync"

	"timecard/internal/core"
	"timecard/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	sheets map[core.MonthKey]sheets.MonthSheet
	writes int
}

var _ sheets.MonthReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{sheets: make(map[core.MonthKey]sheets.MonthSheet)}
}

func (s *Store) WriteMonth(_ context.Context, sheet sheets.MonthSheet) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet.Month] = sheet
	s.writes++
	return "mem:" + string(sheet.Month), nil
}

// Month returns the last sheet written for key.
func (s *Store) Month(key core.MonthKey) (sheets.MonthSheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[key]
	return sh, ok
}

// Writes counts WriteMonth calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
