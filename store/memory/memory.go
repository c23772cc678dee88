// Package memory provides an in-memory MonthStore (for testing/dev).
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/timesheet-analytics/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps the document as encoded JSON so callers never share maps
// with it, and records runs like the SQL backends do.
type Store struct {
	mu    sync.RWMutex
	doc   []byte
	runs  map[string]timesheet.RunRecord
	saves int
}

func New() *Store {
	return &Store{runs: make(map[string]timesheet.RunRecord)}
}

// Load returns a copy of the stored document.
func (s *Store) Load(_ context.Context) (*timesheet.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return timesheet.NewDocument(), nil
	}
	doc := timesheet.NewDocument()
	if err := json.Unmarshal(s.doc, doc); err != nil {
		return nil, &timesheet.StoreError{Location: "memory", Err: fmt.Errorf("%w: %v", timesheet.ErrInvalidStore, err)}
	}
	return doc, nil
}

// Save replaces the stored document.
func (s *Store) Save(_ context.Context, doc *timesheet.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = data
	s.saves++
	return nil
}

// Saves counts Save calls.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// SaveRun inserts or updates a run by id.
func (s *Store) SaveRun(_ context.Context, run timesheet.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(_ context.Context, limit int) ([]timesheet.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]timesheet.RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
