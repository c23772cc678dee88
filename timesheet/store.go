/*
store.go - Persistence interface for the month document

PURPOSE:
  Defines the boundary between the ingestion core and wherever the month
  document lives. The pipeline loads once, upserts in memory, and saves
  once per run.

KEY INTERFACES:
  MonthStore:  Load/Save the whole document
  RunRecorder: Optional ledger of ingestion runs (SQL backends)

WHOLE-DOCUMENT CONTRACT:
  Save replaces the stored document with the one given. Implementations
  make that replacement atomic (temp file + rename, or one SQL
  transaction) so a crash never leaves half a document.

IMPLEMENTATIONS:
  - store/jsonfile: data.json consumed by the dashboard (default)
  - store/sqlite:   embedded database
  - store/postgres: shared database
  - store/memory:   tests

SEE ALSO:
  - upsert.go: In-memory upsert rules
  - pipeline/pipeline.go: Load → upsert → Save
*/
package timesheet

import (
	"context"
	"time"
)

// =============================================================================
// MONTH STORE
// =============================================================================

// MonthStore loads and saves the month document.
type MonthStore interface {
	// Load returns the stored document, or an empty one when nothing has
	// been stored yet. A stored document that cannot be decoded is an
	// ErrInvalidStore.
	Load(ctx context.Context) (*Document, error)

	// Save atomically replaces the stored document.
	Save(ctx context.Context, doc *Document) error
}

// =============================================================================
// RUN LEDGER
// =============================================================================

// RunStatus is the outcome of an ingestion run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord describes one ingestion run.
type RunRecord struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Status       RunStatus  `json:"status"`
	Months       []string   `json:"months"`
	WarningCount int        `json:"warning_count"`
	Error        string     `json:"error,omitempty"`
}

// RunRecorder is implemented by stores that keep a run history.
type RunRecorder interface {
	SaveRun(ctx context.Context, run RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
