/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements timesheet.MonthStore and timesheet.RunRecorder using SQLite,
  for deployments that want the months queryable in SQL rather than in a
  single data.json.

INTERFACES IMPLEMENTED:
  timesheet.MonthStore:  Whole-document load/save
  timesheet.RunRecorder: Ingestion run ledger

KEY TABLES:
  months:          One row per month, document column holds the month as
                   JSON in the dashboard wire format; position keeps the
                   document order
  ingestion_runs:  One row per pipeline run

WHOLE-DOCUMENT SAVE:
  Save rewrites the months table inside one transaction. A failed save
  leaves the previous document intact.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so the API can read
  while an ingestion run writes.

USAGE:
  store, err := sqlite.New("./timesheet.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - timesheet/store.go: Interface definitions
  - store/postgres: Same schema on PostgreSQL
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/timesheet-analytics/timesheet"
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Months (whole document, one row per month)
	CREATE TABLE IF NOT EXISTS months (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		total_available REAL NOT NULL,
		total_logged REAL NOT NULL,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_months_position
		ON months(position);

	-- Ingestion runs (one per pipeline run)
	CREATE TABLE IF NOT EXISTS ingestion_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		status TEXT NOT NULL,
		months_json TEXT NOT NULL,
		warning_count INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_ingestion_runs_started
		ON ingestion_runs(started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MONTH STORE (timesheet.MonthStore interface)
// =============================================================================

// Load returns the stored document in position order.
func (s *Store) Load(ctx context.Context) (*timesheet.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, document FROM months ORDER BY position`)
	if err != nil {
		return nil, &timesheet.StoreError{Location: s.path, Err: err}
	}
	defer rows.Close()

	doc := timesheet.NewDocument()
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, &timesheet.StoreError{Location: s.path, Err: err}
		}
		var month timesheet.MonthRecord
		if err := json.Unmarshal([]byte(raw), &month); err != nil {
			return nil, &timesheet.StoreError{
				Location: s.path,
				Err:      fmt.Errorf("%w: month %s: %v", timesheet.ErrInvalidStore, id, err),
			}
		}
		doc.Months = append(doc.Months, month)
	}
	if err := rows.Err(); err != nil {
		return nil, &timesheet.StoreError{Location: s.path, Err: err}
	}
	return doc, nil
}

// Save replaces every stored month with doc's months.
func (s *Store) Save(ctx context.Context, doc *timesheet.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM months`); err != nil {
		return fmt.Errorf("failed to clear months: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	for i, month := range doc.Months {
		raw, err := json.Marshal(month)
		if err != nil {
			return fmt.Errorf("failed to encode month %s: %w", month.ID, err)
		}
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO months (id, name, position, total_available, total_logged, document, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, month.ID, month.Name, i, month.TotalAvailable, month.TotalLogged, string(raw), now)
		if err != nil {
			return fmt.Errorf("failed to save month %s: %w", month.ID, err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// RUN LEDGER (timesheet.RunRecorder interface)
// =============================================================================

// timeLayout is fixed width so ORDER BY on the text column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveRun saves an ingestion run.
func (s *Store) SaveRun(ctx context.Context, r timesheet.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO ingestion_runs (id, started_at, completed_at, status, months_json, warning_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			completed_at = excluded.completed_at,
			status = excluded.status,
			months_json = excluded.months_json,
			warning_count = excluded.warning_count,
			error = excluded.error
	`

	var completedAt *string
	if r.CompletedAt != nil {
		c := r.CompletedAt.UTC().Format(timeLayout)
		completedAt = &c
	}
	months, _ := json.Marshal(nonNil(r.Months))

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.StartedAt.UTC().Format(timeLayout),
		completedAt,
		string(r.Status),
		string(months),
		r.WarningCount,
		nullString(r.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to save ingestion run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]timesheet.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, status, months_json, warning_count, error
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []timesheet.RunRecord
	for rows.Next() {
		var (
			r                   timesheet.RunRecord
			startedAt, status   string
			monthsJSON          string
			completedAt, errStr sql.NullString
		)
		if err := rows.Scan(&r.ID, &startedAt, &completedAt, &status, &monthsJSON, &r.WarningCount, &errStr); err != nil {
			return nil, err
		}
		r.Status = timesheet.RunStatus(status)
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(timeLayout, completedAt.String)
			r.CompletedAt = &t
		}
		r.Error = errStr.String
		_ = json.Unmarshal([]byte(monthsJSON), &r.Months)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
