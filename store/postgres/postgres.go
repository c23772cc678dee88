/*
Package postgres provides a PostgreSQL-backed implementation of the storage
interfaces.

PURPOSE:
  Same contract and layout as store/sqlite, for a shared database. Months
  are stored as jsonb so reporting queries can reach inside a month
  without going through the API.

SCHEMA:
  Tables live in a dedicated schema (default "timesheet"), created on New:
    months          id, name, position, totals, document jsonb
    ingestion_runs  id, started_at, completed_at, status, months, ...

SEE ALSO:
  - store/sqlite: Embedded equivalent
  - timesheet/store.go: Interface definitions
*/
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/timesheet-analytics/timesheet"
)

// DefaultSchema holds the tables when no schema is given.
const DefaultSchema = "timesheet"

var schemaName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store implements the storage interfaces using PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	schema string
}

// New connects to url and migrates schema.
func New(ctx context.Context, url, schema string) (*Store, error) {
	if schema == "" {
		schema = DefaultSchema
	}
	if !schemaName.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name %q", schema)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	s := &Store{pool: pool, schema: schema}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{s.schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			total_available DOUBLE PRECISION NOT NULL,
			total_logged DOUBLE PRECISION NOT NULL,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table("months")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			status TEXT NOT NULL,
			months TEXT[] NOT NULL DEFAULT '{}',
			warning_count INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`, s.table("ingestion_runs")),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// MONTH STORE
// =============================================================================

// Load returns the stored document in position order.
func (s *Store) Load(ctx context.Context) (*timesheet.Document, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id, document FROM %s ORDER BY position`, s.table("months")))
	if err != nil {
		return nil, &timesheet.StoreError{Location: s.schema, Err: err}
	}
	defer rows.Close()

	doc := timesheet.NewDocument()
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, &timesheet.StoreError{Location: s.schema, Err: err}
		}
		var month timesheet.MonthRecord
		if err := json.Unmarshal(raw, &month); err != nil {
			return nil, &timesheet.StoreError{
				Location: s.schema,
				Err:      fmt.Errorf("%w: month %s: %v", timesheet.ErrInvalidStore, id, err),
			}
		}
		doc.Months = append(doc.Months, month)
	}
	if err := rows.Err(); err != nil {
		return nil, &timesheet.StoreError{Location: s.schema, Err: err}
	}
	return doc, nil
}

// Save replaces every stored month inside one transaction.
func (s *Store) Save(ctx context.Context, doc *timesheet.Document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table("months"))); err != nil {
		return fmt.Errorf("failed to clear months: %w", err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (id, name, position, total_available, total_logged, document, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, s.table("months"))

	batch := &pgx.Batch{}
	for i, month := range doc.Months {
		raw, err := json.Marshal(month)
		if err != nil {
			return fmt.Errorf("failed to encode month %s: %w", month.ID, err)
		}
		batch.Queue(insert, month.ID, month.Name, i, month.TotalAvailable, month.TotalLogged, raw)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save months: %w", err)
	}
	return tx.Commit(ctx)
}

// =============================================================================
// RUN LEDGER
// =============================================================================

// SaveRun inserts or updates a run by id.
func (s *Store) SaveRun(ctx context.Context, r timesheet.RunRecord) error {
	months := r.Months
	if months == nil {
		months = []string{}
	}
	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, started_at, completed_at, status, months, warning_count, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			completed_at = EXCLUDED.completed_at,
			status = EXCLUDED.status,
			months = EXCLUDED.months,
			warning_count = EXCLUDED.warning_count,
			error = EXCLUDED.error
	`, s.table("ingestion_runs")),
		r.ID, r.StartedAt, r.CompletedAt, string(r.Status), months, r.WarningCount, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to save ingestion run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]timesheet.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, started_at, completed_at, status, months, warning_count, coalesce(error, '')
		FROM %s
		ORDER BY started_at DESC
		LIMIT $1
	`, s.table("ingestion_runs")), limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (timesheet.RunRecord, error) {
		var (
			r           timesheet.RunRecord
			status      string
			completedAt *time.Time
		)
		err := row.Scan(&r.ID, &r.StartedAt, &completedAt, &status, &r.Months, &r.WarningCount, &r.Error)
		r.Status = timesheet.RunStatus(status)
		r.CompletedAt = completedAt
		return r, err
	})
}
