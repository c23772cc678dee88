/*
Package jsonfile stores the month document as the dashboard's data.json.

PURPOSE:
  The default MonthStore. The dashboard bundles this file, so the layout
  is the wire contract in timesheet/types.go, indented with two spaces.

ATOMIC WRITES:
  Save writes a temporary file next to the target and renames it over
  the target. Readers see either the old or the new document.

LOAD:
  - File absent        → empty document
  - File present, bad  → ErrInvalidStore (fatal for the run)

SEE ALSO:
  - timesheet/store.go: MonthStore contract
*/
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/warp/timesheet-analytics/timesheet"
)

// Store is a MonthStore backed by one JSON file.
type Store struct {
	path string
}

// New returns a store for path. Nothing is read until Load.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load reads the document.
func (s *Store) Load(_ context.Context) (*timesheet.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return timesheet.NewDocument(), nil
	}
	if err != nil {
		return nil, &timesheet.StoreError{Location: s.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, s.invalid(errors.New("empty file"))
	}

	doc := timesheet.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, s.invalid(err)
	}
	if doc.Months == nil {
		doc.Months = []timesheet.MonthRecord{}
	}
	return doc, nil
}

// Save atomically replaces the document.
func (s *Store) Save(_ context.Context, doc *timesheet.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &timesheet.StoreError{Location: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &timesheet.StoreError{Location: s.path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &timesheet.StoreError{Location: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &timesheet.StoreError{Location: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &timesheet.StoreError{Location: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &timesheet.StoreError{Location: s.path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &timesheet.StoreError{Location: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &timesheet.StoreError{Location: s.path, Err: err}
	}
	return nil
}

func (s *Store) invalid(err error) error {
	return &timesheet.StoreError{Location: s.path, Err: fmt.Errorf("%w: %v", timesheet.ErrInvalidStore, err)}
}
