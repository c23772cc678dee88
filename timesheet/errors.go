/*
errors.go - Error and warning types for the ingestion core

PURPOSE:
  Keeps the two failure classes apart:
  1. Fatal errors   - returned as error values, abort the run
  2. Warnings       - returned as Warning values, logged, run continues

FATAL:
  - The store exists but is not a valid document (ErrInvalidStore)
  - A discovered spreadsheet cannot be opened or has no sheet
    (ErrUnreadableWorkbook, ErrNoSheets)

WARNINGS:
  - File name without a month
  - Two files for the same month and role (last one wins)
  - Month without analytic file (skipped)
  - Month without managerial file (fallback hours)
  - Managerial row that matches nobody

  Rows missing person/client/activity, and managerial rows without hours,
  are dropped without a warning.

SEE ALSO:
  - grouping.go:   Emits file-level warnings
  - managerial.go: Emits unmatched-row warnings
  - pipeline/pipeline.go: Logs warnings, propagates errors
*/
package timesheet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidStore is returned when the persisted document cannot be decoded.
	ErrInvalidStore = errors.New("invalid store document")

	// ErrUnreadableWorkbook is returned when a spreadsheet cannot be opened or parsed.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")

	// ErrNoSheets is returned when a workbook has no worksheet.
	ErrNoSheets = errors.New("workbook has no sheets")

	// ErrMonthNotFound is returned when a month is not in the document.
	ErrMonthNotFound = errors.New("month not found")

	// ErrPersonNotFound is returned when a person is not in a month.
	ErrPersonNotFound = errors.New("person not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// WorkbookError names the spreadsheet that failed.
type WorkbookError struct {
	Path string
	Err  error
}

func (e *WorkbookError) Error() string {
	return fmt.Sprintf("workbook %s: %v", e.Path, e.Err)
}

func (e *WorkbookError) Unwrap() error { return e.Err }

// StoreError names the store location that failed.
type StoreError struct {
	Location string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Location, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// =============================================================================
// WARNINGS - Recoverable conditions
// =============================================================================

// WarningKind classifies a recoverable condition.
type WarningKind string

const (
	WarnNoMonthInName     WarningKind = "no_month_in_name"
	WarnSlotCollision     WarningKind = "slot_collision"
	WarnMissingAnalytic   WarningKind = "missing_analytic"
	WarnMissingManagerial WarningKind = "missing_managerial"
	WarnUnmatchedTarget   WarningKind = "unmatched_target"
)

// Warning is a recoverable condition surfaced to the operator.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Month  string      `json:"month,omitempty"`
	File   string      `json:"file,omitempty"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	switch {
	case w.Month != "" && w.File != "":
		return fmt.Sprintf("[%s] %s (%s): %s", w.Kind, w.Month, w.File, w.Detail)
	case w.Month != "":
		return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Month, w.Detail)
	case w.File != "":
		return fmt.Sprintf("[%s] %s: %s", w.Kind, w.File, w.Detail)
	}
	return fmt.Sprintf("[%s] %s", w.Kind, w.Detail)
}

// IsFatal reports whether err should abort an ingestion run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidStore) ||
		errors.Is(err, ErrUnreadableWorkbook) ||
		errors.Is(err, ErrNoSheets)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMonthNotFound) || errors.Is(err, ErrPersonNotFound)
}
