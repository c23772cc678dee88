/*
Package spreadsheet reads the first worksheet of an export into typed rows.

PURPOSE:
  Both exports are read the same way: first sheet only, first row is the
  header, every following non-blank row becomes a timesheet.Row keyed by
  header text.

CELL TYPES:
  The ingestors care whether a value was typed as a number (date serials,
  minutes, hours) or as text ("160h00min", "15/03/2024"). Cells are read
  raw (unformatted) so a date stays a serial, and cells stored as strings
  stay text even when they look numeric.

FORMATS:
  .xlsx / .xlsm  excelize
  .xls           extrame/xls (values arrive as text; numeric-looking
                 values are promoted to numbers)

ERRORS:
  Any open/parse failure is a *timesheet.WorkbookError wrapping
  timesheet.ErrUnreadableWorkbook or timesheet.ErrNoSheets.

SEE ALSO:
  - timesheet/columns.go: Row and Cell
  - pipeline/pipeline.go: Caller
*/
package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/warp/timesheet-analytics/timesheet"
)

// maxXLSRows bounds legacy .xls reads.
const maxXLSRows = 100000

// ReadFile reads the first sheet of the workbook at path.
func ReadFile(path string) ([]timesheet.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	defer f.Close()
	return Read(f, path)
}

// Read reads the first sheet of a workbook. name selects the format by
// extension.
func Read(r io.ReadSeeker, name string) ([]timesheet.Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls":
		return readXLS(r, name)
	default:
		return readXLSX(r, name)
	}
}

// =============================================================================
// XLSX
// =============================================================================

func readXLSX(r io.Reader, name string) ([]timesheet.Row, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, unreadable(name, err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, &timesheet.WorkbookError{Path: name, Err: timesheet.ErrNoSheets}
	}

	grid, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, unreadable(name, err)
	}
	if len(grid) == 0 {
		return nil, nil
	}

	cellType := func(row, col int) excelize.CellType {
		axis, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return excelize.CellTypeUnset
		}
		t, err := file.GetCellType(sheet, axis)
		if err != nil {
			return excelize.CellTypeUnset
		}
		return t
	}

	return buildRows(grid, func(row, col int, raw string) timesheet.Cell {
		switch cellType(row, col) {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
			return timesheet.TextCell(raw)
		case excelize.CellTypeBool:
			return timesheet.TextCell(raw)
		}
		return typed(raw)
	}), nil
}

// =============================================================================
// XLS
// =============================================================================

func readXLS(r io.ReadSeeker, name string) ([]timesheet.Row, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, unreadable(name, err)
	}
	if wb.NumSheets() == 0 {
		return nil, &timesheet.WorkbookError{Path: name, Err: timesheet.ErrNoSheets}
	}
	grid := wb.ReadAllCells(maxXLSRows)
	return buildRows(grid, func(_, _ int, raw string) timesheet.Cell {
		return typed(raw)
	}), nil
}

// =============================================================================
// ROW ASSEMBLY
// =============================================================================

// buildRows turns a header + data grid into rows. Blank headers and
// blank rows are dropped; a repeated header keeps its first column.
func buildRows(grid [][]string, cell func(row, col int, raw string) timesheet.Cell) []timesheet.Row {
	if len(grid) == 0 {
		return nil
	}
	header := grid[0]

	rows := make([]timesheet.Row, 0, len(grid)-1)
	for i := 1; i < len(grid); i++ {
		values := make(map[string]timesheet.Cell, len(header))
		for col, raw := range grid[i] {
			if col >= len(header) || raw == "" {
				continue
			}
			h := strings.TrimSpace(header[col])
			if h == "" {
				continue
			}
			if _, dup := values[h]; dup {
				continue
			}
			values[h] = cell(i, col, raw)
		}
		if len(values) == 0 {
			continue
		}
		rows = append(rows, timesheet.NewRow(values))
	}
	return rows
}

// typed promotes numeric-looking raw values to numbers. "NaN" and "Inf"
// stay text.
func typed(raw string) timesheet.Cell {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return timesheet.Cell{Text: raw, Number: f, Numeric: true}
	}
	return timesheet.TextCell(raw)
}

func unreadable(path string, err error) error {
	return &timesheet.WorkbookError{Path: path, Err: fmt.Errorf("%w: %v", timesheet.ErrUnreadableWorkbook, err)}
}
