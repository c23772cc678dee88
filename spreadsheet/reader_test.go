package spreadsheet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-analytics/spreadsheet"
	"github.com/warp/timesheet-analytics/spreadsheet/spreadsheettest"
	"github.com/warp/timesheet-analytics/timesheet"
)

func TestReadFile_TypedCells(t *testing.T) {
	// GIVEN: an analytic export with a date serial and a text hour cell
	path := spreadsheettest.WriteXLSX(t, t.TempDir(), "Analitico - Dezembro.xlsx",
		spreadsheettest.AnalyticHeader,
		[]any{"Ana", "ACME", "Contratos", "Parecer", 30, "Minuta", 45366, 2},
		[]any{"Bia", "ACME", nil, "Reunião", "12", nil, "15/03/2024", nil},
	)

	// WHEN: reading it
	rows, err := spreadsheet.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// THEN: numbers stay numbers and text stays text
	minutes, ok := rows[0].Get("Tempo lançado")
	require.True(t, ok)
	assert.True(t, minutes.Numeric)
	assert.Equal(t, float64(30), minutes.Number)

	date, _ := rows[0].Get("Lançamento para")
	assert.True(t, date.Numeric)
	assert.Equal(t, "15/03/2024", timesheet.ToDisplayDate(date))

	text, _ := rows[1].Get("Tempo lançado")
	assert.False(t, text.Numeric)
	assert.Equal(t, "12", text.Text)

	_, ok = rows[1].Get("Núcleo")
	assert.False(t, ok, "blank cells are absent")
}

func TestReadFile_FeedsIngest(t *testing.T) {
	path := spreadsheettest.WriteXLSX(t, t.TempDir(), "a.xlsx",
		spreadsheettest.AnalyticHeader,
		[]any{"Ana", "ACME", "Contratos", "Parecer", 30},
		[]any{"Ana", "ACME", "Contratos", "Parecer", 5},
		[]any{"", "ACME", "Contratos", "Parecer", 5},
	)
	rows, err := spreadsheet.ReadFile(path)
	require.NoError(t, err)

	rec := timesheet.Ingest(timesheet.NewMonthRecord("Dezembro"), rows)
	require.Contains(t, rec.ByPerson, "Ana")
	assert.Equal(t, float64(35), rec.ByPerson["Ana"].LoggedMinutes)
	assert.Equal(t, 1, rec.ByPerson["Ana"].FragmentCount)
	assert.Len(t, rec.Entries, 2)
}

func TestReadFile_HeaderOnly(t *testing.T) {
	path := spreadsheettest.WriteXLSX(t, t.TempDir(), "empty.xlsx", spreadsheettest.ManagerialHeader)
	rows, err := spreadsheet.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadFile_NotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Analitico - Maio.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := spreadsheet.ReadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, timesheet.ErrUnreadableWorkbook)
	assert.True(t, timesheet.IsFatal(err))

	var wbErr *timesheet.WorkbookError
	require.ErrorAs(t, err, &wbErr)
	assert.Equal(t, path, wbErr.Path)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := spreadsheet.ReadFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.ErrorIs(t, err, timesheet.ErrUnreadableWorkbook)
}
