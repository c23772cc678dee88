// Package spreadsheettest writes small workbooks for tests.
package spreadsheettest

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX saves a single-sheet workbook under dir and returns its path.
// header is the first row; values keep their Go type so numbers are stored
// as numbers and strings as text.
func WriteXLSX(t testing.TB, dir, name string, header []string, rows ...[]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

// AnalyticHeader is a realistic analytic export header.
var AnalyticHeader = []string{
	"Nome", "Cliente", "Núcleo", "Descrição do evento", "Tempo lançado",
	"Descrição da atividade", "Lançamento para", "Lag",
}

// ManagerialHeader is a realistic managerial export header.
var ManagerialHeader = []string{"Nome", "Tempo disponível"}
