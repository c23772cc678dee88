package timesheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// FILE ROLES
// =============================================================================

// Role is what a spreadsheet contains.
type Role string

const (
	RoleAnalytic   Role = "analytic"
	RoleManagerial Role = "managerial"
)

// monthNames are matched by containment, in this order. "marco" is the
// cedilla-less spelling of março.
var monthNames = []string{
	"janeiro", "fevereiro", "março", "marco", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var managerialKeywords = []string{"gerencial", "meta", "disponi", "managerial"}

// SpreadsheetExtensions are the file types the pipeline reads.
var SpreadsheetExtensions = []string{".xlsx", ".xlsm", ".xls"}

// IsSpreadsheet reports whether name is a workbook worth grouping.
// Office lock files ("~$...") are not.
func IsSpreadsheet(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range SpreadsheetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// normalizeFileName lowercases a file name and drops its extension. File
// systems that store decomposed names (macOS) are brought to NFC so "ç"
// compares as one rune.
func normalizeFileName(name string) string {
	base := norm.NFC.String(filepath.Base(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(strings.ToLower(base))
}

// DetectMonth returns the month label in name ("Dezembro"), or "".
func DetectMonth(name string) string {
	clean := normalizeFileName(name)
	for _, m := range monthNames {
		if strings.Contains(clean, m) {
			if m == "marco" {
				m = "março"
			}
			return capitalize(m)
		}
	}
	return ""
}

// DetectRole classifies name. Anything not recognisably managerial is
// analytic.
func DetectRole(name string) Role {
	clean := normalizeFileName(name)
	for _, k := range managerialKeywords {
		if strings.Contains(clean, k) {
			return RoleManagerial
		}
	}
	return RoleAnalytic
}

// MonthKey is a stable comparison key for a month label: "Março" and
// "Marco" share the key "marco".
func MonthKey(label string) string {
	return Canonicalize(label)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// =============================================================================
// GROUPING
// =============================================================================

// MonthFiles is the pair of files for one month. Either may be empty.
type MonthFiles struct {
	Label      string
	Analytic   string
	Managerial string
}

// Grouping is GroupFiles' result: months in first-seen order plus the
// recoverable conditions met on the way.
type Grouping struct {
	Months   []MonthFiles
	Warnings []Warning
}

// Labels returns month labels in processing order.
func (g Grouping) Labels() []string {
	labels := make([]string, len(g.Months))
	for i, m := range g.Months {
		labels[i] = m.Label
	}
	return labels
}

// GroupFiles pairs file names into per-month jobs. Files without a
// month are excluded with a warning. When two files claim the same month
// and role the later one wins, also with a warning.
func GroupFiles(fileNames []string) Grouping {
	var g Grouping
	index := make(map[string]int)

	for _, file := range fileNames {
		label := DetectMonth(file)
		if label == "" {
			g.Warnings = append(g.Warnings, Warning{
				Kind:   WarnNoMonthInName,
				File:   file,
				Detail: "no month in file name, ignored",
			})
			continue
		}

		i, ok := index[label]
		if !ok {
			i = len(g.Months)
			index[label] = i
			g.Months = append(g.Months, MonthFiles{Label: label})
		}
		slot := &g.Months[i]

		switch DetectRole(file) {
		case RoleManagerial:
			if slot.Managerial != "" {
				g.Warnings = append(g.Warnings, collision(label, RoleManagerial, slot.Managerial, file))
			}
			slot.Managerial = file
		default:
			if slot.Analytic != "" {
				g.Warnings = append(g.Warnings, collision(label, RoleAnalytic, slot.Analytic, file))
			}
			slot.Analytic = file
		}
	}
	return g
}

func collision(label string, role Role, previous, file string) Warning {
	return Warning{
		Kind:   WarnSlotCollision,
		Month:  label,
		File:   file,
		Detail: fmt.Sprintf("several %s files, using %s instead of %s", role, file, previous),
	}
}
