package timesheet

import (
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// CELLS AND ROWS - What a spreadsheet reader hands to the ingestors
// =============================================================================

// Cell is one spreadsheet value. Numeric cells carry Number; text cells
// carry Text. Numeric cells also fill Text with the raw value so callers
// that only need a label can use it directly.
type Cell struct {
	Text    string
	Number  float64
	Numeric bool
}

// TextCell builds a text cell.
func TextCell(s string) Cell { return Cell{Text: s} }

// NumberCell builds a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Text: strconv.FormatFloat(f, 'f', -1, 64), Number: f, Numeric: true}
}

// Empty reports whether the cell would be skipped by a "first non-empty
// alias" lookup: blank text or a numeric zero.
func (c Cell) Empty() bool {
	if c.Numeric {
		return c.Number == 0
	}
	return c.Text == ""
}

// Float coerces the cell to a number. Text is read like a float prefix
// ("30 min" → 30); anything unreadable or non-finite is 0.
func (c Cell) Float() float64 {
	if c.Numeric {
		return finite(c.Number)
	}
	f, _ := leadingFloat(c.Text)
	return f
}

// Row is one data row keyed by header text.
type Row struct {
	cells  map[string]Cell
	folded map[string]Cell
}

// NewRow builds a row from header → cell pairs. Headers are also indexed
// in canonical form so "Nucleo", "NÚCLEO " and "Núcleo" all resolve.
func NewRow(cells map[string]Cell) Row {
	r := Row{cells: cells, folded: make(map[string]Cell, len(cells))}
	for header, cell := range cells {
		key := Canonicalize(header)
		if existing, ok := r.folded[key]; ok && !existing.Empty() {
			continue
		}
		r.folded[key] = cell
	}
	return r
}

// RowOf is a convenience for tests and callers holding plain values.
// Accepted value types: string, float64, int.
func RowOf(values map[string]any) Row {
	cells := make(map[string]Cell, len(values))
	for k, v := range values {
		switch x := v.(type) {
		case string:
			cells[k] = TextCell(x)
		case float64:
			cells[k] = NumberCell(x)
		case int:
			cells[k] = NumberCell(float64(x))
		case Cell:
			cells[k] = x
		}
	}
	return NewRow(cells)
}

// Get returns the cell under header, exact text first.
func (r Row) Get(header string) (Cell, bool) {
	if c, ok := r.cells[header]; ok {
		return c, true
	}
	c, ok := r.folded[Canonicalize(header)]
	return c, ok
}

// =============================================================================
// FIELD ALIASES
// =============================================================================

// Field names the logical column an ingestor needs.
type Field string

const (
	FieldPerson      Field = "person"
	FieldClient      Field = "client"
	FieldUnit        Field = "unit"
	FieldActivity    Field = "activity"
	FieldDescription Field = "description"
	FieldMinutes     Field = "minutes"
	FieldDate        Field = "date"
	FieldLag         Field = "lag"
	FieldTargetName  Field = "targetName"
	FieldTargetHours Field = "targetHours"
)

// Aliases lists accepted source headers for each field in priority order.
// Portuguese business terms come first, English fallbacks after.
type Aliases []struct {
	Field   Field
	Headers []string
}

// AnalyticColumns are the analytic export's headers.
var AnalyticColumns = Aliases{
	{FieldPerson, []string{"Nome", "Colaborador", "Resource"}},
	{FieldClient, []string{"Cliente", "Customer"}},
	{FieldUnit, []string{"Núcleo", "Nucleo"}},
	{FieldActivity, []string{"Descrição do evento", "Atividade", "Task"}},
	{FieldDescription, []string{"Descrição da atividade", "Descrição"}},
	{FieldMinutes, []string{"Tempo lançado", "Tempo (min)", "Time"}},
	{FieldDate, []string{"Lançamento para", "Data", "Date"}},
	{FieldLag, []string{"Lag"}},
}

// ManagerialColumns are the managerial export's headers.
var ManagerialColumns = Aliases{
	{FieldTargetName, []string{"Nome", "Colaborador"}},
	{FieldTargetHours, []string{"Tempo disponível", "Horas Disponíveis", "Meta", "Available"}},
}

// Headers returns the aliases for f.
func (a Aliases) Headers(f Field) []string {
	for _, entry := range a {
		if entry.Field == f {
			return entry.Headers
		}
	}
	return nil
}

// Extract returns the first non-empty cell among f's aliases.
func (a Aliases) Extract(r Row, f Field) (Cell, bool) {
	for _, header := range a.Headers(f) {
		if c, ok := r.Get(header); ok && !c.Empty() {
			return c, true
		}
	}
	return Cell{}, false
}

// Text is Extract rendered as a string ("" when absent).
func (a Aliases) Text(r Row, f Field) string {
	c, _ := a.Extract(r, f)
	return c.Text
}

// finite maps NaN and ±Inf to 0.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// leadingFloat parses the longest numeric prefix of s after leading space.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			seenDigit = true
			end = i + 1
		case (ch == '+' || ch == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
			continue
		case ch == '.' && !seenDot && !seenExp:
			seenDot = true
			if seenDigit {
				end = i + 1
			}
		case (ch == 'e' || ch == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			i = len(s)
		}
	}
	if !seenDigit {
		return 0, false
	}
	prefix := strings.TrimRight(s[:end], ".")
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
