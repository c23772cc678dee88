package timesheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// ParseAvailableHours reads a managerial "available hours" cell. Numeric
// cells are hours already; text goes through ParseAvailableHoursText.
// NaN and infinities count as 0.
func ParseAvailableHours(c Cell) float64 {
	if c.Numeric {
		return finite(c.Number)
	}
	return ParseAvailableHoursText(c.Text)
}

// ParseAvailableHoursText accepts the formats the managerial export uses:
//
//	"160h00min", "160h", "160h30" → hours + minutes/60
//	"160:30"                      → hours:minutes
//	"160", "160.5"                → hours
//
// Unreadable parts count as 0; the function never fails.
func ParseAvailableHoursText(raw string) float64 {
	val := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.Contains(val, "h"):
		parts := strings.Split(strings.Replace(val, "min", "", 1), "h")
		h := prefixDecimal(parts[0])
		m := decimal.Zero
		if len(parts) > 1 {
			m = prefixDecimal(parts[1])
		}
		return h.Add(m.Div(sixty)).InexactFloat64()

	case strings.Contains(val, ":"):
		parts := strings.Split(val, ":")
		h := strictDecimal(parts[0])
		m := decimal.Zero
		if len(parts) > 1 {
			m = strictDecimal(parts[1])
		}
		return h.Add(m.Div(sixty)).InexactFloat64()

	default:
		return prefixDecimal(val).InexactFloat64()
	}
}

// AvailableMinutes converts hours to whole minutes, rounding half away
// from zero.
func AvailableMinutes(hours float64) float64 {
	return decimal.NewFromFloat(finite(hours)).Mul(sixty).Round(0).InexactFloat64()
}

// prefixDecimal reads a float prefix ("160 " → 160, "x" → 0).
func prefixDecimal(s string) decimal.Decimal {
	f, ok := leadingFloat(s)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// strictDecimal reads the whole trimmed token or returns 0.
func strictDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
