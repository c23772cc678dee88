package timesheet

import (
	"math"
	"time"
)

// serialEpoch is spreadsheet day 0. Using 1899-12-30 rather than
// 1900-01-01 absorbs the 1900 leap-year bug for every serial after
// February 1900.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const displayDateLayout = "02/01/2006"

// SerialToTime converts a spreadsheet date serial (fractional part is the
// time of day) to a time in UTC. Whole days go through AddDate so serials
// up to 31/12/9999 stay exact.
func SerialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	frac := time.Duration((serial - days) * float64(24*time.Hour))
	return serialEpoch.AddDate(0, 0, int(days)).Add(frac)
}

// ToDisplayDate renders a date cell as DD/MM/YYYY. Text cells pass through
// untouched; an empty cell (or serial 0) yields "".
func ToDisplayDate(c Cell) string {
	if c.Empty() {
		return ""
	}
	if !c.Numeric || math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
		return c.Text
	}
	return SerialToTime(c.Number).Format(displayDateLayout)
}
