package timesheet

import "strings"

// UpsertAction tells what Upsert did.
type UpsertAction string

const (
	ActionInserted UpsertAction = "inserted"
	ActionUpdated  UpsertAction = "updated"
)

// Upsert replaces the month matching rec or appends rec. A second run for
// the same month replaces the first wholesale; entries are never merged.
//
// Matching, in order:
//  1. an existing id or name equal to rec.ID
//  2. an existing id or name whose MonthKey equals rec's ("Marco" stored
//     by an older run matches "Março")
//  3. an existing id or name containing rec.ID
func (d *Document) Upsert(rec MonthRecord) (UpsertAction, int) {
	if i := d.indexOf(rec.ID); i >= 0 {
		d.Months[i] = rec
		return ActionUpdated, i
	}
	d.Months = append(d.Months, rec)
	return ActionInserted, len(d.Months) - 1
}

func (d *Document) indexOf(label string) int {
	for i, m := range d.Months {
		if m.ID == label || m.Name == label {
			return i
		}
	}
	key := MonthKey(label)
	for i, m := range d.Months {
		if MonthKey(m.ID) == key || MonthKey(m.Name) == key {
			return i
		}
	}
	for i, m := range d.Months {
		if strings.Contains(m.ID, label) || strings.Contains(m.Name, label) {
			return i
		}
	}
	return -1
}
