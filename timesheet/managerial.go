package timesheet

import (
	"fmt"
	"strings"
)

// MatchTier tells how a managerial name was bound to a person.
type MatchTier int

const (
	MatchNone MatchTier = iota
	// MatchExact: canonical forms are equal.
	MatchExact
	// MatchContains: one canonical form contains the other.
	MatchContains
)

func (t MatchTier) String() string {
	switch t {
	case MatchExact:
		return "exact"
	case MatchContains:
		return "contains"
	}
	return "none"
}

// MatchPerson binds name to one of candidates.
//
// Tier 1 is canonical equality. Tier 2 accepts the first candidate whose
// canonical form contains the canonical name, or is contained in it
// ("Ana Maria" ↔ "Ana Maria Silva"). Candidates are tried in the order
// given and the first hit wins; two people sharing a short name can
// therefore be confused, and nothing here tries to break that tie.
func MatchPerson(candidates []string, name string) (string, MatchTier) {
	want := Canonicalize(name)
	if want == "" {
		return "", MatchNone
	}

	canon := make([]string, len(candidates))
	for i, c := range candidates {
		canon[i] = Canonicalize(c)
		if canon[i] == want {
			return c, MatchExact
		}
	}
	for i, c := range candidates {
		if canon[i] == "" {
			continue
		}
		if strings.Contains(canon[i], want) || strings.Contains(want, canon[i]) {
			return c, MatchContains
		}
	}
	return "", MatchNone
}

// Target is one usable managerial row.
type Target struct {
	Name  string
	Hours float64
}

// TargetFromRow maps a managerial row. ok is false when the name is empty
// or the hours are not positive.
func TargetFromRow(row Row) (Target, bool) {
	cols := ManagerialColumns
	name := cols.Text(row, FieldTargetName)
	var hours float64
	if c, ok := cols.Extract(row, FieldTargetHours); ok {
		hours = ParseAvailableHours(c)
	}
	if name == "" || !(hours > 0) {
		return Target{}, false
	}
	return Target{Name: name, Hours: hours}, true
}

// Enrich runs the managerial pass: each usable row overwrites the
// available minutes of the person it matches. Enrich never creates
// persons; unmatched rows come back as warnings.
func Enrich(rec MonthRecord, rows []Row) (MonthRecord, []Warning) {
	var warnings []Warning
	candidates := rec.PersonKeys()

	for _, row := range rows {
		target, ok := TargetFromRow(row)
		if !ok {
			continue
		}
		key, tier := MatchPerson(candidates, target.Name)
		if tier == MatchNone {
			warnings = append(warnings, Warning{
				Kind:   WarnUnmatchedTarget,
				Month:  rec.Name,
				Detail: fmt.Sprintf("no analytic match for %q (%s), ignored", target.Name, Canonicalize(target.Name)),
			})
			continue
		}
		rec.ByPerson[key].AvailableMinutes = AvailableMinutes(target.Hours)
	}
	return rec, warnings
}
