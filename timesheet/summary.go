package timesheet

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARIES - Dashboard figures derived from a MonthRecord
// =============================================================================

var hundred = decimal.NewFromInt(100)

// MonthSummary is the headline of one month (or of a combined period).
type MonthSummary struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	AvailableMinutes float64 `json:"available"`
	LoggedMinutes    float64 `json:"logged"`
	BalanceMinutes   float64 `json:"estoque"`
	UtilizationPct   int64   `json:"utilization"`
	PersonCount      int     `json:"persons"`
	EntryCount       int     `json:"entries"`
	FragmentCount    int     `json:"fragments"`
	FragmentPct      int64   `json:"fragmentShare"`
	AvgLagDays       int64   `json:"avgLag"`
}

// PersonSummary is one row of the collaborator table.
type PersonSummary struct {
	Name             string  `json:"name"`
	AvailableMinutes float64 `json:"available"`
	LoggedMinutes    float64 `json:"logged"`
	BalanceMinutes   float64 `json:"estoque"`
	UtilizationPct   int64   `json:"utilization"`
	EntryCount       int     `json:"entries"`
	FragmentCount    int     `json:"fragments"`
	FragmentMinutes  float64 `json:"fragmentTime"`
	AvgLagDays       int64   `json:"avgLag"`
}

// Percent returns round(part/whole*100), or 0 when whole is 0.
func Percent(part, whole float64) int64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).Mul(hundred).
		Div(decimal.NewFromFloat(whole)).Round(0).IntPart()
}

func average(total float64, count int) int64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromFloat(total).Div(decimal.NewFromInt(int64(count))).Round(0).IntPart()
}

// Summarize computes the month headline. Totals come from ByPerson, as
// Recompute does, so a stale TotalLogged never leaks through.
func Summarize(m MonthRecord) MonthSummary {
	s := MonthSummary{ID: m.ID, Name: m.Name, PersonCount: len(m.ByPerson)}
	var lag float64
	var lagCount int
	for _, p := range m.ByPerson {
		s.AvailableMinutes += p.AvailableMinutes
		s.LoggedMinutes += p.LoggedMinutes
		s.EntryCount += p.EntryCount
		s.FragmentCount += p.FragmentCount
		lag += p.TotalLagDays
		lagCount += p.LagEntryCount
	}
	s.BalanceMinutes = s.AvailableMinutes - s.LoggedMinutes
	s.UtilizationPct = Percent(s.LoggedMinutes, s.AvailableMinutes)
	s.FragmentPct = Percent(float64(s.FragmentCount), float64(s.EntryCount))
	s.AvgLagDays = average(lag, lagCount)
	return s
}

// SummarizePersons returns one row per person, most logged first.
func SummarizePersons(m MonthRecord) []PersonSummary {
	out := make([]PersonSummary, 0, len(m.ByPerson))
	for _, p := range m.ByPerson {
		out = append(out, PersonSummary{
			Name:             p.Name,
			AvailableMinutes: p.AvailableMinutes,
			LoggedMinutes:    p.LoggedMinutes,
			BalanceMinutes:   p.AvailableMinutes - p.LoggedMinutes,
			UtilizationPct:   Percent(p.LoggedMinutes, p.AvailableMinutes),
			EntryCount:       p.EntryCount,
			FragmentCount:    p.FragmentCount,
			FragmentMinutes:  p.FragmentMinutes,
			AvgLagDays:       average(p.TotalLagDays, p.LagEntryCount),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LoggedMinutes != out[j].LoggedMinutes {
			return out[i].LoggedMinutes > out[j].LoggedMinutes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FormatHours renders minutes as "12h05m"; negative values get a "-".
func FormatHours(minutes float64) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	total := decimal.NewFromFloat(minutes).Round(0).IntPart()
	return fmt.Sprintf("%s%dh%02dm", sign, total/60, total%60)
}

// =============================================================================
// COMBINING AND SCOPING
// =============================================================================

// CombinedID is the id of a record built by Combine.
const CombinedID = "ALL"

// Combine folds several months into one record ("Acumulado"): persons,
// núcleos and clients are summed by name and entries concatenated.
func Combine(months []MonthRecord) MonthRecord {
	out := NewMonthRecord(CombinedID)
	out.Name = "Acumulado"
	for _, m := range months {
		out.Entries = append(out.Entries, m.Entries...)
		for _, key := range m.PersonKeys() {
			src := m.ByPerson[key]
			dst, ok := out.ByPerson[key]
			if !ok {
				dst = &PersonStat{Name: src.Name}
				out.ByPerson[key] = dst
				out.personOrder = append(out.personOrder, key)
			}
			dst.AvailableMinutes += src.AvailableMinutes
			dst.LoggedMinutes += src.LoggedMinutes
			dst.EntryCount += src.EntryCount
			dst.FragmentCount += src.FragmentCount
			dst.FragmentMinutes += src.FragmentMinutes
			dst.TotalLagDays += src.TotalLagDays
			dst.LagEntryCount += src.LagEntryCount
		}
		for name, u := range m.ByUnit {
			out.unit(name).LoggedMinutes += u.LoggedMinutes
		}
		for name, c := range m.ByClient {
			dst := out.client(name)
			dst.LoggedMinutes += c.LoggedMinutes
			dst.Billable = dst.Billable && c.Billable
		}
	}
	out.Recompute()
	return out
}

// FilterByUnits narrows m to the entries of the given núcleos. Aggregates
// are rebuilt from those entries; each remaining person keeps the
// available minutes m had for them.
func FilterByUnits(m MonthRecord, units []string) MonthRecord {
	keep := make(map[string]bool, len(units))
	for _, u := range units {
		keep[u] = true
	}

	out := NewMonthRecord(m.ID)
	out.Name = m.Name
	for _, e := range m.Entries {
		if keep[e.Unit] {
			out.add(e)
		}
	}
	for key, p := range out.ByPerson {
		if src, ok := m.ByPerson[key]; ok {
			p.AvailableMinutes = src.AvailableMinutes
		}
	}
	for name, c := range out.ByClient {
		if src, ok := m.ByClient[name]; ok {
			c.Billable = src.Billable
		}
	}
	out.Recompute()
	return out
}

// EntriesFor returns person's entries in ingestion order.
func EntriesFor(m MonthRecord, person string) ([]TimeEntry, error) {
	if _, ok := m.ByPerson[person]; !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrPersonNotFound, person, m.Name)
	}
	var out []TimeEntry
	for _, e := range m.Entries {
		if e.Person == person {
			out = append(out, e)
		}
	}
	return out, nil
}
