/*
Package timesheet provides the ingestion core of the timesheet analytics
dashboard.

PURPOSE:
  Turns two loosely structured spreadsheet exports into the aggregated
  month model every dashboard view reads:
  - Analítica: one row per logged time entry (who, client, activity, minutes)
  - Gerencial: available hours per person for the month

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry:   One logged entry, immutable once ingested
  - PersonStat:  Per-person running aggregate for one month
  - UnitStat:    Per-núcleo aggregate
  - ClientStat:  Per-client aggregate
  - MonthRecord: Everything known about one reporting month
  - Document:    The persisted list of months

WIRE FORMAT:
  The JSON tags below are the contract with the dashboard. Field names are
  short and partly Portuguese (byNucleo, faturavel) because the views were
  written against them; do not rename.

DERIVED VALUES:
  MonthRecord.TotalAvailable and TotalLogged are never accumulated while
  ingesting. Call Recompute after both passes.

SEE ALSO:
  - analytic.go:   First pass (entries, persons, units, clients)
  - managerial.go: Second pass (available hours)
  - grouping.go:   File name → month/role detection
  - upsert.go:     Document upsert rules
*/
package timesheet

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultAvailableMinutes is the monthly target assumed for a person
	// until the managerial export says otherwise (168h).
	DefaultAvailableMinutes = 168 * 60

	// FragmentThresholdMinutes marks entries counted as fragmented work.
	FragmentThresholdMinutes = 10

	// DefaultUnit is the núcleo used when the analytic row has none.
	DefaultUnit = "Geral"
)

// =============================================================================
// ENTRIES
// =============================================================================

// TimeEntry is one row of the analytic export.
type TimeEntry struct {
	Person      string  `json:"p"`
	Unit        string  `json:"n"`
	Client      string  `json:"c"`
	Activity    string  `json:"e"`
	Minutes     float64 `json:"t"`
	Description string  `json:"d,omitempty"`
	LagDays     float64 `json:"l,omitempty"`
	LoggedFor   string  `json:"dt,omitempty"`
}

// =============================================================================
// AGGREGATES
// =============================================================================

// PersonStat aggregates a person's month.
type PersonStat struct {
	Name             string  `json:"name"`
	AvailableMinutes float64 `json:"available"`
	LoggedMinutes    float64 `json:"logged"`
	EntryCount       int     `json:"entries"`
	FragmentCount    int     `json:"fragments"`
	FragmentMinutes  float64 `json:"fragmentTime"`
	TotalLagDays     float64 `json:"totalLag"`
	LagEntryCount    int     `json:"lagCount"`
}

// newPersonStat returns the lazily created stat for a first entry.
func newPersonStat(name string) *PersonStat {
	return &PersonStat{Name: name, AvailableMinutes: DefaultAvailableMinutes}
}

// UnitStat aggregates a núcleo.
type UnitStat struct {
	Name          string  `json:"name"`
	LoggedMinutes float64 `json:"logged"`
}

// ClientStat aggregates a client.
type ClientStat struct {
	Name          string  `json:"name"`
	LoggedMinutes float64 `json:"logged"`
	Billable      bool    `json:"faturavel"`
}

// =============================================================================
// MONTH RECORD
// =============================================================================

// MonthRecord is the aggregated model of one reporting month.
//
// personOrder keeps first-seen order of person keys; the managerial
// matcher walks candidates in that order. It is not persisted: records
// loaded from a store fall back to sorted keys.
type MonthRecord struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	TotalAvailable float64                `json:"totalAvailable"`
	TotalLogged    float64                `json:"totalLogged"`
	ByPerson       map[string]*PersonStat `json:"byPerson"`
	ByUnit         map[string]*UnitStat   `json:"byNucleo"`
	ByClient       map[string]*ClientStat `json:"byClient"`
	Entries        []TimeEntry            `json:"rawEntries"`

	personOrder []string
}

// NewMonthRecord returns an empty record whose id and name are label.
func NewMonthRecord(label string) MonthRecord {
	return MonthRecord{
		ID:       label,
		Name:     label,
		ByPerson: make(map[string]*PersonStat),
		ByUnit:   make(map[string]*UnitStat),
		ByClient: make(map[string]*ClientStat),
		Entries:  []TimeEntry{},
	}
}

// PersonKeys returns person keys in first-seen order.
func (m MonthRecord) PersonKeys() []string {
	if len(m.personOrder) == len(m.ByPerson) {
		keys := make([]string, len(m.personOrder))
		copy(keys, m.personOrder)
		return keys
	}
	return sortedKeys(m.ByPerson)
}

// person returns the stat for name, creating it on first use.
func (m *MonthRecord) person(name string) *PersonStat {
	if p, ok := m.ByPerson[name]; ok {
		return p
	}
	p := newPersonStat(name)
	m.ByPerson[name] = p
	m.personOrder = append(m.personOrder, name)
	return p
}

func (m *MonthRecord) unit(name string) *UnitStat {
	u, ok := m.ByUnit[name]
	if !ok {
		u = &UnitStat{Name: name}
		m.ByUnit[name] = u
	}
	return u
}

func (m *MonthRecord) client(name string) *ClientStat {
	c, ok := m.ByClient[name]
	if !ok {
		c = &ClientStat{Name: name, Billable: true}
		m.ByClient[name] = c
	}
	return c
}

// Recompute sets the month totals from ByPerson.
func (m *MonthRecord) Recompute() {
	var logged, available float64
	for _, p := range m.ByPerson {
		logged += p.LoggedMinutes
		available += p.AvailableMinutes
	}
	m.TotalLogged = logged
	m.TotalAvailable = available
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the persisted store: every ingested month in order.
type Document struct {
	Months []MonthRecord `json:"months"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Months: []MonthRecord{}}
}

// Find returns the month whose id or name equals idOrName.
func (d *Document) Find(idOrName string) (MonthRecord, bool) {
	for _, m := range d.Months {
		if m.ID == idOrName || m.Name == idOrName {
			return m, true
		}
	}
	return MonthRecord{}, false
}
