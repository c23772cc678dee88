package timesheet

// Ingest runs the analytic pass: every usable row becomes a TimeEntry and
// is added to the person, núcleo and client aggregates of rec.
//
// Ingest takes ownership of rec and returns it; callers compose the two
// passes as Enrich(Ingest(NewMonthRecord(label), analyticRows), targetRows).
// Rows without person, client or activity are skipped without error.
func Ingest(rec MonthRecord, rows []Row) MonthRecord {
	if rec.ByPerson == nil {
		rec = withMaps(rec)
	}
	for _, row := range rows {
		entry, ok := EntryFromRow(row)
		if !ok {
			continue
		}
		rec.add(entry)
	}
	return rec
}

// EntryFromRow maps an analytic row to a TimeEntry. ok is false when the
// row lacks person, client or activity.
func EntryFromRow(row Row) (TimeEntry, bool) {
	cols := AnalyticColumns

	entry := TimeEntry{
		Person:      cols.Text(row, FieldPerson),
		Client:      cols.Text(row, FieldClient),
		Unit:        cols.Text(row, FieldUnit),
		Activity:    cols.Text(row, FieldActivity),
		Description: cols.Text(row, FieldDescription),
	}
	if entry.Unit == "" {
		entry.Unit = DefaultUnit
	}
	if c, ok := cols.Extract(row, FieldMinutes); ok {
		entry.Minutes = c.Float()
	}
	if c, ok := cols.Extract(row, FieldLag); ok {
		entry.LagDays = c.Float()
	}
	if c, ok := cols.Extract(row, FieldDate); ok {
		entry.LoggedFor = ToDisplayDate(c)
	}

	if entry.Person == "" || entry.Client == "" || entry.Activity == "" {
		return TimeEntry{}, false
	}
	return entry, true
}

// add appends e and folds it into the aggregates.
func (m *MonthRecord) add(e TimeEntry) {
	m.Entries = append(m.Entries, e)

	p := m.person(e.Person)
	p.LoggedMinutes += e.Minutes
	p.EntryCount++
	p.TotalLagDays += e.LagDays
	p.LagEntryCount++
	if e.Minutes < FragmentThresholdMinutes {
		p.FragmentCount++
		p.FragmentMinutes += e.Minutes
	}

	m.unit(e.Unit).LoggedMinutes += e.Minutes
	m.client(e.Client).LoggedMinutes += e.Minutes
}

func withMaps(rec MonthRecord) MonthRecord {
	fresh := NewMonthRecord(rec.ID)
	fresh.Name = rec.Name
	return fresh
}
