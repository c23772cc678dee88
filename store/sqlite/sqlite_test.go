package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-analytics/store/sqlite"
	"github.com/warp/timesheet-analytics/timesheet"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func month(label string, person string, minutes float64) timesheet.MonthRecord {
	rec := timesheet.Ingest(timesheet.NewMonthRecord(label), []timesheet.Row{
		timesheet.RowOf(map[string]any{"Nome": person, "Cliente": "X", "Task": "T", "Time": minutes}),
	})
	rec.Recompute()
	return rec
}

// =============================================================================
// MONTH STORE
// =============================================================================

func TestLoad_EmptyDatabase(t *testing.T) {
	doc, err := newTestStore(t).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Months)
}

func TestSave_KeepsOrderAndReplaces(t *testing.T) {
	// GIVEN: a stored document with two months
	store := newTestStore(t)
	ctx := context.Background()

	doc := timesheet.NewDocument()
	doc.Upsert(month("Novembro", "Ana", 30))
	doc.Upsert(month("Dezembro", "Bia", 60))
	require.NoError(t, store.Save(ctx, doc))

	// WHEN: Novembro is re-ingested and saved again
	doc.Upsert(month("Novembro", "Ana", 90))
	require.NoError(t, store.Save(ctx, doc))

	// THEN: order is kept and Novembro carries the new totals only
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Months, 2)
	assert.Equal(t, "Novembro", loaded.Months[0].ID)
	assert.Equal(t, "Dezembro", loaded.Months[1].ID)
	assert.Equal(t, float64(90), loaded.Months[0].TotalLogged)
	assert.Len(t, loaded.Months[0].Entries, 1)
}

// =============================================================================
// RUN LEDGER
// =============================================================================

func TestRuns_UpsertAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)

	run := timesheet.RunRecord{ID: "run-1", StartedAt: started, Status: timesheet.RunRunning}
	require.NoError(t, store.SaveRun(ctx, run))

	done := started.Add(2 * time.Second)
	run.CompletedAt = &done
	run.Status = timesheet.RunCompleted
	run.Months = []string{"Dezembro"}
	run.WarningCount = 2
	require.NoError(t, store.SaveRun(ctx, run))

	older := timesheet.RunRecord{ID: "run-0", StartedAt: started.Add(-time.Hour), Status: timesheet.RunFailed, Error: "boom"}
	require.NoError(t, store.SaveRun(ctx, older))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, timesheet.RunCompleted, runs[0].Status)
	assert.Equal(t, []string{"Dezembro"}, runs[0].Months)
	assert.Equal(t, 2, runs[0].WarningCount)
	require.NotNil(t, runs[0].CompletedAt)
	assert.True(t, done.Equal(*runs[0].CompletedAt))
	assert.Equal(t, "boom", runs[1].Error)
}

func TestListRuns_OrdersBySubsecondStart(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 5, 10, 0, 5, 0, time.UTC)

	// GIVEN: two runs 20ms apart whose fractional seconds differ in length
	require.NoError(t, store.SaveRun(ctx, timesheet.RunRecord{ID: "first", StartedAt: base.Add(100 * time.Millisecond), Status: timesheet.RunCompleted}))
	require.NoError(t, store.SaveRun(ctx, timesheet.RunRecord{ID: "second", StartedAt: base.Add(120 * time.Millisecond), Status: timesheet.RunCompleted}))

	// WHEN: listing
	runs, err := store.ListRuns(ctx, 10)

	// THEN: the later start comes first and times round-trip exactly
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].ID)
	assert.Equal(t, "first", runs[1].ID)
	assert.True(t, base.Add(120*time.Millisecond).Equal(runs[0].StartedAt))
}
