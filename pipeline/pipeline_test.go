package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-analytics/logging"
	"github.com/warp/timesheet-analytics/notify"
	"github.com/warp/timesheet-analytics/observability"
	"github.com/warp/timesheet-analytics/pipeline"
	"github.com/warp/timesheet-analytics/spreadsheet/spreadsheettest"
	"github.com/warp/timesheet-analytics/store/jsonfile"
	"github.com/warp/timesheet-analytics/store/memory"
	"github.com/warp/timesheet-analytics/timesheet"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	dir       string
	store     *memory.Store
	publisher *notify.Recorder
	pipeline  *pipeline.Pipeline
}

func newFixture(t *testing.T) *fixture {
	dir := filepath.Join(t.TempDir(), "uploads")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	clock := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	f := &fixture{dir: dir, store: memory.New(), publisher: &notify.Recorder{}}
	f.pipeline = &pipeline.Pipeline{
		UploadsDir: dir,
		Store:      f.store,
		Publisher:  f.publisher,
		Metrics:    observability.NewMetrics(),
		Log:        logging.Discard(),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	return f
}

func (f *fixture) analytic(t *testing.T, name string, rows ...[]any) {
	spreadsheettest.WriteXLSX(t, f.dir, name, spreadsheettest.AnalyticHeader, rows...)
}

func (f *fixture) managerial(t *testing.T, name string, rows ...[]any) {
	spreadsheettest.WriteXLSX(t, f.dir, name, spreadsheettest.ManagerialHeader, rows...)
}

func (f *fixture) load(t *testing.T) *timesheet.Document {
	doc, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return doc
}

// =============================================================================
// RUNS
// =============================================================================

func TestRun_IngestsAndEnrichesMonth(t *testing.T) {
	// GIVEN: a December analytic and managerial pair
	f := newFixture(t)
	f.analytic(t, "Analitico - Dezembro.xlsx",
		[]any{"Ana Maria Silva", "Cliente A", "Dev", "Task", 30, "", 45366, 2},
		[]any{"Ana Maria Silva", "Cliente A", "Dev", "Task", 5, "", 45366, 0},
		[]any{"Bruno", "Cliente B", "", "Task", 60, "", "", ""},
	)
	f.managerial(t, "Gerencial - Dezembro.xlsx",
		[]any{"Ana Maria", "160h30min"},
		[]any{"Zeca", "100"},
	)

	// WHEN
	res, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	// THEN: one inserted month with enriched and default availability
	require.Len(t, res.Months, 1)
	assert.Equal(t, "Dezembro", res.Months[0].Label)
	assert.Equal(t, timesheet.ActionInserted, res.Months[0].Action)
	assert.True(t, res.Saved)

	doc := f.load(t)
	require.Len(t, doc.Months, 1)
	month := doc.Months[0]
	assert.Equal(t, float64(95), month.TotalLogged)
	assert.Equal(t, float64(9630), month.ByPerson["Ana Maria Silva"].AvailableMinutes)
	assert.Equal(t, float64(timesheet.DefaultAvailableMinutes), month.ByPerson["Bruno"].AvailableMinutes)
	assert.Equal(t, float64(9630+timesheet.DefaultAvailableMinutes), month.TotalAvailable)
	assert.Equal(t, 1, month.ByPerson["Ana Maria Silva"].FragmentCount)
	assert.Equal(t, "15/03/2024", month.Entries[0].LoggedFor)

	// Zeca matched nobody
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, timesheet.WarnUnmatchedTarget, res.Warnings[0].Kind)
	assert.Equal(t, "Gerencial - Dezembro.xlsx", res.Warnings[0].File)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, res.RunID, events[0].RunID)
	assert.Equal(t, "Dezembro", events[0].MonthID)
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.analytic(t, "Analitico - Novembro.xlsx", []any{"Ana", "X", "Dev", "Task", 30})
	f.managerial(t, "Gerencial - Novembro.xlsx", []any{"Ana", "100"})
	ctx := context.Background()

	_, err := f.pipeline.Run(ctx)
	require.NoError(t, err)
	first := f.load(t)

	res, err := f.pipeline.Run(ctx)
	require.NoError(t, err)
	second := f.load(t)

	assert.Equal(t, timesheet.ActionUpdated, res.Months[0].Action)
	require.Len(t, second.Months, len(first.Months))
	for i := range first.Months {
		assert.Equal(t, first.Months[i].TotalLogged, second.Months[i].TotalLogged)
		assert.Equal(t, first.Months[i].TotalAvailable, second.Months[i].TotalAvailable)
		assert.Len(t, second.Months[i].Entries, len(first.Months[i].Entries))
	}
}

func TestRun_KeepsOtherMonths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := timesheet.NewMonthRecord("Outubro")
	older.Recompute()
	doc := timesheet.NewDocument()
	doc.Upsert(older)
	require.NoError(t, f.store.Save(ctx, doc))

	f.analytic(t, "Novembro_Analitica.xlsx", []any{"Ana", "X", "Dev", "Task", 30})
	_, err := f.pipeline.Run(ctx)
	require.NoError(t, err)

	stored := f.load(t)
	require.Len(t, stored.Months, 2)
	assert.Equal(t, "Outubro", stored.Months[0].ID)
	assert.Equal(t, "Novembro", stored.Months[1].ID)
}

func TestRun_ReportsFileLevelConditions(t *testing.T) {
	// GIVEN: a month without analytic, a month without managerial, a file
	// without a month, a lock file and a stray text file
	f := newFixture(t)
	f.managerial(t, "Gerencial - Janeiro.xlsx", []any{"Ana", "100"})
	f.analytic(t, "Analitico - Fevereiro.xlsx", []any{"Ana", "X", "Dev", "Task", 30})
	f.analytic(t, "export_final.xlsx", []any{"Ana", "X", "Dev", "Task", 30})
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "~$Analitico - Fevereiro.xlsx"), []byte("lock"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "notes.txt"), []byte("x"), 0o644))

	// WHEN
	res, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	// THEN: only February is written
	assert.Equal(t, []string{"Fevereiro"}, res.Labels())
	kinds := make([]timesheet.WarningKind, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.ElementsMatch(t, []timesheet.WarningKind{
		timesheet.WarnNoMonthInName,
		timesheet.WarnMissingAnalytic,
		timesheet.WarnMissingManagerial,
	}, kinds)

	doc := f.load(t)
	require.Len(t, doc.Months, 1)
	assert.Equal(t, "Fevereiro", doc.Months[0].ID)
}

func TestRun_EmptyDirectoryLeavesStoreAlone(t *testing.T) {
	f := newFixture(t)
	f.pipeline.UploadsDir = filepath.Join(f.dir, "missing")

	res, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Saved)
	assert.Zero(t, f.store.Saves())
	assert.DirExists(t, f.pipeline.UploadsDir)
}

// =============================================================================
// FATAL CONDITIONS
// =============================================================================

func TestRun_UnreadableWorkbookAborts(t *testing.T) {
	f := newFixture(t)
	f.analytic(t, "Analitico - Março.xlsx", []any{"Ana", "X", "Dev", "Task", 30})
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "Analitico - Abril.xlsx"), []byte("not a workbook"), 0o644))

	res, err := f.pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, timesheet.ErrUnreadableWorkbook)
	assert.True(t, timesheet.IsFatal(err))
	assert.False(t, res.Saved)
	assert.Zero(t, f.store.Saves())
	assert.Empty(t, f.publisher.Events())
}

func TestRun_InvalidStoreAborts(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	f.pipeline.Store = jsonfile.New(path)
	f.analytic(t, "Analitico - Maio.xlsx", []any{"Ana", "X", "Dev", "Task", 30})

	_, err := f.pipeline.Run(context.Background())

	assert.ErrorIs(t, err, timesheet.ErrInvalidStore)
	raw, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "{broken", string(raw))
}

// =============================================================================
// RUN LEDGER
// =============================================================================

func TestRun_RecordsLedger(t *testing.T) {
	f := newFixture(t)
	f.analytic(t, "Analitico - Junho.xlsx", []any{"Ana", "X", "Dev", "Task", 30})
	ctx := context.Background()

	res, err := f.pipeline.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "Analitico - Julho.xlsx"), []byte("bad"), 0o644))
	_, err = f.pipeline.Run(ctx)
	require.Error(t, err)

	runs, err := f.store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, timesheet.RunFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
	assert.Equal(t, res.RunID, runs[1].ID)
	assert.Equal(t, timesheet.RunCompleted, runs[1].Status)
	assert.Equal(t, []string{"Junho"}, runs[1].Months)
	assert.Equal(t, 1, runs[1].WarningCount)
	require.NotNil(t, runs[1].CompletedAt)
}
