/*
Package pipeline runs one ingestion pass over the uploads directory.

PURPOSE:
  Scans the uploads directory, pairs analytic and managerial workbooks by
  month, builds a fresh MonthRecord for each month, upserts it into the
  stored document and saves the document once.

FLOW (per run):
  1. Create the uploads directory if missing; no spreadsheets → nothing
     to do, the store is not touched
  2. Load the document (invalid store → fatal)
  3. GroupFiles; report files without a month and slot collisions
  4. For each month in first-seen order:
       no analytic file      → skip, reported
       analytic rows         → Ingest into an empty record
       managerial rows       → Enrich, or keep default hours (reported)
       Recompute totals, Upsert
  5. Save once, record the run, publish one event per month

ERRORS:
  Unreadable workbook or invalid store aborts the run before Save, so the
  stored document is never half updated. Everything else is a Warning in
  the Result.

SEE ALSO:
  - timesheet/grouping.go: Month and role detection
  - api/scheduler.go: Periodic runs in serve mode
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/timesheet-analytics/notify"
	"github.com/warp/timesheet-analytics/observability"
	"github.com/warp/timesheet-analytics/spreadsheet"
	"github.com/warp/timesheet-analytics/timesheet"
)

// ReadFunc reads the first sheet of a workbook.
type ReadFunc func(path string) ([]timesheet.Row, error)

// Pipeline holds the collaborators of an ingestion run. Only UploadsDir
// and Store are required.
type Pipeline struct {
	UploadsDir string
	Store      timesheet.MonthStore
	Publisher  notify.Publisher
	Metrics    *observability.Metrics
	Log        logrus.FieldLogger

	// Read defaults to spreadsheet.ReadFile.
	Read ReadFunc
	// Now defaults to time.Now.
	Now func() time.Time

	// runs never overlap; the scheduler and the API share one Pipeline
	mu sync.Mutex
}

// MonthResult is what happened to one month.
type MonthResult struct {
	Label      string                 `json:"label"`
	Action     timesheet.UpsertAction `json:"action"`
	Entries    int                    `json:"entries"`
	Persons    int                    `json:"persons"`
	Analytic   string                 `json:"analyticFile"`
	Managerial string                 `json:"managerialFile,omitempty"`
}

// Result summarizes a run.
type Result struct {
	RunID    string              `json:"runId"`
	Months   []MonthResult       `json:"months"`
	Warnings []timesheet.Warning `json:"warnings"`
	Saved    bool                `json:"saved"`
}

// Labels returns the labels of written months.
func (r Result) Labels() []string {
	labels := make([]string, len(r.Months))
	for i, m := range r.Months {
		labels[i] = m.Label
	}
	return labels
}

// Run performs one ingestion pass.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	started := now()
	res := Result{RunID: uuid.NewString()}
	log := p.logger().WithFields(logrus.Fields{"component": "pipeline", "run_id": res.RunID})
	log.Info("starting ingestion")

	p.recordRun(ctx, log, timesheet.RunRecord{ID: res.RunID, StartedAt: started, Status: timesheet.RunRunning})

	err := p.run(ctx, log, &res)

	status := timesheet.RunCompleted
	errText := ""
	if err != nil {
		status = timesheet.RunFailed
		errText = err.Error()
		log.WithError(err).Error("ingestion failed")
	} else {
		log.WithFields(logrus.Fields{"months": len(res.Months), "warnings": len(res.Warnings)}).Info("ingestion finished")
	}
	completed := now()
	p.recordRun(ctx, log, timesheet.RunRecord{
		ID:           res.RunID,
		StartedAt:    started,
		CompletedAt:  &completed,
		Status:       status,
		Months:       res.Labels(),
		WarningCount: len(res.Warnings),
		Error:        errText,
	})
	p.Metrics.RunFinished(status, completed.Sub(started))
	return res, err
}

func (p *Pipeline) run(ctx context.Context, log logrus.FieldLogger, res *Result) error {
	files, err := p.listSpreadsheets()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.WithField("dir", p.UploadsDir).Warn("no spreadsheets found")
		return nil
	}

	doc, err := p.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	grouping := timesheet.GroupFiles(files)
	p.warn(log, res, grouping.Warnings...)
	log.WithField("groups", grouping.Labels()).Info("months identified")

	type written struct {
		rec    timesheet.MonthRecord
		action timesheet.UpsertAction
	}
	var months []written

	for _, mf := range grouping.Months {
		if err := ctx.Err(); err != nil {
			return err
		}
		mlog := log.WithField("month", mf.Label)

		if mf.Analytic == "" {
			p.warn(mlog, res, timesheet.Warning{
				Kind:   timesheet.WarnMissingAnalytic,
				Month:  mf.Label,
				File:   mf.Managerial,
				Detail: "analytic spreadsheet not found, month skipped",
			})
			continue
		}

		rec, err := p.buildMonth(mlog, res, mf)
		if err != nil {
			return err
		}

		action, _ := doc.Upsert(rec)
		mlog.WithFields(logrus.Fields{"action": action, "entries": len(rec.Entries)}).Info("month upserted")
		months = append(months, written{rec: rec, action: action})
		res.Months = append(res.Months, MonthResult{
			Label:      mf.Label,
			Action:     action,
			Entries:    len(rec.Entries),
			Persons:    len(rec.ByPerson),
			Analytic:   mf.Analytic,
			Managerial: mf.Managerial,
		})
	}

	if err := p.Store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	res.Saved = true
	log.Info("store updated")

	events := make([]notify.MonthIngested, 0, len(months))
	at := p.now()()
	for _, m := range months {
		p.Metrics.MonthWritten(m.action, len(m.rec.Entries))
		events = append(events, notify.NewMonthIngested(res.RunID, m.rec, m.action, at))
	}
	if p.Publisher != nil {
		if err := p.Publisher.Publish(ctx, events...); err != nil {
			p.Metrics.PublishFailed()
			log.WithError(err).Warn("month events not published")
		}
	}
	return nil
}

// buildMonth composes Enrich(Ingest(empty, analytic), managerial).
func (p *Pipeline) buildMonth(log logrus.FieldLogger, res *Result, mf timesheet.MonthFiles) (timesheet.MonthRecord, error) {
	log.WithField("file", mf.Analytic).Info("reading analytic spreadsheet")
	rows, err := p.read(mf.Analytic)
	if err != nil {
		return timesheet.MonthRecord{}, err
	}
	rec := timesheet.Ingest(timesheet.NewMonthRecord(mf.Label), rows)

	if mf.Managerial == "" {
		p.warn(log, res, timesheet.Warning{
			Kind:   timesheet.WarnMissingManagerial,
			Month:  mf.Label,
			Detail: fmt.Sprintf("managerial spreadsheet not found, using %dh per person", timesheet.DefaultAvailableMinutes/60),
		})
	} else {
		log.WithField("file", mf.Managerial).Info("reading managerial spreadsheet")
		targets, err := p.read(mf.Managerial)
		if err != nil {
			return timesheet.MonthRecord{}, err
		}
		var warnings []timesheet.Warning
		rec, warnings = timesheet.Enrich(rec, targets)
		for i := range warnings {
			warnings[i].File = mf.Managerial
		}
		p.warn(log, res, warnings...)
	}

	rec.Recompute()
	return rec, nil
}

func (p *Pipeline) read(name string) ([]timesheet.Row, error) {
	read := p.Read
	if read == nil {
		read = spreadsheet.ReadFile
	}
	return read(filepath.Join(p.UploadsDir, name))
}

func (p *Pipeline) listSpreadsheets() ([]string, error) {
	if err := os.MkdirAll(p.UploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	entries, err := os.ReadDir(p.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("list uploads dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !timesheet.IsSpreadsheet(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

func (p *Pipeline) warn(log logrus.FieldLogger, res *Result, warnings ...timesheet.Warning) {
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, w)
		p.Metrics.Warning(w.Kind)
		log.WithField("kind", w.Kind).Warn(w.String())
	}
}

func (p *Pipeline) recordRun(ctx context.Context, log logrus.FieldLogger, run timesheet.RunRecord) {
	recorder, ok := p.Store.(timesheet.RunRecorder)
	if !ok {
		return
	}
	if err := recorder.SaveRun(ctx, run); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("run ledger not updated")
	}
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

func (p *Pipeline) now() func() time.Time {
	if p.Now == nil {
		return time.Now
	}
	return p.Now
}
