/*
scheduler.go - Periodic ingestion scheduler

PURPOSE:
  In serve mode, re-runs the ingestion pipeline on a fixed interval so
  spreadsheets dropped into the uploads directory reach the dashboard
  without anyone calling POST /api/ingest.

DESIGN:
  - Runs a background goroutine with a ticker
  - Runs once immediately on Start
  - A failed run is logged and the next tick tries again; nothing is
    retried in between
  - Stop cancels an in-flight run and waits for the goroutine

CONFIGURATION:
  - Interval: TIMESHEET_INGEST_INTERVAL_MINUTES (0 disables the scheduler)

USAGE:
  scheduler := NewIngestScheduler(pipeline, interval, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerIngest endpoint (manual ingestion)
  - pipeline/pipeline.go: The run itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/timesheet-analytics/pipeline"
)

// Runner is the part of pipeline.Pipeline the scheduler uses.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// IngestScheduler runs ingestion periodically.
type IngestScheduler struct {
	Runner   Runner
	Interval time.Duration
	Log      logrus.FieldLogger

	ticker *time.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewIngestScheduler creates a scheduler; interval <= 0 leaves it disabled.
func NewIngestScheduler(runner Runner, interval time.Duration, log logrus.FieldLogger) *IngestScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &IngestScheduler{
		Runner:   runner,
		Interval: interval,
		Log:      log.WithField("component", "scheduler"),
	}
}

// Enabled reports whether Start will do anything.
func (s *IngestScheduler) Enabled() bool {
	return s.Interval > 0 && s.Runner != nil
}

// Start begins the scheduler.
func (s *IngestScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled() {
		s.Log.Info("scheduler disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)

	go s.run(ctx, s.ticker.C)

	s.Log.WithField("interval", s.Interval.String()).Info("scheduler started")
}

// Stop stops the scheduler.
func (s *IngestScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.cancel()
	s.wg.Wait()
	s.ticker = nil
	s.Log.Info("scheduler stopped")
}

func (s *IngestScheduler) run(ctx context.Context, tick <-chan time.Time) {
	defer s.wg.Done()

	// Run immediately on start
	s.ingest(ctx)

	for {
		select {
		case <-tick:
			s.ingest(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *IngestScheduler) ingest(ctx context.Context) {
	res, err := s.Runner.Run(ctx)
	if err != nil {
		s.Log.WithError(err).Error("scheduled ingestion failed")
		return
	}
	s.Log.WithFields(logrus.Fields{
		"run_id":   res.RunID,
		"months":   len(res.Months),
		"warnings": len(res.Warnings),
	}).Info("scheduled ingestion completed")
}
