package api_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/timesheet-analytics/api"
	"github.com/warp/timesheet-analytics/logging"
	"github.com/warp/timesheet-analytics/pipeline"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (c *countingRunner) Run(ctx context.Context) (pipeline.Result, error) {
	c.calls.Add(1)
	return pipeline.Result{RunID: "r"}, c.err
}

func TestIngestScheduler_RunsOnStartAndOnTick(t *testing.T) {
	runner := &countingRunner{}
	s := api.NewIngestScheduler(runner, 10*time.Millisecond, logging.Discard())

	s.Start()
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runner.calls.Load(), "no runs after Stop")
}

func TestIngestScheduler_KeepsGoingAfterFailure(t *testing.T) {
	runner := &countingRunner{err: errors.New("bad workbook")}
	s := api.NewIngestScheduler(runner, 10*time.Millisecond, logging.Discard())

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestIngestScheduler_DisabledWithoutInterval(t *testing.T) {
	runner := &countingRunner{}
	s := api.NewIngestScheduler(runner, 0, logging.Discard())

	assert.False(t, s.Enabled())
	s.Start()
	s.Stop()
	assert.Zero(t, runner.calls.Load())
}
