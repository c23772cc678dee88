package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-analytics/notify"
	"github.com/warp/timesheet-analytics/timesheet"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func sampleMonth() timesheet.MonthRecord {
	rec := timesheet.Ingest(timesheet.NewMonthRecord("Março"), []timesheet.Row{
		timesheet.RowOf(map[string]any{"Nome": "Ana", "Cliente": "X", "Task": "T", "Time": 30}),
		timesheet.RowOf(map[string]any{"Nome": "Bia", "Cliente": "X", "Task": "T", "Time": 5}),
	})
	rec.Recompute()
	return rec
}

func TestKafkaPublisher_OneMessagePerMonth(t *testing.T) {
	w := &fakeWriter{}
	p := notify.NewKafkaPublisherWithWriter(w)
	at := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

	ev := notify.NewMonthIngested("run-1", sampleMonth(), timesheet.ActionInserted, at)
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "marco", string(w.msgs[0].Key))

	var decoded notify.MonthIngested
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "Março", decoded.MonthID)
	assert.Equal(t, 2, decoded.Persons)
	assert.Equal(t, 2, decoded.Entries)
	assert.Equal(t, float64(35), decoded.TotalLogged)
	assert.Equal(t, timesheet.ActionInserted, decoded.Action)
}

func TestKafkaPublisher_EmptyIsNoop(t *testing.T) {
	w := &fakeWriter{err: errors.New("unreachable")}
	assert.NoError(t, notify.NewKafkaPublisherWithWriter(w).Publish(context.Background()))
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	cause := errors.New("broker down")
	p := notify.NewKafkaPublisherWithWriter(&fakeWriter{err: cause})
	err := p.Publish(context.Background(), notify.NewMonthIngested("r", sampleMonth(), timesheet.ActionUpdated, time.Now()))
	assert.ErrorIs(t, err, cause)
}

func TestRecorder(t *testing.T) {
	r := &notify.Recorder{}
	ev := notify.NewMonthIngested("r", sampleMonth(), timesheet.ActionUpdated, time.Now())
	require.NoError(t, r.Publish(context.Background(), ev, ev))
	assert.Len(t, r.Events(), 2)
}
