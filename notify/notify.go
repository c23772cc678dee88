/*
Package notify publishes an event for every month an ingestion run writes.

PURPOSE:
  Downstream consumers (dashboards caching data.json, reporting jobs)
  learn about new month data without polling the store. Publishing is
  best effort: a failure is logged and counted, never fatal for the run.

IMPLEMENTATIONS:
  Noop:           events disabled (no brokers configured)
  KafkaPublisher: one message per month, keyed by month id
  Recorder:       keeps events in memory (tests)
*/
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/warp/timesheet-analytics/timesheet"
)

// MonthIngested is emitted once per upserted month.
type MonthIngested struct {
	RunID          string                 `json:"runId"`
	MonthID        string                 `json:"monthId"`
	Name           string                 `json:"name"`
	Action         timesheet.UpsertAction `json:"action"`
	TotalAvailable float64                `json:"totalAvailable"`
	TotalLogged    float64                `json:"totalLogged"`
	Persons        int                    `json:"persons"`
	Entries        int                    `json:"entries"`
	IngestedAt     time.Time              `json:"ingestedAt"`
}

// NewMonthIngested describes rec as written by run.
func NewMonthIngested(runID string, rec timesheet.MonthRecord, action timesheet.UpsertAction, at time.Time) MonthIngested {
	return MonthIngested{
		RunID:          runID,
		MonthID:        rec.ID,
		Name:           rec.Name,
		Action:         action,
		TotalAvailable: rec.TotalAvailable,
		TotalLogged:    rec.TotalLogged,
		Persons:        len(rec.ByPerson),
		Entries:        len(rec.Entries),
		IngestedAt:     at.UTC(),
	}
}

// Publisher delivers month events.
type Publisher interface {
	Publish(ctx context.Context, events ...MonthIngested) error
	Close() error
}

// =============================================================================
// NOOP
// =============================================================================

type Noop struct{}

func (Noop) Publish(context.Context, ...MonthIngested) error { return nil }
func (Noop) Close() error                                    { return nil }

// =============================================================================
// KAFKA
// =============================================================================

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by month id, so all
// versions of a month land on the same partition in order.
type KafkaPublisher struct {
	w MessageWriter
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 50 * time.Millisecond,
	})
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...MonthIngested) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event for %s: %w", ev.MonthID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(timesheet.MonthKey(ev.MonthID)),
			Value: value,
			Time:  ev.IngestedAt,
			Headers: []kafka.Header{
				{Key: "run-id", Value: []byte(ev.RunID)},
				{Key: "action", Value: []byte(ev.Action)},
			},
		})
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d month events: %w", len(msgs), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []MonthIngested
	Err    error
}

func (r *Recorder) Publish(_ context.Context, events ...MonthIngested) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []MonthIngested {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MonthIngested(nil), r.events...)
}
