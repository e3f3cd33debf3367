// Package events emits CommunicationEvents for observability. Events are
// never consulted for control decisions: emission is non-blocking and
// drops on backpressure, and sink failures are swallowed.
package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Type classifies a communication event.
type Type string

const (
	TypeQueryStart         Type = "query_start"
	TypeQueryComplete      Type = "query_complete"
	TypeQueryError         Type = "query_error"
	TypeAgentCommunication Type = "agent_communication"
)

// Event records one observable step of agent activity.
type Event struct {
	Type        Type      `json:"type"`
	Agent       string    `json:"agent"`
	TargetAgent string    `json:"targetAgent,omitempty"`
	LatencyMS   int64     `json:"latencyMs,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Sink receives published events. Publish errors are logged at debug level
// and otherwise ignored.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Emitter fans events out to its sinks from a background goroutine. Emit
// never blocks and never panics: when the buffer is full, or the emitter
// is already closed, the event is dropped and counted.
type Emitter struct {
	ch      chan Event
	sinks   []Sink
	wg      sync.WaitGroup
	dropped atomic.Int64
	now     func() time.Time // for testing

	mu     sync.RWMutex
	closed bool
}

// NewEmitter creates an emitter with the given buffer size and starts its
// drain goroutine.
func NewEmitter(bufferSize int, sinks ...Sink) *Emitter {
	if bufferSize < 1 {
		bufferSize = 1
	}
	e := &Emitter{
		ch:    make(chan Event, bufferSize),
		sinks: sinks,
		now:   time.Now,
	}
	e.wg.Add(1)
	go e.drain()
	return e
}

func (e *Emitter) drain() {
	defer e.wg.Done()
	for ev := range e.ch {
		for _, s := range e.sinks {
			if err := s.Publish(context.Background(), ev); err != nil {
				slog.Debug("event sink publish failed", "type", ev.Type, "error", err)
			}
		}
	}
}

// Emit enqueues an event, stamping the timestamp when unset. Drops the
// event if the buffer is full or the emitter has been closed; background
// work racing shutdown must never crash on an observability call.
func (e *Emitter) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now().UTC()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.dropped.Add(1)
		return
	}
	select {
	case e.ch <- ev:
	default:
		e.dropped.Add(1)
	}
}

// DroppedCount returns the number of events dropped on backpressure.
func (e *Emitter) DroppedCount() int64 {
	return e.dropped.Load()
}

// Close flushes buffered events and stops the drain goroutine. Emit calls
// arriving afterwards are dropped. Close is idempotent.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	close(e.ch)
	e.wg.Wait()
}

// LogSink writes events to the structured log at debug level.
type LogSink struct{}

// Publish implements Sink.
func (LogSink) Publish(_ context.Context, ev Event) error {
	slog.Debug("communication event",
		"type", ev.Type,
		"agent", ev.Agent,
		"target_agent", ev.TargetAgent,
		"latency_ms", ev.LatencyMS,
	)
	return nil
}
