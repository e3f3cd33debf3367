package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestEmitterDeliversToSinks(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(16, sink)

	em.Emit(Event{Type: TypeQueryStart, Agent: "alpha"})
	em.Emit(Event{Type: TypeAgentCommunication, Agent: "alpha", TargetAgent: "beta", LatencyMS: 12})
	em.Close()

	got := sink.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != TypeQueryStart || got[0].Agent != "alpha" {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].TargetAgent != "beta" || got[1].LatencyMS != 12 {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
}

func TestEmitterStampsTimestamp(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	sink := &captureSink{}
	em := NewEmitter(4, sink)
	em.now = func() time.Time { return fixed }

	em.Emit(Event{Type: TypeQueryComplete, Agent: "alpha"})
	em.Close()

	got := sink.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, got[0].Timestamp)
	}
}

func TestEmitAfterCloseDrops(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(4, sink)
	em.Emit(Event{Type: TypeQueryStart, Agent: "alpha"})
	em.Close()

	// A background task finishing after shutdown must not crash.
	em.Emit(Event{Type: TypeQueryComplete, Agent: "alpha"})
	em.Emit(Event{Type: TypeAgentCommunication, Agent: "alpha", TargetAgent: "beta"})

	if got := em.DroppedCount(); got != 2 {
		t.Fatalf("expected 2 dropped events after close, got %d", got)
	}
	if got := sink.all(); len(got) != 1 {
		t.Fatalf("expected only the pre-close event delivered, got %d", len(got))
	}

	// Closing again is a no-op.
	em.Close()
}

// blockSink blocks publishes until released so the emitter buffer fills.
type blockSink struct {
	release chan struct{}
}

func (s *blockSink) Publish(context.Context, Event) error {
	<-s.release
	return nil
}

func TestEmitterDropsOnBackpressure(t *testing.T) {
	sink := &blockSink{release: make(chan struct{})}
	em := NewEmitter(1, sink)

	// First event occupies the drain goroutine, second fills the buffer,
	// the rest must be dropped.
	for range 5 {
		em.Emit(Event{Type: TypeQueryStart, Agent: "alpha"})
	}

	deadline := time.Now().Add(time.Second)
	for em.DroppedCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if em.DroppedCount() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}

	close(sink.release)
	em.Close()
}
