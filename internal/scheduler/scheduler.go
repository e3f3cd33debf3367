// Package scheduler routes incoming queries between inline (sync) and
// background (async) execution and owns the task lifecycle.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentLink/internal/config"
	"github.com/Strob0t/AgentLink/internal/domain"
	"github.com/Strob0t/AgentLink/internal/domain/task"
	"github.com/Strob0t/AgentLink/internal/events"
	"github.com/Strob0t/AgentLink/internal/telemetry"
)

// Handler executes one query for a capability. The signature matches the
// registry's handler type so registered handlers can be passed through
// directly.
type Handler func(ctx context.Context, query string) (string, error)

// Scheduler dispatches queries inline or as background tasks depending on
// the classifier's verdict. Tasks cannot be cancelled: once started they
// run to a terminal state (bounded by the async timeout).
type Scheduler struct {
	classifier   Classifier
	store        *taskStore
	syncTimeout  time.Duration
	asyncTimeout time.Duration
	agentName    string
	tracer       *telemetry.SpanManager
	metrics      *telemetry.Metrics
	emitter      *events.Emitter
	now          func() time.Time // for testing
}

// New creates a scheduler. A nil classifier gets the default keyword
// heuristic; nil metrics or emitter disables the respective recording.
// Terminal query events are emitted here, not by the HTTP layer, so an
// async task's eventual failure still reaches the event stream.
func New(cfg config.Scheduler, agentName string, classifier Classifier, tracer *telemetry.SpanManager, metrics *telemetry.Metrics, emitter *events.Emitter) (*Scheduler, error) {
	if classifier == nil {
		classifier = KeywordClassifier{MaxSyncLen: cfg.SyncMaxLen}
	}
	store, err := newTaskStore(cfg.TaskTTL)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		classifier:   classifier,
		store:        store,
		syncTimeout:  cfg.SyncTimeout,
		asyncTimeout: cfg.AsyncTimeout,
		agentName:    agentName,
		tracer:       tracer,
		metrics:      metrics,
		emitter:      emitter,
		now:          time.Now,
	}, nil
}

// Classify exposes the classifier's verdict for a query.
func (s *Scheduler) Classify(query string) Mode {
	return s.classifier.Classify(query)
}

// Dispatch runs the query through its classified mode. For sync queries
// the response string is returned directly; for async queries a pending
// task is returned immediately and the handler runs in the background.
func (s *Scheduler) Dispatch(ctx context.Context, capability string, handler Handler, query string) (string, *task.Task, error) {
	switch s.classifier.Classify(query) {
	case ModeSync:
		resp, err := s.ExecuteSync(ctx, capability, handler, query)
		return resp, nil, err
	default:
		t := s.Submit(capability, handler, query)
		return "", t, nil
	}
}

// ExecuteSync runs the handler inline under the sync timeout. Exceeding
// the timeout is a failure of this request; there is no fallback to a
// background task. The deadline holds even against handlers that ignore
// their context.
func (s *Scheduler) ExecuteSync(ctx context.Context, capability string, handler Handler, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	start := s.now()
	var resp string
	err := s.tracer.WithSpan(ctx, "query.sync",
		telemetry.MessageAttrs(s.agentName, "", capability),
		func(ctx context.Context) error {
			type outcome struct {
				resp string
				err  error
			}
			done := make(chan outcome, 1)
			go func() {
				r, runErr := s.run(ctx, capability, handler, query)
				done <- outcome{resp: r, err: runErr}
			}()
			select {
			case out := <-done:
				resp = out.resp
				return out.err
			case <-ctx.Done():
				return &domain.HandlerError{Capability: capability, Err: ctx.Err()}
			}
		})
	s.record(ctx, start, err)

	if err != nil {
		return "", err
	}
	return resp, nil
}

// Submit creates a pending task for the query and starts its background
// execution. The returned snapshot is safe to hand to the caller.
func (s *Scheduler) Submit(capability string, handler Handler, query string) *task.Task {
	t := &task.Task{
		ID:        uuid.NewString(),
		Query:     query,
		State:     task.StatePending,
		CreatedAt: s.now().UTC(),
	}
	s.store.add(t)
	snapshot := *t

	go s.runTask(t.ID, capability, handler, query)

	slog.Info("task submitted", "task_id", t.ID, "capability", capability)
	return &snapshot
}

// runTask drives one task from pending to a terminal state.
func (s *Scheduler) runTask(id, capability string, handler Handler, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.asyncTimeout)
	defer cancel()

	s.store.update(id, func(t *task.Task) {
		t.State = task.StateRunning
	})

	start := s.now()
	var result string
	err := s.tracer.WithSpan(ctx, "query.async",
		telemetry.TaskAttrs(s.agentName, id),
		func(ctx context.Context) error {
			var runErr error
			result, runErr = s.run(ctx, capability, handler, query)
			return runErr
		})
	s.record(ctx, start, err)

	s.store.finalize(id, func(t *task.Task) {
		t.CompletedAt = s.now().UTC()
		if err != nil {
			t.State = task.StateFailed
			t.Error = err.Error()
			return
		}
		t.State = task.StateCompleted
		t.Result = result
	})

	if err != nil {
		slog.Warn("task failed", "task_id", id, "error", err)
		return
	}
	slog.Info("task completed", "task_id", id, "duration", s.now().Sub(start))
}

// run invokes the handler with panic recovery. A panicking handler fails
// only its own query.
func (s *Scheduler) run(ctx context.Context, capability string, handler Handler, query string) (resp string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.HandlerError{Capability: capability, Err: fmt.Errorf("panic: %v", r)}
			slog.Error("handler panicked", "capability", capability, "panic", r)
		}
	}()

	resp, err = handler(ctx, query)
	if err != nil {
		return "", &domain.HandlerError{Capability: capability, Err: err}
	}
	if ctx.Err() != nil {
		return "", &domain.HandlerError{Capability: capability, Err: ctx.Err()}
	}
	return resp, nil
}

// GetTask returns a snapshot of the task by ID. Polling a terminal task is
// idempotent until the retention TTL expires, after which it reports
// domain.ErrNotFound.
func (s *Scheduler) GetTask(_ context.Context, id string) (task.Task, error) {
	return s.store.get(id)
}

// Close releases the task retention cache. In-flight tasks are not
// interrupted.
func (s *Scheduler) Close() {
	s.store.close()
}

// record reports one finished query execution to the metric instruments
// and the event stream. It runs for sync queries at response time and for
// async queries when the background task reaches a terminal state.
func (s *Scheduler) record(ctx context.Context, start time.Time, err error) {
	latency := s.now().Sub(start)

	if s.metrics != nil {
		s.metrics.QueriesStarted.Add(ctx, 1)
		s.metrics.QueryDuration.Record(ctx, latency.Seconds())
		if err != nil {
			s.metrics.QueriesFailed.Add(ctx, 1)
		} else {
			s.metrics.QueriesCompleted.Add(ctx, 1)
		}
	}

	if s.emitter != nil {
		evType := events.TypeQueryComplete
		if err != nil {
			evType = events.TypeQueryError
		}
		s.emitter.Emit(events.Event{
			Type:      evType,
			Agent:     s.agentName,
			LatencyMS: latency.Milliseconds(),
		})
	}
}
