package scheduler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/AgentLink/internal/domain"
	"github.com/Strob0t/AgentLink/internal/domain/task"
)

// terminalCacheCost bounds the total bytes of retained terminal tasks.
const terminalCacheCost = 16 << 20

// taskStore holds in-flight tasks in a mutex-guarded map and moves them,
// JSON-serialized, into a TTL cache once terminal. After the TTL a
// terminal task is gone and lookups report not found.
type taskStore struct {
	mu       sync.Mutex
	live     map[string]*task.Task
	terminal *ristretto.Cache[string, []byte]
	ttl      time.Duration
}

func newTaskStore(ttl time.Duration) (*taskStore, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: terminalCacheCost / 100 * 10, // ~10x expected items
		MaxCost:     terminalCacheCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("task cache: %w", err)
	}
	return &taskStore{
		live:     make(map[string]*task.Task),
		terminal: c,
		ttl:      ttl,
	}, nil
}

// add registers a new in-flight task.
func (s *taskStore) add(t *task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[t.ID] = t
}

// update applies fn to the live task under the lock. No-op when the task
// has already been finalized.
func (s *taskStore) update(id string, fn func(*task.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.live[id]; ok {
		fn(t)
	}
}

// finalize applies fn, moves the task into the terminal cache and removes
// it from the live map. The cache insert happens before the removal so a
// concurrent get never misses the window between the two.
func (s *taskStore) finalize(id string, fn func(*task.Task)) {
	s.mu.Lock()
	t, ok := s.live[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(t)
	snapshot := *t
	s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("task retention encode failed", "task_id", id, "error", err)
		return
	}
	s.terminal.SetWithTTL(id, data, int64(len(data)), s.ttl)
	s.terminal.Wait()

	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
}

// get returns a copy of the task by ID or domain.ErrNotFound.
func (s *taskStore) get(id string) (task.Task, error) {
	s.mu.Lock()
	if t, ok := s.live[id]; ok {
		out := *t
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	data, ok := s.terminal.Get(id)
	if !ok {
		return task.Task{}, domain.ErrNotFound
	}
	var t task.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return task.Task{}, fmt.Errorf("decode retained task: %w", err)
	}
	return t, nil
}

// close releases the terminal cache.
func (s *taskStore) close() {
	s.terminal.Close()
}
