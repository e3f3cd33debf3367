// Package task defines the asynchronous Task entity and its lifecycle.
package task

import "time"

// State represents the lifecycle state of a task.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal returns true if the task is in a final state. A task never
// transitions out of a terminal state.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Task is a unit of asynchronously executed work. It is owned exclusively
// by the scheduler until terminal; Result is set iff completed, Error iff
// failed.
type Task struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	State       State     `json:"state"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
}
