package dispatch

import (
	"context"
	"time"
)

// Status is the terminal status of an executed task.
type Status string

const (
	// StatusSuccess marks a task that executed and returned a result.
	StatusSuccess Status = "success"

	// StatusError marks a task that executed and failed terminally.
	StatusError Status = "error"
)

// TaskFunc is the work a task performs. It is treated as an opaque,
// potentially slow blocking call; the dispatcher never cancels it, but
// implementations should honor ctx if they make network calls.
//
// A TaskFunc returns a TaskResult on success. An error whose text carries an
// upstream rate-limit signature ("429" together with "rate limit",
// case-insensitive) is treated as retryable; any other error is terminal.
type TaskFunc func(ctx context.Context) (*TaskResult, error)

// Task is one unit of work: an identifier plus the closure that performs it.
// Task arguments are captured by the closure rather than carried as values.
type Task struct {
	// ID identifies the task across requeues.
	ID int

	// Run performs the task.
	Run TaskFunc
}

// TaskResult is the record a successful task produces.
type TaskResult struct {
	// TaskID echoes the task's identifier.
	TaskID int `json:"task_id"`

	// Tokens is the number of tokens the remote call consumed.
	Tokens int `json:"tokens"`
}

// TaskOutcome is one entry in the ordered results log. Outcomes are appended
// once per terminal execution and never mutated afterwards; requeued attempts
// produce no outcome.
type TaskOutcome struct {
	// ExecutorID is the worker that executed the task.
	ExecutorID int `json:"executor_id"`

	// Result is the task's result, nil when Status is StatusError.
	Result *TaskResult `json:"task_result"`

	// ExecutionTime is the task's wall duration, measured on the
	// monotonic clock.
	ExecutionTime time.Duration `json:"execution_time"`

	// Error is the task's error text, empty when Status is StatusSuccess.
	Error string `json:"error,omitempty"`

	// Status is StatusSuccess or StatusError.
	Status Status `json:"status"`
}

// OutcomeSink receives terminal task outcomes for export (audit logging).
// Record must not block: the dispatcher calls it from worker goroutines.
type OutcomeSink interface {
	Record(outcome TaskOutcome)
}
