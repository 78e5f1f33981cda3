package dispatch

import (
	"context"
	"strings"
	"time"

	"mercator-hq/callisto/pkg/limits/ratelimit"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// runWorker is the per-worker loop: dequeue, consult the limiter, execute
// or requeue, record the outcome. It exits when the running flag drops.
func (d *Dispatcher) runWorker(executorID int, done chan struct{}) {
	defer close(done)

	for d.running.Load() {
		task, ok := d.queue.Dequeue(d.dequeueTimeout)
		if !ok {
			// Idle poll timed out; loop to re-check the running flag.
			continue
		}

		if limiter := d.admissionLimiter(); limiter != nil && limiter.ShouldLimit(0) {
			// Admission deferred: back to the tail, no execution, no outcome.
			d.queue.Enqueue(task)
			d.countRequeue()
			d.metrics.TaskRequeued(metrics.ReasonAdmission)
			continue
		}

		d.execute(executorID, task)
	}
}

// execute runs one task and records its outcome. No lock is held while the
// task body runs.
func (d *Dispatcher) execute(executorID int, task Task) {
	now := time.Now()

	d.mu.Lock()
	d.st.queryHistory = append(d.st.queryHistory, now)
	d.st.queriesSinceCalc++
	d.mu.Unlock()

	start := time.Now()
	result, err := task.Run(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		if isUpstreamRateLimit(err.Error()) {
			// Retryable: the upstream rejected us, so the attempt leaves no
			// outcome and the task goes back to the tail.
			d.queue.Enqueue(task)
			d.countRequeue()
			d.metrics.TaskRequeued(metrics.ReasonUpstream)
			d.logger.Debug("task requeued after upstream rate limit",
				"task_id", task.ID,
				"executor_id", executorID,
			)
			return
		}

		outcome := TaskOutcome{
			ExecutorID:    executorID,
			ExecutionTime: elapsed,
			Error:         err.Error(),
			Status:        StatusError,
		}

		d.mu.Lock()
		d.st.recordError(outcome)
		d.mu.Unlock()

		d.metrics.TaskCompleted(string(StatusError), elapsed, 0)
		if d.sink != nil {
			d.sink.Record(outcome)
		}
		d.logger.Warn("task failed",
			"task_id", task.ID,
			"executor_id", executorID,
			"error", err,
		)
		return
	}

	tokens := 0
	if result != nil {
		tokens = result.Tokens
	}

	// Record against the limiter first, under its own lock, never while
	// holding the state lock.
	if limiter := d.admissionLimiter(); limiter != nil {
		limiter.RecordRequest(tokens)
	}

	outcome := TaskOutcome{
		ExecutorID:    executorID,
		Result:        result,
		ExecutionTime: elapsed,
		Status:        StatusSuccess,
	}

	d.mu.Lock()
	d.st.recordSuccess(outcome, time.Now())
	d.mu.Unlock()

	d.metrics.TaskCompleted(string(StatusSuccess), elapsed, tokens)
	if d.sink != nil {
		d.sink.Record(outcome)
	}
}

// admissionLimiter returns the active limiter, or nil when limiting is
// disabled. The limiter reference is read under its own lock; the returned
// limiter serializes its own internals.
func (d *Dispatcher) admissionLimiter() ratelimit.Limiter {
	d.limiterMu.Lock()
	defer d.limiterMu.Unlock()
	if d.mode != ModeLimited {
		return nil
	}
	return d.limiter
}

// countRequeue increments the requeue counter. Requeues never touch the
// submitted-task total.
func (d *Dispatcher) countRequeue() {
	d.mu.Lock()
	d.st.requeuedTasks++
	d.mu.Unlock()
}

// isUpstreamRateLimit reports whether an error's text carries an upstream
// rate-limit signature: "429" together with "rate limit", case-insensitive.
func isUpstreamRateLimit(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "429") && strings.Contains(lower, "rate limit")
}
