package dispatch

import (
	"sync"
	"time"
)

// Queue is a concurrent-safe FIFO of pending tasks.
//
// Enqueue never blocks. Dequeue blocks for at most the given timeout so that
// idle workers stay responsive to shutdown. Requeued tasks re-enter at the
// tail, behind tasks already waiting.
type Queue struct {
	mu    sync.Mutex
	items []Task

	// signal carries at most one pending wakeup for blocked dequeuers.
	signal chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends a task at the tail. It never blocks.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	q.items = append(q.items, task)
	q.mu.Unlock()

	q.wake()
}

// Dequeue removes and returns the task at the head, waiting up to timeout
// for one to arrive. It returns (Task{}, false) on timeout.
func (q *Queue) Dequeue(timeout time.Duration) (Task, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			task := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			// Pass the wakeup on if more tasks are waiting, so a single
			// buffered signal cannot strand a second blocked dequeuer.
			if remaining > 0 {
				q.wake()
			}
			return task, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-deadline.C:
			return Task{}, false
		}
	}
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear discards all queued tasks.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
