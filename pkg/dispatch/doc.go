// Package dispatch implements the Callisto batch dispatcher: a bounded pool
// of concurrent workers draining a shared FIFO task queue under rate-limit
// admission control, with live throughput accounting.
//
// # Overview
//
// The Dispatcher owns three pieces of shared state:
//
//   - the task Queue (concurrent-safe FIFO with bounded-wait dequeue)
//   - the processor state (counters, results log, rate histories), guarded
//     by the dispatcher's state lock
//   - an optional ratelimit.Limiter, guarded by its own lock
//
// Each worker loops independently: dequeue with a short timeout, consult the
// limiter, execute or requeue, record the outcome. No lock is ever held
// across a task execution, and the state lock and limiter lock are never
// nested, so throughput scales with the worker count.
//
// # Requeue Semantics
//
// A task leaves the queue in one of four ways. Admission deferral (the
// limiter's window is full) and an upstream 429 both return the task to the
// tail of the queue and count a requeue; neither is an error. A successful
// execution or a terminal failure appends exactly one outcome to the results
// log and counts a completion. Requeues never change the submitted-task
// total.
//
// # Example
//
//	d := dispatch.New(dispatch.Config{Workers: 4})
//	for i := 0; i < 100; i++ {
//	    d.Submit(dispatch.Task{ID: i, Run: taskFn(i)})
//	}
//	d.Start()
//	defer d.Stop()
//
//	for d.Remaining() > 0 {
//	    p := d.Progress()
//	    fmt.Printf("%d/%d done, %d queued\n", p.Completed, p.Total, p.QueueSize)
//	    time.Sleep(time.Second)
//	}
package dispatch
