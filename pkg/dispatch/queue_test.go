package dispatch

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue(Task{ID: i})
	}

	for i := 0; i < 5; i++ {
		task, ok := q.Dequeue(10 * time.Millisecond)
		if !ok {
			t.Fatalf("Expected task %d, queue reported empty", i)
		}
		if task.ID != i {
			t.Errorf("Expected task %d, got %d", i, task.ID)
		}
	}
}

func TestQueue_DequeueTimeout(t *testing.T) {
	q := NewQueue()

	start := time.Now()
	_, ok := q.Dequeue(50 * time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Error("Expected empty dequeue to report no task")
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("Expected dequeue to wait out its timeout, returned after %s", elapsed)
	}
}

func TestQueue_DequeueWakesOnEnqueue(t *testing.T) {
	q := NewQueue()

	got := make(chan Task, 1)
	go func() {
		if task, ok := q.Dequeue(2 * time.Second); ok {
			got <- task
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Enqueue(Task{ID: 42})

	select {
	case task := <-got:
		if task.ID != 42 {
			t.Errorf("Expected task 42, got %d", task.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("Blocked dequeuer was not woken by enqueue")
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Task{ID: 1})
	q.Enqueue(Task{ID: 2})

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after clear, got %d", q.Len())
	}
	if _, ok := q.Dequeue(10 * time.Millisecond); ok {
		t.Error("Expected dequeue after clear to time out")
	}
}

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 4, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(Task{ID: base + i})
			}
		}(p * perProducer)
	}

	var consumed sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)
	for c := 0; c < 4; c++ {
		consumed.Add(1)
		go func() {
			defer consumed.Done()
			for {
				task, ok := q.Dequeue(100 * time.Millisecond)
				if !ok {
					return
				}
				mu.Lock()
				if seen[task.ID] {
					t.Errorf("Task %d dequeued twice", task.ID)
				}
				seen[task.ID] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	consumed.Wait()

	if len(seen) != producers*perProducer {
		t.Errorf("Expected %d distinct tasks consumed, got %d", producers*perProducer, len(seen))
	}
}
