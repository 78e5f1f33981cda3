package dispatch

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/limits/ratelimit"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// RateLimitMode selects whether admission control is applied.
type RateLimitMode string

const (
	// ModeUnlimited disables admission control entirely.
	ModeUnlimited RateLimitMode = "unlimited"

	// ModeLimited gates execution through the rate limiter. Caps of zero
	// within limited mode still mean unlimited for that dimension.
	ModeLimited RateLimitMode = "limited"
)

// Config contains configuration for a Dispatcher.
type Config struct {
	// Workers is the number of concurrent worker goroutines.
	// Default: 2
	Workers int

	// DequeueTimeout bounds how long an idle worker blocks on the queue
	// before re-checking the running flag.
	// Default: 500ms
	DequeueTimeout time.Duration

	// StopGracePeriod is how long Stop waits for each worker to finish
	// its current task before proceeding without it.
	// Default: 1s
	StopGracePeriod time.Duration

	// RateLimitMode selects unlimited or limited admission.
	// Default: unlimited
	RateLimitMode RateLimitMode

	// MaxRPM and MaxTPM are the caps applied in limited mode (0 = unlimited).
	MaxRPM int
	MaxTPM int

	// RequestWindow and TokenWindow override the limiter's fixed-window
	// sizes. Zero values take the ratelimit package defaults.
	RequestWindow time.Duration
	TokenWindow   time.Duration

	// Metrics is an optional Prometheus collector. Nil disables recording.
	Metrics *metrics.Collector

	// Sink is an optional outcome sink for audit export. Nil disables it.
	Sink OutcomeSink

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Dispatcher owns the task queue, the worker pool, the processor state, and
// the optional rate limiter, and exposes the control surface the dashboard
// and CLI consume.
//
// Three locks exist: mu guards the processor state, limiterMu guards the
// limiter reference and mode, and lifecycleMu serializes Start, Stop, and
// Reset and guards the pool bookkeeping (worker count, done channels, run
// id). Workers never take lifecycleMu, so holding it across Stop's grace
// wait is safe; none of the three locks is ever nested with another.
type Dispatcher struct {
	queue *Queue

	mu sync.Mutex
	st processorState

	limiterMu sync.Mutex
	mode      RateLimitMode
	limiter   ratelimit.Limiter

	dequeueTimeout  time.Duration
	stopGracePeriod time.Duration
	requestWindow   time.Duration
	tokenWindow     time.Duration

	lifecycleMu sync.Mutex
	workers     int
	workerDone  []chan struct{}
	runID       string

	running atomic.Bool

	metrics *metrics.Collector
	sink    OutcomeSink
	logger  *slog.Logger
}

// New creates a Dispatcher. The pool is idle until Start is called.
func New(cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 500 * time.Millisecond
	}
	if cfg.StopGracePeriod <= 0 {
		cfg.StopGracePeriod = time.Second
	}
	if cfg.RateLimitMode == "" {
		cfg.RateLimitMode = ModeUnlimited
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &Dispatcher{
		queue:           NewQueue(),
		mode:            cfg.RateLimitMode,
		dequeueTimeout:  cfg.DequeueTimeout,
		stopGracePeriod: cfg.StopGracePeriod,
		requestWindow:   cfg.RequestWindow,
		tokenWindow:     cfg.TokenWindow,
		metrics:         cfg.Metrics,
		sink:            cfg.Sink,
		logger:          cfg.Logger.With("component", "dispatch"),
	}
	if cfg.RateLimitMode == ModeLimited {
		d.limiter = ratelimit.NewFixedWindow(ratelimit.Config{
			MaxRPM:        cfg.MaxRPM,
			MaxTPM:        cfg.MaxTPM,
			RequestWindow: cfg.RequestWindow,
			TokenWindow:   cfg.TokenWindow,
		})
	}

	d.Reset(cfg.Workers)
	return d
}

// Submit enqueues one task. Submitted tasks count toward the total
// immediately, whether or not the pool is running.
func (d *Dispatcher) Submit(task Task) {
	d.queue.Enqueue(task)

	d.mu.Lock()
	d.st.totalTasks++
	d.mu.Unlock()

	d.metrics.TaskSubmitted()
}

// Start spawns the worker pool against the shared queue.
//
// Per-run counters (completed, errors, requeues, the results log) are
// cleared, but the submitted-task total and any queued tasks are preserved,
// so tasks submitted before Start are processed by the new run. The rate
// limiter's window and history state is restarted.
//
// Start, Stop, and Reset serialize on the lifecycle lock, so a Stop racing
// a Start either runs before the pool spawns or waits on the spawned
// workers.
func (d *Dispatcher) Start() {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	d.startLocked()
}

func (d *Dispatcher) startLocked() {
	if d.running.Swap(true) {
		return
	}

	d.mu.Lock()
	d.st.results = nil
	d.st.completedTasks = 0
	d.st.errorCount = 0
	d.st.requeuedTasks = 0
	d.mu.Unlock()

	d.limiterMu.Lock()
	if d.limiter != nil {
		d.limiter.Reset()
	}
	d.limiterMu.Unlock()

	d.runID = uuid.NewString()
	d.workerDone = make([]chan struct{}, d.workers)
	for i := 0; i < d.workers; i++ {
		done := make(chan struct{})
		d.workerDone[i] = done
		go d.runWorker(i, done)
	}

	d.metrics.SetActiveWorkers(d.workers)
	d.logger.Info("dispatcher started",
		"run_id", d.runID,
		"workers", d.workers,
		"rate_limit_mode", string(d.mode),
	)
}

// Stop cooperatively stops the pool. Each worker finishes its current task
// (or its current idle poll) and exits; Stop waits up to the grace period
// per worker and proceeds regardless of stragglers. In-flight tasks are
// never preempted.
func (d *Dispatcher) Stop() {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	d.stopLocked()
}

func (d *Dispatcher) stopLocked() {
	if !d.running.Swap(false) {
		return
	}

	for i, done := range d.workerDone {
		select {
		case <-done:
		case <-time.After(d.stopGracePeriod):
			d.logger.Warn("worker did not stop within grace period", "executor_id", i)
		}
	}
	d.workerDone = nil

	d.metrics.SetActiveWorkers(0)
	d.logger.Info("dispatcher stopped", "run_id", d.runID)
}

// Reset stops the pool, clears the queue and all counters and histories,
// reconfigures the worker count, and restarts the rate limiter state.
func (d *Dispatcher) Reset(workers int) {
	d.lifecycleMu.Lock()
	d.stopLocked()
	if workers > 0 {
		d.workers = workers
	}
	d.lifecycleMu.Unlock()

	d.queue.Clear()

	d.mu.Lock()
	d.st.reinit(time.Now())
	d.mu.Unlock()

	d.limiterMu.Lock()
	if d.limiter != nil {
		d.limiter.Reset()
	}
	d.limiterMu.Unlock()

	d.metrics.SetQueueSize(0)
}

// SetRateLimits swaps between unlimited and limited mode and applies new
// caps. Changing caps always restarts the admission windows from zero.
func (d *Dispatcher) SetRateLimits(mode RateLimitMode, maxRPM, maxTPM int) {
	d.limiterMu.Lock()
	defer d.limiterMu.Unlock()

	d.mode = mode
	if mode != ModeLimited {
		d.limiter = nil
		return
	}

	if fw, ok := d.limiter.(*ratelimit.FixedWindow); ok {
		fw.SetLimits(maxRPM, maxTPM)
		return
	}
	d.limiter = ratelimit.NewFixedWindow(ratelimit.Config{
		MaxRPM:        maxRPM,
		MaxTPM:        maxTPM,
		RequestWindow: d.requestWindow,
		TokenWindow:   d.tokenWindow,
	})
}

// Progress returns a consistent snapshot of the dispatcher state. The
// results log is copied, not shared. The limiter snapshot, when limiting is
// enabled, is taken after the state lock is released so the two locks are
// never held together.
func (d *Dispatcher) Progress() Progress {
	now := time.Now()

	d.mu.Lock()
	d.st.pruneQueryHistory(now)

	avgTokens := 0
	if d.st.tokenCount > 0 {
		avgTokens = int(math.Round(float64(d.st.totalTokens) / float64(d.st.tokenCount)))
	}
	minTokens := d.st.minTokens
	if d.st.tokenCount == 0 {
		minTokens = 0
	}

	p := Progress{
		Completed:     d.st.completedTasks,
		Total:         d.st.totalTasks,
		QueueSize:     d.queue.Len(),
		Results:       append([]TaskOutcome(nil), d.st.results...),
		ErrorCount:    d.st.errorCount,
		RequeuedTasks: d.st.requeuedTasks,
		TotalTokens:   d.st.totalTokens,
		MinTokens:     minTokens,
		MaxTokens:     d.st.maxTokens,
		AvgTokens:     avgTokens,
		TPM:           d.st.calculateTPM(now),
		RPM:           d.st.calculateRPM(now),
		QPS:           d.st.calculateQPS(now),
	}
	d.mu.Unlock()

	d.limiterMu.Lock()
	p.RateLimitMode = d.mode
	if d.mode == ModeLimited && d.limiter != nil {
		snap := d.limiter.Snapshot()
		p.RateLimit = &snap
	}
	d.limiterMu.Unlock()

	d.metrics.SetQueueSize(p.QueueSize)
	d.metrics.SetRates(p.TPM, p.RPM, p.QPS)

	return p
}

// Remaining returns the number of submitted tasks not yet terminally
// completed.
func (d *Dispatcher) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.totalTasks - d.st.completedTasks
}

// Running reports whether the worker pool is active.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// Workers returns the configured worker count.
func (d *Dispatcher) Workers() int {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	return d.workers
}
