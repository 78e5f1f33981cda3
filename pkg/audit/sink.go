package audit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/dispatch"
)

// schema is the outcomes table. One row per terminal execution.
const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id                TEXT PRIMARY KEY,
	task_id           INTEGER,
	executor_id       INTEGER NOT NULL,
	status            TEXT NOT NULL,
	tokens            INTEGER,
	execution_time_ms INTEGER NOT NULL,
	error             TEXT,
	recorded_at       TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_recorded_at ON outcomes(recorded_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
`

const insertOutcome = `
INSERT INTO outcomes (id, task_id, executor_id, status, tokens, execution_time_ms, error, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteSink implements dispatch.OutcomeSink backed by a SQLite database.
type SQLiteSink struct {
	db      *sql.DB
	logger  *slog.Logger
	buffer  chan dispatch.TaskOutcome
	dropped atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// NewSQLiteSink opens (or creates) the database at cfg.Path, applies the
// schema, and starts the writer goroutine.
func NewSQLiteSink(cfg config.AuditConfig) (*SQLiteSink, error) {
	logger := slog.Default().With("component", "audit.sqlite")

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// A single writer goroutine performs all inserts
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	s := &SQLiteSink{
		db:     db,
		logger: logger,
		buffer: make(chan dispatch.TaskOutcome, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	go s.writeLoop()

	logger.Info("audit sink initialized",
		"path", cfg.Path,
		"buffer_size", cfg.BufferSize,
	)

	return s, nil
}

// Record queues an outcome for insertion. It never blocks: when the buffer
// is full the outcome is dropped and counted.
func (s *SQLiteSink) Record(outcome dispatch.TaskOutcome) {
	select {
	case s.buffer <- outcome:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns the number of outcomes discarded because the buffer was
// full.
func (s *SQLiteSink) Dropped() int64 {
	return s.dropped.Load()
}

// writeLoop drains the buffer and inserts each outcome.
func (s *SQLiteSink) writeLoop() {
	defer close(s.done)

	for outcome := range s.buffer {
		if err := s.insert(outcome); err != nil {
			s.logger.Error("failed to insert audit record",
				"error", err,
			)
		}
	}
}

func (s *SQLiteSink) insert(outcome dispatch.TaskOutcome) error {
	var taskID, tokens interface{}
	if outcome.Result != nil {
		taskID = outcome.Result.TaskID
		tokens = outcome.Result.Tokens
	}

	var errVal interface{}
	if outcome.Error != "" {
		errVal = outcome.Error
	}

	_, err := s.db.Exec(insertOutcome,
		uuid.New().String(),
		taskID,
		outcome.ExecutorID,
		string(outcome.Status),
		tokens,
		outcome.ExecutionTime.Milliseconds(),
		errVal,
		time.Now().UTC(),
	)
	return err
}

// Count returns the number of stored outcomes.
func (s *SQLiteSink) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM outcomes").Scan(&count)
	return count, err
}

// Close flushes the buffer and closes the database. The sink must not be
// used after Close.
func (s *SQLiteSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.buffer)

		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			s.logger.Warn("audit writer did not drain in time")
		}

		if dropped := s.dropped.Load(); dropped > 0 {
			s.logger.Warn("audit outcomes were dropped",
				"dropped", dropped,
			)
		}

		err = s.db.Close()
	})
	return err
}
