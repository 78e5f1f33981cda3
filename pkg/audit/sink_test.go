package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/dispatch"
)

func testSink(t *testing.T, bufferSize int) *SQLiteSink {
	t.Helper()

	sink, err := NewSQLiteSink(config.AuditConfig{
		Path:       filepath.Join(t.TempDir(), "outcomes.db"),
		BufferSize: bufferSize,
	})
	if err != nil {
		t.Fatalf("NewSQLiteSink failed: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func waitForCount(t *testing.T, sink *SQLiteSink, want int64) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		count, err := sink.Count()
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	count, _ := sink.Count()
	t.Fatalf("expected %d stored outcomes, got %d", want, count)
}

func TestSQLiteSink_RecordSuccess(t *testing.T) {
	sink := testSink(t, 16)

	sink.Record(dispatch.TaskOutcome{
		ExecutorID:    1,
		Result:        &dispatch.TaskResult{TaskID: 42, Tokens: 77},
		ExecutionTime: 150 * time.Millisecond,
		Status:        dispatch.StatusSuccess,
	})

	waitForCount(t, sink, 1)

	var taskID, tokens, execMs int64
	var status string
	err := sink.db.QueryRow(
		"SELECT task_id, tokens, execution_time_ms, status FROM outcomes").
		Scan(&taskID, &tokens, &execMs, &status)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if taskID != 42 || tokens != 77 {
		t.Errorf("expected task 42 with 77 tokens, got task %d with %d", taskID, tokens)
	}
	if execMs != 150 {
		t.Errorf("expected 150ms execution time, got %d", execMs)
	}
	if status != "success" {
		t.Errorf("expected success status, got %q", status)
	}
}

func TestSQLiteSink_RecordError(t *testing.T) {
	sink := testSink(t, 16)

	sink.Record(dispatch.TaskOutcome{
		ExecutorID:    2,
		ExecutionTime: 10 * time.Millisecond,
		Error:         "task exploded",
		Status:        dispatch.StatusError,
	})

	waitForCount(t, sink, 1)

	var errText, status string
	err := sink.db.QueryRow("SELECT error, status FROM outcomes").Scan(&errText, &status)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if errText != "task exploded" {
		t.Errorf("expected error text, got %q", errText)
	}
	if status != "error" {
		t.Errorf("expected error status, got %q", status)
	}
}

func TestSQLiteSink_CloseFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.db")
	sink, err := NewSQLiteSink(config.AuditConfig{Path: path, BufferSize: 64})
	if err != nil {
		t.Fatalf("NewSQLiteSink failed: %v", err)
	}

	for i := 0; i < 20; i++ {
		sink.Record(dispatch.TaskOutcome{
			ExecutorID: 1,
			Result:     &dispatch.TaskResult{TaskID: i, Tokens: 10},
			Status:     dispatch.StatusSuccess,
		})
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteSink(config.AuditConfig{Path: path, BufferSize: 1})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 20 {
		t.Errorf("expected 20 outcomes after flush, got %d", count)
	}
}

func TestPruner_ByAge(t *testing.T) {
	sink := testSink(t, 16)

	old := time.Now().UTC().AddDate(0, 0, -30)
	fresh := time.Now().UTC()
	for i, ts := range []time.Time{old, old, fresh} {
		_, err := sink.db.Exec(insertOutcome,
			fmt.Sprintf("row-%d", i), i, 1, "success", 10, 100, nil, ts)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	pruner := NewPruner(sink, config.AuditConfig{RetentionDays: 7})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted rows, got %d", deleted)
	}

	count, _ := sink.Count()
	if count != 1 {
		t.Errorf("expected 1 remaining row, got %d", count)
	}
}

func TestPruner_ByCount(t *testing.T) {
	sink := testSink(t, 16)

	base := time.Now().UTC()
	for i := 0; i < 10; i++ {
		_, err := sink.db.Exec(insertOutcome,
			fmt.Sprintf("row-%d", i), i, 1, "success", 10, 100, nil,
			base.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	pruner := NewPruner(sink, config.AuditConfig{MaxRecords: 4})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 6 {
		t.Errorf("expected 6 deleted rows, got %d", deleted)
	}

	// The newest rows survive
	var minTask int64
	if err := sink.db.QueryRow("SELECT MIN(task_id) FROM outcomes").Scan(&minTask); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if minTask != 6 {
		t.Errorf("expected oldest surviving task id 6, got %d", minTask)
	}
}

func TestPruner_ScheduleValidation(t *testing.T) {
	sink := testSink(t, 16)

	pruner := NewPruner(sink, config.AuditConfig{PruneSchedule: "not a cron expr"})
	if err := pruner.Start(context.Background()); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}

	// Empty schedule is a no-op, not an error
	idle := NewPruner(sink, config.AuditConfig{})
	if err := idle.Start(context.Background()); err != nil {
		t.Fatalf("expected empty schedule to succeed, got %v", err)
	}
	if idle.NextRun() != nil {
		t.Error("expected no scheduled run for empty schedule")
	}
}
