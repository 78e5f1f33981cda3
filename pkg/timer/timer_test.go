package timer

import (
	"testing"
	"time"
)

func TestTimer_NeverStarted(t *testing.T) {
	var tm Timer

	if tm.Running() {
		t.Error("expected new timer to not be running")
	}
	if got := tm.Elapsed(); got != 0 {
		t.Errorf("expected zero elapsed, got %v", got)
	}
}

func TestTimer_StartStop(t *testing.T) {
	var tm Timer

	tm.Start()
	if !tm.Running() {
		t.Error("expected timer to be running after Start")
	}

	time.Sleep(20 * time.Millisecond)
	tm.Stop()

	if tm.Running() {
		t.Error("expected timer to be stopped after Stop")
	}

	elapsed := tm.Elapsed()
	if elapsed < 10*time.Millisecond {
		t.Errorf("expected at least 10ms elapsed, got %v", elapsed)
	}

	// Elapsed is frozen once stopped
	time.Sleep(20 * time.Millisecond)
	if got := tm.Elapsed(); got != elapsed {
		t.Errorf("expected elapsed to stay %v after stop, got %v", elapsed, got)
	}
}

func TestTimer_ElapsedWhileRunning(t *testing.T) {
	var tm Timer

	tm.Start()
	time.Sleep(10 * time.Millisecond)

	first := tm.Elapsed()
	if first <= 0 {
		t.Fatalf("expected positive elapsed, got %v", first)
	}

	time.Sleep(10 * time.Millisecond)
	if second := tm.Elapsed(); second <= first {
		t.Errorf("expected elapsed to grow while running: %v then %v", first, second)
	}
}

func TestTimer_StopWhenNotRunning(t *testing.T) {
	var tm Timer

	tm.Stop()
	if got := tm.Elapsed(); got != 0 {
		t.Errorf("expected zero elapsed after stopping idle timer, got %v", got)
	}
}

func TestTimer_Reset(t *testing.T) {
	var tm Timer

	tm.Start()
	time.Sleep(5 * time.Millisecond)
	tm.Stop()
	tm.Reset()

	if tm.Running() {
		t.Error("expected timer to not be running after Reset")
	}
	if got := tm.Elapsed(); got != 0 {
		t.Errorf("expected zero elapsed after Reset, got %v", got)
	}
}

func TestTimer_Restart(t *testing.T) {
	var tm Timer

	tm.Start()
	time.Sleep(30 * time.Millisecond)
	tm.Stop()

	tm.Start()
	time.Sleep(5 * time.Millisecond)
	tm.Stop()

	if got := tm.Elapsed(); got >= 30*time.Millisecond {
		t.Errorf("expected restart to discard previous duration, got %v", got)
	}
}
