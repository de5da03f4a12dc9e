package executor

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"strategy-bench/internal/domain"
)

func testSpec() domain.TrialSpec {
	return domain.TrialSpec{
		Index:       0,
		StrategyID:  "advanced",
		PeriodLabel: "Oct_2024",
		StartDate:   "2024-10-01",
		EndDate:     "2024-10-31",
		Symbol:      "AAPL",
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use sh")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, time.Second); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := New([]string{"evaluator"}, 0); err == nil {
		t.Error("expected error for zero deadline")
	}
	if _, err := New([]string{"evaluator"}, time.Second); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildArgs(t *testing.T) {
	args := BuildArgs(testSpec())
	want := []string{"--symbol", "AAPL", "--start", "2024-10-01", "--end", "2024-10-31", "--strategy", "advanced"}

	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d: %v", len(want), len(args), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], args[i])
		}
	}
}

func TestRun_CapturesStdoutAndStderr(t *testing.T) {
	requireShell(t)

	ex, err := New([]string{"sh", "-c", `echo "to stdout"; echo "to stderr" >&2; exit 0`, "evaluator"}, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	inv := ex.Run(context.Background(), testSpec())
	if inv.Status != ExecCompleted {
		t.Fatalf("expected ExecCompleted, got %s (%s)", inv.Status, inv.Reason)
	}
	if !strings.Contains(inv.Output, "to stdout") {
		t.Errorf("stdout not captured: %q", inv.Output)
	}
	if !strings.Contains(inv.Output, "to stderr") {
		t.Errorf("stderr not captured: %q", inv.Output)
	}
}

func TestRun_NonZeroExitIsCompleted(t *testing.T) {
	requireShell(t)

	ex, err := New([]string{"sh", "-c", `echo "Return: 1.00% Net: $2.00 Trades: 3"; exit 7`, "evaluator"}, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	inv := ex.Run(context.Background(), testSpec())
	if inv.Status != ExecCompleted {
		t.Errorf("expected ExecCompleted on non-zero exit, got %s (%s)", inv.Status, inv.Reason)
	}
	if !strings.Contains(inv.Output, "Return: 1.00%") {
		t.Errorf("report line not captured: %q", inv.Output)
	}
}

func TestRun_DeadlineExceeded(t *testing.T) {
	requireShell(t)

	ex, err := New([]string{"sh", "-c", "sleep 30", "evaluator"}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	start := time.Now()
	inv := ex.Run(context.Background(), testSpec())
	elapsed := time.Since(start)

	if inv.Status != ExecTimedOut {
		t.Fatalf("expected ExecTimedOut, got %s (%s)", inv.Status, inv.Reason)
	}
	// Run must return promptly after the deadline, not after the
	// child would have finished.
	if elapsed > 10*time.Second {
		t.Errorf("Run blocked %v past a 100ms deadline", elapsed)
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	ex, err := New([]string{"/nonexistent/evaluator-binary"}, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	inv := ex.Run(context.Background(), testSpec())
	if inv.Status != ExecFailed {
		t.Fatalf("expected ExecFailed, got %s", inv.Status)
	}
	if inv.Reason == "" {
		t.Error("expected a failure reason")
	}
}

func TestRun_ParentCancellation(t *testing.T) {
	requireShell(t)

	ex, err := New([]string{"sh", "-c", "sleep 30", "evaluator"}, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	inv := ex.Run(ctx, testSpec())
	if inv.Status != ExecFailed {
		t.Fatalf("expected ExecFailed on cancellation, got %s", inv.Status)
	}
	if inv.Reason != "interrupted" {
		t.Errorf("expected reason %q, got %q", "interrupted", inv.Reason)
	}
}
