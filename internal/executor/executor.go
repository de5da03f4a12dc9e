// Package executor invokes the external strategy evaluator, one
// blocking bounded-time invocation per trial.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"strategy-bench/internal/domain"
)

// ExecStatus classifies how an invocation ended, before any report
// parsing. A non-zero exit code still counts as completed: the
// evaluator may emit its report and then exit non-zero.
type ExecStatus string

// ExecStatus constants
const (
	ExecCompleted ExecStatus = "COMPLETED"
	ExecTimedOut  ExecStatus = "TIMED_OUT"
	ExecFailed    ExecStatus = "FAILED"
)

// Invocation is the raw result of running the evaluator once:
// combined stdout+stderr text plus an execution status. Reason is set
// only for ExecFailed.
type Invocation struct {
	Output string
	Status ExecStatus
	Reason string
}

// waitDelay bounds process reaping after context cancellation so a
// timed-out evaluator cannot linger with inherited pipes open.
const waitDelay = 5 * time.Second

// Executor runs the evaluator command with a fixed per-trial deadline.
type Executor struct {
	command  []string
	deadline time.Duration
}

// New creates an Executor. command is the evaluator argv prefix
// (binary plus any fixed arguments); per-trial flags are appended per
// invocation.
func New(command []string, deadline time.Duration) (*Executor, error) {
	if len(command) == 0 {
		return nil, errors.New("evaluator command is empty")
	}
	if deadline <= 0 {
		return nil, fmt.Errorf("invalid deadline: %v", deadline)
	}
	return &Executor{command: command, deadline: deadline}, nil
}

// BuildArgs constructs the evaluator's per-trial arguments from a spec.
func BuildArgs(spec domain.TrialSpec) []string {
	return []string{
		"--symbol", spec.Symbol,
		"--start", spec.StartDate,
		"--end", spec.EndDate,
		"--strategy", spec.StrategyID,
	}
}

// Run invokes the evaluator for one trial and captures its combined
// output regardless of exit code. Exactly one attempt; no retries.
// On deadline expiry the process is killed and reaped before Run
// returns, so a timed-out trial never leaks an orphaned evaluator.
func (e *Executor) Run(ctx context.Context, spec domain.TrialSpec) Invocation {
	runCtx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	args := append(append([]string{}, e.command[1:]...), BuildArgs(spec)...)
	cmd := exec.CommandContext(runCtx, e.command[0], args...)
	cmd.WaitDelay = waitDelay

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	output := combined.String()

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return Invocation{Output: output, Status: ExecTimedOut}
	case errors.Is(runCtx.Err(), context.Canceled):
		return Invocation{Output: output, Status: ExecFailed, Reason: "interrupted"}
	case err == nil:
		return Invocation{Output: output, Status: ExecCompleted}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Evaluator ran to completion with a non-zero code; report
		// parsing decides whether the trial succeeded.
		return Invocation{Output: output, Status: ExecCompleted}
	}

	return Invocation{Output: output, Status: ExecFailed, Reason: err.Error()}
}
