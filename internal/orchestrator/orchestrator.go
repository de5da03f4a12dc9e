// Package orchestrator coordinates a benchmark run end to end.
// Flow: matrix generation → execution (per trial) → parsing →
// accumulation → persistence → aggregation → reporting.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"strategy-bench/internal/domain"
	"strategy-bench/internal/executor"
	"strategy-bench/internal/matrix"
	"strategy-bench/internal/reportparse"
	"strategy-bench/internal/reporting"
	"strategy-bench/internal/storage"
)

// Runner executes one trial and returns the raw invocation result.
// *executor.Executor is the production implementation; tests stub it.
type Runner interface {
	Run(ctx context.Context, spec domain.TrialSpec) executor.Invocation
}

// Compile-time check that the production executor satisfies Runner.
var _ Runner = (*executor.Executor)(nil)

// Orchestrator drives the trial matrix through the pipeline.
type Orchestrator struct {
	periods    []domain.Period
	symbols    []string
	strategies []string

	runner   Runner
	reporter *reporting.Reporter
	sink     *reporting.Sink
	stores   []storage.TrialRecordStore

	run     domain.RunConfig
	verbose bool
}

// Options for creating an Orchestrator.
type Options struct {
	// Matrix axes
	Periods    []domain.Period
	Symbols    []string
	Strategies []string

	// Collaborators
	Runner   Runner
	Reporter *reporting.Reporter
	Sink     *reporting.Sink

	// Optional durable stores; records are inserted into each after
	// the run completes. Store failures are collected, not fatal.
	Stores []storage.TrialRecordStore

	Run     domain.RunConfig
	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		periods:    opts.Periods,
		symbols:    opts.Symbols,
		strategies: opts.Strategies,
		runner:     opts.Runner,
		reporter:   opts.Reporter,
		sink:       opts.Sink,
		stores:     opts.Stores,
		run:        opts.Run,
		verbose:    opts.Verbose,
	}
}

// RunResult contains results from one benchmark run.
type RunResult struct {
	Records   []*domain.TrialRecord
	Successes int
	Failures  int
	CSVPath   string
	Errors    []string
}

// Run executes the full benchmark pipeline. Individual trial failures
// are recorded, never propagated: the matrix always completes its
// generated sequence unless ctx is cancelled, in which case the trials
// finished so far are still persisted and reported.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	specs := matrix.Generate(o.periods, o.symbols, o.strategies)
	o.log("Generated %d trials (%d strategies × %d periods × %d symbols)",
		len(specs), len(o.strategies), len(o.periods), len(o.symbols))

	var records []*domain.TrialRecord
	if o.run.Workers > 1 {
		records = o.executeParallel(ctx, specs)
	} else {
		records = o.executeSequential(ctx, specs)
	}

	result := &RunResult{Records: records}
	for _, r := range records {
		if r.Status == domain.StatusSuccess {
			result.Successes++
		} else {
			result.Failures++
		}
	}

	// Persist CSV before any store writes so the durable table exists
	// even when a database is unreachable.
	path, err := o.sink.Write(o.run.RunID, records)
	if err != nil {
		return nil, fmt.Errorf("persist results: %w", err)
	}
	result.CSVPath = path

	for _, store := range o.stores {
		if err := store.InsertBulk(ctx, records); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("store insert: %v", err))
		}
	}

	o.reporter.ComparisonSummary(o.strategies, records)
	o.reporter.PeriodBreakdown(o.periods, o.strategies, records)
	o.reporter.SavedTo(path)

	return result, nil
}

// executeSequential runs trials one at a time in generation order, the
// default model: the evaluator is assumed resource-intensive and
// concurrent invocations would contend.
func (o *Orchestrator) executeSequential(ctx context.Context, specs []domain.TrialSpec) []*domain.TrialRecord {
	records := make([]*domain.TrialRecord, 0, len(specs))

	currentStrategy := ""
	for _, spec := range specs {
		if ctx.Err() != nil {
			o.log("Run cancelled after %d/%d trials", len(records), len(specs))
			break
		}

		if spec.StrategyID != currentStrategy {
			currentStrategy = spec.StrategyID
			o.reporter.StrategySection(currentStrategy)
		}

		rec := o.runTrial(ctx, spec)
		records = append(records, rec)
		o.reporter.Progress(len(records), len(specs), rec)
	}

	return records
}

// executeParallel runs trials across a bounded worker pool. Results
// land in a slice cell keyed by trial index, so per-period and
// per-strategy groupings survive arbitrary completion order. Each
// trial carries its own deadline; a slow trial never blocks an
// unrelated one.
func (o *Orchestrator) executeParallel(ctx context.Context, specs []domain.TrialSpec) []*domain.TrialRecord {
	results := make([]*domain.TrialRecord, len(specs))
	sem := make(chan struct{}, o.run.Workers)
	var done atomic.Int64
	var wg sync.WaitGroup

	for _, spec := range specs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(spec domain.TrialSpec) {
			defer wg.Done()
			defer func() { <-sem }()

			rec := o.runTrial(ctx, spec)
			results[spec.Index] = rec
			o.reporter.Progress(int(done.Add(1)), len(specs), rec)
		}(spec)
	}
	wg.Wait()

	// Compact away cells never issued (cancellation), preserving
	// generation order for everything that ran.
	records := make([]*domain.TrialRecord, 0, len(specs))
	for _, r := range results {
		if r != nil {
			records = append(records, r)
		}
	}
	return records
}

// runTrial performs the single invocation for one spec and classifies
// the outcome. The executor owns the per-trial deadline.
func (o *Orchestrator) runTrial(ctx context.Context, spec domain.TrialSpec) *domain.TrialRecord {
	inv := o.runner.Run(ctx, spec)

	var outcome domain.TrialOutcome
	switch inv.Status {
	case executor.ExecCompleted:
		// Exit code is irrelevant here: the evaluator may emit its
		// report and still exit non-zero.
		outcome = reportparse.Parse(inv.Output)
	case executor.ExecTimedOut:
		outcome = domain.TrialOutcome{Status: domain.StatusTimeout}
	default:
		outcome = domain.TrialOutcome{Status: domain.StatusExecError, Reason: inv.Reason}
	}

	return &domain.TrialRecord{
		RunID:        o.run.RunID,
		TrialSpec:    spec,
		TrialOutcome: outcome,
	}
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.verbose {
		log.Printf(format, args...)
	}
}
