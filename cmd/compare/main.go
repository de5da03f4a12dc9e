package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"strategy-bench/internal/domain"
	"strategy-bench/internal/executor"
	"strategy-bench/internal/orchestrator"
	"strategy-bench/internal/reporting"
	"strategy-bench/internal/storage"
	chstore "strategy-bench/internal/storage/clickhouse"
	"strategy-bench/internal/storage/migrations"
	pgstore "strategy-bench/internal/storage/postgres"
)

func main() {
	// Matrix configuration
	configPath := flag.String("config", "", "JSON file with periods/symbols/strategies/evaluator (optional)")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (overrides config)")
	strategiesFlag := flag.String("strategies", "", "Comma-separated strategy ids (overrides config)")
	evaluatorFlag := flag.String("evaluator", "", "Evaluator command prefix (overrides config)")

	// Execution
	timeout := flag.Duration("timeout", 60*time.Second, "Per-trial evaluator deadline")
	workers := flag.Int("workers", 1, "Concurrent trials (1 = sequential)")

	// Output
	resultsDir := flag.String("results-dir", "benchmark_results", "Directory for per-run CSV files")

	// Optional durable stores
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (optional)")

	verbose := flag.Bool("verbose", false, "Verbose pipeline logging")
	flag.Parse()

	logger := log.New(os.Stderr, "[compare] ", log.LstdFlags)

	cfg, err := loadMatrixConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *symbolsFlag != "" {
		cfg.Symbols = splitList(*symbolsFlag)
	}
	if *strategiesFlag != "" {
		cfg.Strategies = splitList(*strategiesFlag)
	}
	if *evaluatorFlag != "" {
		cfg.Evaluator = strings.Fields(*evaluatorFlag)
	}

	if len(cfg.Periods) == 0 || len(cfg.Symbols) == 0 || len(cfg.Strategies) == 0 {
		logger.Fatal("configuration needs at least one period, one symbol and one strategy")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, finishing current trial...", sig)
		cancel()
	}()

	exec, err := executor.New(cfg.Evaluator, *timeout)
	if err != nil {
		logger.Fatalf("create executor: %v", err)
	}

	runCfg := domain.RunConfig{
		RunID:      domain.NewRunID(time.Now()),
		ResultsDir: *resultsDir,
		Deadline:   *timeout,
		Workers:    *workers,
	}

	stores, closeStores, err := openStores(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("open stores: %v", err)
	}
	defer closeStores()

	reporter := reporting.NewReporter(os.Stdout)
	reporter.Header(fmt.Sprintf("Strategy Comparison: %s", strings.Join(cfg.Strategies, " vs ")))

	orch := orchestrator.New(orchestrator.Options{
		Periods:    cfg.Periods,
		Symbols:    cfg.Symbols,
		Strategies: cfg.Strategies,
		Runner:     exec,
		Reporter:   reporter,
		Sink:       reporting.NewSink(runCfg.ResultsDir),
		Stores:     stores,
		Run:        runCfg,
		Verbose:    *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatalf("run failed: %v", err)
	}

	for _, msg := range result.Errors {
		logger.Printf("warning: %s", msg)
	}
	logger.Printf("Run %s complete: %d trials, %d succeeded, %d failed",
		runCfg.RunID, len(result.Records), result.Successes, result.Failures)
}

// defaultMatrixConfig mirrors the reference comparison run: diverse
// market conditions, a representative symbol sample, both strategies.
func defaultMatrixConfig() domain.MatrixConfig {
	return domain.MatrixConfig{
		Periods: []domain.Period{
			{Label: "Election_Rally", StartDate: "2024-11-06", EndDate: "2024-12-06"},
			{Label: "Oct_2024", StartDate: "2024-10-01", EndDate: "2024-10-31"},
			{Label: "Sep_2024", StartDate: "2024-09-01", EndDate: "2024-09-30"},
		},
		Symbols:    []string{"AAPL", "NVDA", "TSLA", "MSFT"},
		Strategies: []string{"advanced", "regime_adaptive"},
		Evaluator:  []string{"cargo", "run", "--release", "--bin", "benchmark", "--"},
	}
}

func loadMatrixConfig(path string) (domain.MatrixConfig, error) {
	cfg := defaultMatrixConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// openStores connects any configured durable stores. Both are
// optional; the CSV sink is always written regardless.
func openStores(ctx context.Context, postgresDSN, clickhouseDSN string) ([]storage.TrialRecordStore, func(), error) {
	var stores []storage.TrialRecordStore
	var closers []func()

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, closeAll, fmt.Errorf("postgres migrations: %w", err)
		}
		stores = append(stores, pgstore.NewTrialRecordStore(pool))
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return nil, closeAll, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores = append(stores, chstore.NewTrialRecordStore(conn))
	}

	return stores, closeAll, nil
}
