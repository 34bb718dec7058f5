// ABOUTME: Command-line runner for the classification accuracy benchmark
// ABOUTME: Runs labeled prompts against the configured model and exports JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harper/shape-classifier/benchmarks/accuracy"
	"github.com/harper/shape-classifier/internal/config"
	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/logger"
)

func main() {
	casesPath := flag.String("cases", "", "YAML case file. If empty, runs the built-in cases.")
	caseID := flag.String("case", "", "Run a single case by id")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	threshold := flag.Float64("threshold", 0.8, "Minimum accuracy (0-1) for a zero exit code")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := run(*casesPath, *caseID, *outputPath, *threshold, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(casesPath, caseID, outputPath string, threshold float64, verbose bool) error {
	// Load .env file; a missing one is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cases := accuracy.GetAllCases()
	if casesPath != "" {
		if cases, err = accuracy.LoadCases(casesPath); err != nil {
			return err
		}
	}
	if caseID != "" {
		tc, ok := accuracy.FindCase(cases, caseID)
		if !ok {
			return fmt.Errorf("unknown case id %q", caseID)
		}
		cases = []accuracy.TestCase{tc}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClient(ctx, cfg.ClientConfig(), log)
	if err != nil {
		return fmt.Errorf("creating classification client: %w", err)
	}

	fmt.Println("========================================")
	fmt.Println("Shape Classification Accuracy")
	fmt.Println("========================================")
	fmt.Printf("Provider: %s  Model: %s  Format: %s\n", cfg.Provider, cfg.Model, cfg.ResponseFormat)
	fmt.Printf("Running %d case(s)...\n\n", len(cases))

	runner := accuracy.NewBenchmarkRunner(client, log)
	results, runErr := runner.RunAll(ctx, cases)
	if runErr != nil {
		log.Warn("benchmark interrupted", zap.Error(runErr), zap.Int("completed", len(results)))
	}

	for _, r := range results {
		fmt.Printf("[%s] %-20s %.2f  %q\n", r.Status, r.CaseID, r.OverallScore, r.Prompt)
		if r.ErrorMessage != "" {
			fmt.Printf("       error: %s\n", r.ErrorMessage)
		} else if r.Status == accuracy.StatusFail && r.Got != nil {
			fmt.Printf("       got valid=%t shape=%s count=%d, want valid=%t shape=%s count=%d\n",
				r.Got.Valid, r.Got.Shape, r.Got.Count,
				r.Expected.Valid, r.Expected.Shape, r.Expected.Count)
		}
	}

	summary := accuracy.Summarize(results)
	fmt.Println("\n========================================")
	fmt.Println(summary)
	fmt.Println("========================================")

	if err := accuracy.ExportResults(results, cfg.Model, outputPath); err != nil {
		return err
	}
	fmt.Printf("Results exported to: %s\n", outputPath)

	if runErr != nil {
		return runErr
	}
	if summary.Accuracy < threshold {
		return fmt.Errorf("accuracy %.2f below threshold %.2f", summary.Accuracy, threshold)
	}
	return nil
}
