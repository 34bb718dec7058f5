// ABOUTME: Runs benchmark cases through a classifier and exports results
// ABOUTME: Cases run one at a time so latency numbers stay comparable

package accuracy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/core"
	"github.com/harper/shape-classifier/internal/models"
)

// ClassifierOutput pairs a classifier reply with its error
type ClassifierOutput struct {
	Result *models.ClassificationResult
	Err    error
}

// BenchmarkRunner executes accuracy cases
type BenchmarkRunner struct {
	classifier core.Classifier
	metrics    *MetricsCalculator
	logger     *zap.Logger
}

// NewBenchmarkRunner creates a runner around classifier
func NewBenchmarkRunner(classifier core.Classifier, logger *zap.Logger) *BenchmarkRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BenchmarkRunner{
		classifier: classifier,
		metrics:    NewMetricsCalculator(),
		logger:     logger.Named("benchmark"),
	}
}

// RunCase classifies one prompt and scores it
func (r *BenchmarkRunner) RunCase(ctx context.Context, tc TestCase) TestResult {
	start := time.Now()
	res, err := r.classifier.Classify(ctx, tc.Prompt)
	latency := time.Since(start)

	result := r.metrics.Evaluate(tc, &ClassifierOutput{Result: res, Err: err})
	result.LatencyMS = latency.Milliseconds()

	r.logger.Debug("case finished",
		zap.String("case_id", tc.ID),
		zap.String("status", result.Status),
		zap.Float64("score", result.OverallScore),
		zap.Duration("latency", latency))

	return result
}

// RunAll runs every case in order. On cancellation it returns the results
// gathered so far along with the context error.
func (r *BenchmarkRunner) RunAll(ctx context.Context, cases []TestCase) ([]TestResult, error) {
	results := make([]TestResult, 0, len(cases))
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, r.RunCase(ctx, tc))
	}
	return results, nil
}

// Report is the exported JSON document
type Report struct {
	Timestamp string       `json:"timestamp"`
	Model     string       `json:"model,omitempty"`
	Summary   Summary      `json:"summary"`
	Results   []TestResult `json:"results"`
}

// ExportResults writes results and their summary to outputPath as JSON
func ExportResults(results []TestResult, model, outputPath string) error {
	report := Report{
		Timestamp: time.Now().Format(time.RFC3339),
		Model:     model,
		Summary:   Summarize(results),
		Results:   results,
	}

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
