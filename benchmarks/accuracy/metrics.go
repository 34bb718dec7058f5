// ABOUTME: Scoring for the accuracy benchmark
// ABOUTME: Deterministic comparison of classifier output against labels

package accuracy

import (
	"fmt"
)

// Result statuses
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// MetricsCalculator scores classifier output against expectations
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// Evaluate scores one case. A classifier error scores zero across the
// board. When a prompt should be rejected only validity is compared, and
// shape and count follow that score.
func (m *MetricsCalculator) Evaluate(tc TestCase, got *ClassifierOutput) TestResult {
	result := TestResult{
		CaseID:   tc.ID,
		CaseName: tc.Name,
		Prompt:   tc.Prompt,
		Expected: tc.Expected,
		Status:   StatusError,
	}

	if got.Err != nil || got.Result == nil {
		result.ErrorMessage = errorMessage(got)
		return result
	}
	result.Got = got.Result

	result.ValidityScore = boolScore(got.Result.Valid == tc.Expected.Valid)
	if tc.Expected.Valid {
		result.ShapeScore = boolScore(got.Result.Valid && got.Result.Shape == tc.Expected.Shape)
		result.CountScore = boolScore(got.Result.Valid && got.Result.Count == tc.Expected.Count)
	} else {
		result.ShapeScore = result.ValidityScore
		result.CountScore = result.ValidityScore
	}

	result.OverallScore = (result.ValidityScore + result.ShapeScore + result.CountScore) / 3.0

	result.Status = StatusFail
	if result.OverallScore == 1.0 {
		result.Status = StatusPass
	}
	return result
}

func errorMessage(got *ClassifierOutput) string {
	if got.Err != nil {
		return got.Err.Error()
	}
	return "classifier returned no result"
}

func boolScore(ok bool) float64 {
	if ok {
		return 1.0
	}
	return 0.0
}

// Summary aggregates a run
type Summary struct {
	Total     int     `json:"total"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Errored   int     `json:"errored"`
	Accuracy  float64 `json:"accuracy"`
	MeanScore float64 `json:"mean_score"`
}

// Summarize computes accuracy (share of passing cases) and mean overall score
func Summarize(results []TestResult) Summary {
	s := Summary{Total: len(results)}
	if s.Total == 0 {
		return s
	}

	var scoreSum float64
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		default:
			s.Errored++
		}
		scoreSum += r.OverallScore
	}

	s.Accuracy = float64(s.Passed) / float64(s.Total)
	s.MeanScore = scoreSum / float64(s.Total)
	return s
}

// String renders the summary for terminal output
func (s Summary) String() string {
	return fmt.Sprintf("%d/%d passed (%.0f%%), %d failed, %d errored, mean score %.2f",
		s.Passed, s.Total, s.Accuracy*100, s.Failed, s.Errored, s.MeanScore)
}
