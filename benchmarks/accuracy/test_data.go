// ABOUTME: Labeled prompts for the accuracy benchmark
// ABOUTME: Built-in cases plus a YAML loader for custom case files

package accuracy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harper/shape-classifier/internal/models"
)

// TestCase is one labeled prompt
type TestCase struct {
	ID       string      `yaml:"id" json:"id"`
	Name     string      `yaml:"name" json:"name"`
	Prompt   string      `yaml:"prompt" json:"prompt"`
	Expected Expectation `yaml:"expected" json:"expected"`
}

// Expectation is the result a correct classifier returns for a case.
// Shape and Count are only scored when Valid is true.
type Expectation struct {
	Valid bool             `yaml:"valid" json:"valid"`
	Shape models.ShapeKind `yaml:"shape" json:"shape"`
	Count int32            `yaml:"count" json:"count"`
}

// TestResult is the scored outcome of one case
type TestResult struct {
	CaseID        string                       `json:"case_id"`
	CaseName      string                       `json:"case_name"`
	Prompt        string                       `json:"prompt"`
	Expected      Expectation                  `json:"expected"`
	Got           *models.ClassificationResult `json:"got,omitempty"`
	ValidityScore float64                      `json:"validity_score"`
	ShapeScore    float64                      `json:"shape_score"`
	CountScore    float64                      `json:"count_score"`
	OverallScore  float64                      `json:"overall_score"`
	Status        string                       `json:"status"` // PASS, FAIL or ERROR
	ErrorMessage  string                       `json:"error_message,omitempty"`
	LatencyMS     int64                        `json:"latency_ms"`
}

type caseFile struct {
	Cases []TestCase `yaml:"cases"`
}

// GetAllCases returns the built-in case set
func GetAllCases() []TestCase {
	return []TestCase{
		{ID: "circle_3", Name: "Plain count", Prompt: "draw three circles",
			Expected: Expectation{Valid: true, Shape: models.ShapeCircle, Count: 3}},
		{ID: "square_digits", Name: "Digit count", Prompt: "I want 7 squares",
			Expected: Expectation{Valid: true, Shape: models.ShapeSquare, Count: 7}},
		{ID: "triangle_single", Name: "Implicit count of one", Prompt: "a triangle please",
			Expected: Expectation{Valid: true, Shape: models.ShapeTriangle, Count: 1}},
		{ID: "circle_synonym", Name: "Descriptive shape", Prompt: "give me a dozen round dots",
			Expected: Expectation{Valid: true, Shape: models.ShapeCircle, Count: 12}},
		{ID: "square_noise", Name: "Extra detail ignored", Prompt: "can you put four big blue squares on the screen?",
			Expected: Expectation{Valid: true, Shape: models.ShapeSquare, Count: 4}},
		{ID: "unsupported_shape", Name: "Unsupported shape", Prompt: "draw five hexagons",
			Expected: Expectation{Valid: false, Shape: models.ShapeNone}},
		{ID: "mixed_shapes", Name: "More than one shape", Prompt: "two circles and three squares",
			Expected: Expectation{Valid: false, Shape: models.ShapeNone}},
		{ID: "off_topic", Name: "Not about shapes", Prompt: "what's the weather like tomorrow?",
			Expected: Expectation{Valid: false, Shape: models.ShapeNone}},
	}
}

// LoadCases reads a YAML case file of the form
//
//	cases:
//	  - id: circle_3
//	    prompt: draw three circles
//	    expected: {valid: true, shape: Circle, count: 3}
func LoadCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}

	var file caseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing case file %s: %w", path, err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("case file %s has no cases", path)
	}

	seen := make(map[string]bool, len(file.Cases))
	for i := range file.Cases {
		tc := &file.Cases[i]
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("case_%d", i+1)
		}
		if tc.Name == "" {
			tc.Name = tc.ID
		}
		if seen[tc.ID] {
			return nil, fmt.Errorf("duplicate case id %q", tc.ID)
		}
		seen[tc.ID] = true

		if tc.Prompt == "" {
			return nil, fmt.Errorf("case %q: prompt is required", tc.ID)
		}
		if tc.Expected.Shape == "" {
			tc.Expected.Shape = models.ShapeNone
		}
		if !tc.Expected.Shape.IsValid() {
			return nil, fmt.Errorf("case %q: unknown shape %q", tc.ID, tc.Expected.Shape)
		}
		if tc.Expected.Count < 0 {
			return nil, fmt.Errorf("case %q: count must not be negative", tc.ID)
		}
	}

	return file.Cases, nil
}

// FindCase returns the case with the given id
func FindCase(cases []TestCase, id string) (TestCase, bool) {
	for _, tc := range cases {
		if tc.ID == id {
			return tc, true
		}
	}
	return TestCase{}, false
}
