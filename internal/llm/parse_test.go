// ABOUTME: Tests for the model reply parser
// ABOUTME: Covers fence stripping, brace-scan fallback, and DecodeError raw text

package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/shape-classifier/internal/models"
)

func TestParse_Scenarios(t *testing.T) {
	t.Run("fenced json reply", func(t *testing.T) {
		raw := "```json\n{\"valid\":true,\"error\":\"\",\"shape\":\"Circle\",\"count\":3}\n```"

		result, err := Parse(raw)

		require.NoError(t, err)
		assert.Equal(t, models.ClassificationResult{Valid: true, Error: "", Shape: models.ShapeCircle, Count: 3}, *result)
	})

	t.Run("bare json reply", func(t *testing.T) {
		raw := `{"valid":false,"error":"not a shape","shape":"None","count":0}`

		result, err := Parse(raw)

		require.NoError(t, err)
		assert.Equal(t, models.ClassificationResult{Valid: false, Error: "not a shape", Shape: models.ShapeNone, Count: 0}, *result)
	})

	t.Run("refusal prose", func(t *testing.T) {
		raw := "I cannot help with that."

		result, err := Parse(raw)

		assert.Nil(t, result)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, raw, decodeErr.RawText)
	})
}

func TestParse_RoundTrip(t *testing.T) {
	bodies := []struct {
		body string
		want models.ClassificationResult
	}{
		{`{"valid":true,"error":"","shape":"Square","count":12}`, models.ClassificationResult{Valid: true, Shape: models.ShapeSquare, Count: 12}},
		{`{"valid":true,"error":"","shape":"Triangle","count":-4}`, models.ClassificationResult{Valid: true, Shape: models.ShapeTriangle, Count: -4}},
		{`{"count":0,"shape":"None","error":"empty","valid":false}`, models.ClassificationResult{Valid: false, Error: "empty", Shape: models.ShapeNone}},
		{`{"valid":true,"error":"braces } { in text","shape":"Circle","count":1}`, models.ClassificationResult{Valid: true, Error: "braces } { in text", Shape: models.ShapeCircle, Count: 1}},
	}
	wrappers := map[string]func(string) string{
		"bare":               func(b string) string { return b },
		"padded":             func(b string) string { return "  \n" + b + "\n\t " },
		"json fence":         func(b string) string { return "```json\n" + b + "\n```" },
		"plain fence":        func(b string) string { return "```\n" + b + "\n```" },
		"uppercase tag":      func(b string) string { return "```JSON\n" + b + "\n```\n" },
		"fence same line":    func(b string) string { return "```json" + b + "```" },
		"trailing spaces":    func(b string) string { return "```json\n" + b + "\n```   \n" },
		"leading fence only": func(b string) string { return "```json\n" + b },
	}

	for name, wrap := range wrappers {
		for _, tt := range bodies {
			t.Run(name, func(t *testing.T) {
				result, err := Parse(wrap(tt.body))
				require.NoError(t, err)
				assert.Equal(t, tt.want, *result)
			})
		}
	}
}

func TestParse_DecodeFailuresKeepRawText(t *testing.T) {
	inputs := map[string]string{
		"empty":                "",
		"whitespace":           "   ",
		"fence only":           "```json\n```",
		"unterminated object":  "```json\n{\"valid\":true,\"error\":\"\",\"shape\":\"Circle\"",
		"unbalanced fence":     "```json\n{\"valid\":true,",
		"shape outside enum":   `{"valid":true,"error":"","shape":"Hexagon","count":1}`,
		"lowercase shape":      `{"valid":true,"error":"","shape":"circle","count":1}`,
		"missing count":        `{"valid":true,"error":"","shape":"Circle"}`,
		"missing error":        `{"valid":true,"shape":"Circle","count":1}`,
		"null shape":           `{"valid":true,"error":"","shape":null,"count":1}`,
		"count as string":      `{"valid":true,"error":"","shape":"Circle","count":"3"}`,
		"fractional count":     `{"valid":true,"error":"","shape":"Circle","count":2.5}`,
		"count beyond int32":   `{"valid":true,"error":"","shape":"Circle","count":3000000000}`,
		"valid as string":      `{"valid":"yes","error":"","shape":"Circle","count":1}`,
		"json null":            `null`,
		"nested fences no obj": "```json\n```json\nnot json\n```\n```",
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			result, err := Parse(raw)

			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode), "expected ErrDecode, got %v", err)
			assert.False(t, errors.Is(err, ErrRequest))

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, raw, decodeErr.RawText)
		})
	}
}

func TestParse_BraceScanFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.ClassificationResult
	}{
		{
			name: "prose around object",
			raw:  `Sure! Here is the result: {"valid":true,"error":"","shape":"Square","count":2} Hope that helps.`,
			want: models.ClassificationResult{Valid: true, Shape: models.ShapeSquare, Count: 2},
		},
		{
			name: "fence with explanation after",
			raw:  "```json\n{\"valid\":true,\"error\":\"\",\"shape\":\"Circle\",\"count\":1}\n```\nThe user asked for one circle.",
			want: models.ClassificationResult{Valid: true, Shape: models.ShapeCircle, Count: 1},
		},
		{
			name: "trailing garbage after object",
			raw:  `{"valid":true,"error":"","shape":"Circle","count":3} garbage`,
			want: models.ClassificationResult{Valid: true, Shape: models.ShapeCircle, Count: 3},
		},
		{
			name: "quoted braces before object",
			raw:  `"{" means nothing here {"valid":false,"error":"no shape","shape":"None","count":0}`,
			want: models.ClassificationResult{Valid: false, Error: "no shape", Shape: models.ShapeNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *result)
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", " {} ", "{}"},
		{"json fence", "```json\n{}\n```", "{}"},
		{"only one pair stripped", "```json\n```json\n{}\n```\n```", "```json\n{}\n```"},
		{"trailing fence only", "{}\n```", "{}"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestFindJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"simple", `x {"a":1} y`, `{"a":1}`, true},
		{"nested", `{"a":{"b":2}} tail`, `{"a":{"b":2}}`, true},
		{"escaped quote", `{"a":"\"}"}`, `{"a":"\"}"}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"none", `no braces`, "", false},
		{"stray closer first", `} {"a":1}`, `{"a":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := findJSONObject(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
