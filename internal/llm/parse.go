// ABOUTME: Tolerant decoder for model replies into ClassificationResult
// ABOUTME: Strips one code fence, falls back to brace scanning, then decodes strictly
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/shape-classifier/internal/models"
)

const fence = "```"

var errEmptyReply = errors.New("empty reply")

// wireResult uses pointers so missing or null fields can be told apart from
// zero values.
type wireResult struct {
	Valid *bool             `json:"valid"`
	Error *string           `json:"error"`
	Shape *models.ShapeKind `json:"shape"`
	Count *int32            `json:"count"`
}

// Parse decodes a raw model reply. Any failure is a *DecodeError carrying raw
// unchanged.
func Parse(raw string) (*models.ClassificationResult, error) {
	body := stripFences(raw)

	result, err := decodeResult(body)
	if err == nil {
		return result, nil
	}

	// Prose or an odd fence around the object: try the first balanced object
	if obj, ok := findJSONObject(body); ok && obj != body {
		if result, objErr := decodeResult(obj); objErr == nil {
			return result, nil
		}
	}

	return nil, &DecodeError{RawText: raw, Err: err}
}

// stripFences removes at most one leading fence (with optional language tag)
// and one trailing fence.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		tagEnd := strings.IndexFunc(s, func(r rune) bool { return !isFenceTagRune(r) })
		if tagEnd == -1 {
			tagEnd = len(s)
		}
		s = s[tagEnd:]
	}
	s = strings.TrimSuffix(strings.TrimRightFunc(s, isSpace), fence)

	return strings.TrimSpace(s)
}

func isFenceTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '-' || r == '_' || r == '+' || r == '.'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func decodeResult(body string) (*models.ClassificationResult, error) {
	if body == "" {
		return nil, errEmptyReply
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var missing []string
	if wire.Valid == nil {
		missing = append(missing, "valid")
	}
	if wire.Error == nil {
		missing = append(missing, "error")
	}
	if wire.Shape == nil {
		missing = append(missing, "shape")
	}
	if wire.Count == nil {
		missing = append(missing, "count")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return &models.ClassificationResult{
		Valid: *wire.Valid,
		Error: *wire.Error,
		Shape: *wire.Shape,
		Count: *wire.Count,
	}, nil
}

// findJSONObject returns the first balanced {...} span in input, skipping
// braces inside string literals.
func findJSONObject(input string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return input[start : i+1], true
			}
		}
	}

	return "", false
}
