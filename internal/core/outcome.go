// ABOUTME: Outcome of one classification attempt, success or typed failure
// ABOUTME: Values are immutable once built and safe to copy across goroutines
package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/models"
)

// StatusNoResult is shown before any attempt has completed
const StatusNoResult = "no result yet"

// OutcomeKind tags which branch of an Outcome is populated
type OutcomeKind string

const (
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeRequestFailed OutcomeKind = "request_failed"
	OutcomeDecodeFailed  OutcomeKind = "decode_failed"
)

// Outcome is the result of one completed attempt. Exactly one of Result
// (when Err is nil) or Err is meaningful.
type Outcome struct {
	AttemptID   string
	Prompt      string
	Result      models.ClassificationResult
	Err         error
	CompletedAt time.Time
}

// Success builds a successful outcome
func Success(attemptID, prompt string, result models.ClassificationResult) Outcome {
	return Outcome{
		AttemptID:   attemptID,
		Prompt:      prompt,
		Result:      result,
		CompletedAt: time.Now(),
	}
}

// Failure builds a failed outcome; err should be an *llm.RequestError or
// *llm.DecodeError
func Failure(attemptID, prompt string, err error) Outcome {
	return Outcome{
		AttemptID:   attemptID,
		Prompt:      prompt,
		Err:         err,
		CompletedAt: time.Now(),
	}
}

// Succeeded reports whether the attempt produced a result
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Kind classifies the outcome. Errors outside the llm taxonomy count as
// request failures.
func (o Outcome) Kind() OutcomeKind {
	switch {
	case o.Err == nil:
		return OutcomeSuccess
	case errors.Is(o.Err, llm.ErrDecode):
		return OutcomeDecodeFailed
	default:
		return OutcomeRequestFailed
	}
}

// Summary renders a one-line human readable status
func (o Outcome) Summary() string {
	switch o.Kind() {
	case OutcomeSuccess:
		if !o.Result.Valid {
			return fmt.Sprintf("rejected: %s", o.Result.Error)
		}
		return fmt.Sprintf("classified: %d x %s", o.Result.Count, o.Result.Shape)
	case OutcomeDecodeFailed:
		return fmt.Sprintf("could not decode reply: %v", o.Err)
	default:
		return fmt.Sprintf("request failed: %v", o.Err)
	}
}
