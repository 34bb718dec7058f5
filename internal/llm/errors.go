// ABOUTME: Error taxonomy for classification attempts
// ABOUTME: Separates failed round trips from replies that did not match the schema
package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrRequest matches any *RequestError via errors.Is
	ErrRequest = errors.New("classification request failed")
	// ErrDecode matches any *DecodeError via errors.Is
	ErrDecode = errors.New("classification reply could not be decoded")

	errNoChoices = errors.New("no completion choices returned")
)

// RequestError means the remote call itself failed: network, auth, rate
// limit, provider-side error or timeout.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRequest, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == ErrRequest }

// DecodeError means the call succeeded but the reply did not conform to the
// schema. RawText is the reply exactly as received.
type DecodeError struct {
	RawText string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
