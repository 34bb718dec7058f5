// ABOUTME: Shape classification result types returned by the model
// ABOUTME: Defines the closed ShapeKind enumeration and ClassificationResult
package models

import (
	"encoding/json"
	"fmt"
)

// ShapeKind is the recognized geometric shape category
type ShapeKind string

const (
	// ShapeNone means the description named no shape
	ShapeNone     ShapeKind = "None"
	ShapeCircle   ShapeKind = "Circle"
	ShapeSquare   ShapeKind = "Square"
	ShapeTriangle ShapeKind = "Triangle"
)

// AllShapeKinds returns every ShapeKind in schema order
func AllShapeKinds() []ShapeKind {
	return []ShapeKind{ShapeNone, ShapeCircle, ShapeSquare, ShapeTriangle}
}

// IsValid reports whether s is one of the enumerated kinds
func (s ShapeKind) IsValid() bool {
	switch s {
	case ShapeNone, ShapeCircle, ShapeSquare, ShapeTriangle:
		return true
	}
	return false
}

func (s ShapeKind) String() string {
	return string(s)
}

// UnmarshalJSON accepts only the exact enumerated names
func (s *ShapeKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("shape must be a string: %w", err)
	}
	kind := ShapeKind(raw)
	if !kind.IsValid() {
		return fmt.Errorf("unknown shape %q", raw)
	}
	*s = kind
	return nil
}

// ClassificationResult is the decoded model reply
type ClassificationResult struct {
	// Valid is false when the model judged the prompt unclassifiable
	Valid bool `json:"valid"`

	// Error explains a rejection; usually empty when Valid is true
	Error string    `json:"error"`
	Shape ShapeKind `json:"shape"`

	// Count comes straight from the model and may be zero or negative.
	// Values outside int32 fail to decode.
	Count int32 `json:"count"`
}
