// ABOUTME: Machine-readable description of the classification reply schema
// ABOUTME: Single field table feeds the prompt text and provider-native schemas
package models

import (
	"encoding/json"
)

// SchemaField describes one required property of ClassificationResult
type SchemaField struct {
	Name        string
	Type        string // JSON Schema primitive: boolean, string, integer
	Description string
	Enum        []string
}

// SchemaFields returns the reply properties in declaration order
func SchemaFields() []SchemaField {
	shapes := make([]string, 0, 4)
	for _, k := range AllShapeKinds() {
		shapes = append(shapes, string(k))
	}

	return []SchemaField{
		{
			Name:        "valid",
			Type:        "boolean",
			Description: "true if the description could be classified as a shape request",
		},
		{
			Name:        "error",
			Type:        "string",
			Description: "why the description is not valid; empty string when valid is true",
		},
		{
			Name:        "shape",
			Type:        "string",
			Description: "the shape the user described",
			Enum:        shapes,
		},
		{
			Name:        "count",
			Type:        "integer",
			Description: "how many of the shape the user asked for",
		},
	}
}

type schemaProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

type schemaDocument struct {
	Title                string                    `json:"title"`
	Type                 string                    `json:"type"`
	Properties           map[string]schemaProperty `json:"properties"`
	Required             []string                  `json:"required"`
	AdditionalProperties bool                      `json:"additionalProperties"`
}

// SchemaDescription returns the reply schema as a JSON Schema document.
// Output is deterministic: map keys are sorted by encoding/json.
func SchemaDescription() string {
	fields := SchemaFields()
	doc := schemaDocument{
		Title:      "ClassificationResult",
		Type:       "object",
		Properties: make(map[string]schemaProperty, len(fields)),
		Required:   make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		doc.Properties[f.Name] = schemaProperty{
			Type:        f.Type,
			Description: f.Description,
			Enum:        f.Enum,
		}
		doc.Required = append(doc.Required, f.Name)
	}

	// Only plain strings and slices above; Marshal cannot fail
	out, _ := json.Marshal(doc)
	return string(out)
}
