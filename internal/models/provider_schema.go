// ABOUTME: Provider-native forms of the reply schema
// ABOUTME: go-openai jsonschema for structured outputs and genai.Schema for Gemini
package models

import (
	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

// SchemaDefinition returns the reply schema for OpenAI strict structured
// output. It describes the same document as SchemaDescription, minus the title.
func SchemaDefinition() jsonschema.Definition {
	fields := SchemaFields()
	def := jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           make(map[string]jsonschema.Definition, len(fields)),
		Required:             make([]string, 0, len(fields)),
		AdditionalProperties: false,
	}

	for _, f := range fields {
		def.Properties[f.Name] = jsonschema.Definition{
			Type:        jsonschema.DataType(f.Type),
			Description: f.Description,
			Enum:        f.Enum,
		}
		def.Required = append(def.Required, f.Name)
	}

	return def
}

// GeminiSchema returns the reply schema as a genai response schema. Property
// order follows SchemaFields.
func GeminiSchema() *genai.Schema {
	fields := SchemaFields()
	schema := &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       make(map[string]*genai.Schema, len(fields)),
		Required:         make([]string, 0, len(fields)),
		PropertyOrdering: make([]string, 0, len(fields)),
	}

	for _, f := range fields {
		prop := &genai.Schema{
			Description: f.Description,
			Enum:        f.Enum,
		}
		switch f.Type {
		case "boolean":
			prop.Type = genai.TypeBoolean
		case "integer":
			prop.Type = genai.TypeInteger
		default:
			prop.Type = genai.TypeString
		}
		schema.Properties[f.Name] = prop
		schema.Required = append(schema.Required, f.Name)
		schema.PropertyOrdering = append(schema.PropertyOrdering, f.Name)
	}

	return schema
}
