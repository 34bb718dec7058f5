// ABOUTME: CLI command to print the result schema
// ABOUTME: Optionally prints the full system prompt sent to the model
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/models"
)

var schemaPrompt bool

// NewSchemaCmd creates the schema command
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the classification result schema",
		Long: `Print the JSON Schema the model is asked to follow.

With --prompt, prints the complete system prompt instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := models.SchemaDescription()
			if schemaPrompt {
				out = llm.SystemPrompt()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&schemaPrompt, "prompt", false, "Print the full system prompt")

	return cmd
}
