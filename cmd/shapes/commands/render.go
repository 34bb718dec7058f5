// ABOUTME: Output helpers shared by classify and watch
// ABOUTME: Renders outcomes as a status line or indented JSON
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harper/shape-classifier/internal/core"
	"github.com/harper/shape-classifier/internal/mcp"
)

func renderOutcome(w io.Writer, outcome core.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(mcp.NewOutcomeView(outcome))
	}
	_, err := fmt.Fprintln(w, outcome.Summary())
	return err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
