// ABOUTME: Main entry point for the shape classifier MCP server with stdio transport
// ABOUTME: Equivalent to "shapes mcp" for hosts that expect a dedicated binary
package main

import (
	"fmt"
	"os"

	"github.com/harper/shape-classifier/cmd/shapes/commands"
)

func main() {
	root := commands.NewRootCmd()
	root.SetArgs(append([]string{"mcp"}, os.Args[1:]...))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
