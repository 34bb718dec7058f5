// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Exposes classify_shape, poll_result and shape_schema over stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the classifier as an MCP (Model Context Protocol) server over stdio.
Agents call classify_shape to start an attempt and poll_result to read
the latest outcome.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "shapes": {
  #       "command": "shapes",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	server := mcpserver.NewMCPServer("Shape Classifier", versionInfo.Version)
	handlers := mcp.RegisterTools(server, a.dispatcher, a.logger)

	a.logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	return awaitShutdown(ctx, serverErr, handlers, a.logger)
}

// awaitShutdown blocks until ctx ends or the server stops, then waits for
// in-flight attempts either way. A server error is returned after that wait.
func awaitShutdown(ctx context.Context, serverErr <-chan error, handlers *mcp.Handlers, logger *zap.Logger) error {
	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-serverErr:
		if err != nil {
			err = fmt.Errorf("server error: %w", err)
			logger.Error("MCP server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if shutdownErr := handlers.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("attempts still running at shutdown", zap.Error(shutdownErr))
	}
	logger.Info("shutdown complete")
	return err
}
