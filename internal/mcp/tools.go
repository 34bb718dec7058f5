// ABOUTME: MCP tool definitions and registration for the shape classifier
// ABOUTME: Exposes trigger, poll, and schema tools over the MCP server
package mcp

import (
	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, dispatcher *core.Dispatcher, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	handlers := &Handlers{
		dispatcher: dispatcher,
		logger:     logger.Named("mcp"),
	}

	// 1. classify_shape - start a classification in the background
	server.AddTool(mcp.Tool{
		Name:        "classify_shape",
		Description: "Start classifying a free-text shape description. Returns immediately with an attempt ID; call poll_result to read the outcome.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "Description of the shapes to classify, e.g. \"three red circles\"",
				},
			},
			Required: []string{"prompt"},
		},
	}, handlers.ClassifyShape)

	// 2. poll_result - non-blocking read of the latest outcome
	server.AddTool(mcp.Tool{
		Name:        "poll_result",
		Description: "Read the most recently completed classification outcome without waiting. Reports whether a classification is still in flight.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.PollResult)

	// 3. shape_schema - the JSON schema the model is asked to follow
	server.AddTool(mcp.Tool{
		Name:        "shape_schema",
		Description: "Return the JSON schema classification replies must follow.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ShapeSchema)

	return handlers
}
