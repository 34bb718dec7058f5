// ABOUTME: MCP tool handler implementations for the shape classifier
// ABOUTME: Bridges tool calls onto the Dispatcher trigger and ResultStore poll
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/core"
	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	dispatcher *core.Dispatcher
	logger     *zap.Logger
}

// ClassifyResponse is returned by classify_shape
type ClassifyResponse struct {
	AttemptID string `json:"attempt_id"`
	Accepted  bool   `json:"accepted"`
}

// PollResponse is returned by poll_result
type PollResponse struct {
	Status  string       `json:"status"`
	Busy    bool         `json:"busy"`
	Version uint64       `json:"version"`
	Outcome *OutcomeView `json:"outcome,omitempty"`
}

// OutcomeView is the JSON form of core.Outcome
type OutcomeView struct {
	AttemptID   string                       `json:"attempt_id"`
	Prompt      string                       `json:"prompt"`
	Kind        core.OutcomeKind             `json:"kind"`
	Result      *models.ClassificationResult `json:"result,omitempty"`
	Error       string                       `json:"error,omitempty"`
	RawReply    string                       `json:"raw_reply,omitempty"`
	CompletedAt time.Time                    `json:"completed_at"`
}

// NewOutcomeView converts an outcome for display
func NewOutcomeView(o core.Outcome) *OutcomeView {
	view := &OutcomeView{
		AttemptID:   o.AttemptID,
		Prompt:      o.Prompt,
		Kind:        o.Kind(),
		CompletedAt: o.CompletedAt,
	}
	if o.Succeeded() {
		result := o.Result
		view.Result = &result
		return view
	}

	view.Error = o.Err.Error()
	var decodeErr *llm.DecodeError
	if errors.As(o.Err, &decodeErr) {
		view.RawReply = decodeErr.RawText
	}
	return view
}

// ClassifyShape handles the classify_shape tool
func (h *Handlers) ClassifyShape(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("prompt argument is required and must be a string"), nil
	}

	attemptID, err := h.dispatcher.Trigger(prompt)
	switch {
	case errors.Is(err, core.ErrBusy):
		return mcp.NewToolResultError("a classification is already in flight; poll_result until busy is false"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("classification not started: %v", err)), nil
	}

	return jsonResult(ClassifyResponse{AttemptID: attemptID, Accepted: true})
}

// PollResult handles the poll_result tool
func (h *Handlers) PollResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outcome, version, ok := h.dispatcher.Store().Snapshot()

	response := PollResponse{
		Status:  core.StatusNoResult,
		Busy:    h.dispatcher.IsBusy(),
		Version: version,
	}
	if ok {
		response.Status = outcome.Summary()
		response.Outcome = NewOutcomeView(outcome)
	}

	return jsonResult(response)
}

// ShapeSchema handles the shape_schema tool
func (h *Handlers) ShapeSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(models.SchemaDescription()), nil
}

// Shutdown waits for in-flight classifications to land in the store
func (h *Handlers) Shutdown(ctx context.Context) error {
	h.logger.Info("waiting for in-flight classifications to complete")
	if err := h.dispatcher.Close(ctx); err != nil {
		return fmt.Errorf("waiting for classifications: %w", err)
	}
	h.logger.Info("all classifications completed")
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
