package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mzielinska/rarog/internal/command"
	"github.com/mzielinska/rarog/internal/config"
	"github.com/mzielinska/rarog/internal/errors"
	"github.com/mzielinska/rarog/internal/registry"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	reg *registry.Registry
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(reg *registry.Registry, cfg *config.Config) *Handlers {
	return &Handlers{reg: reg, cfg: cfg}
}

// CommandRequest represents the arguments of a command tool call.
type CommandRequest struct {
	Argument string `json:"argument,omitempty"`
}

// CommandResponse is the success payload of a command tool call.
type CommandResponse struct {
	Command string         `json:"command"`
	Type    string         `json:"type"`
	Content string         `json:"content"`
	Data    map[string]any `json:"data,omitempty"`
}

// HandleCommand returns the handler for one named command unit.
func (h *Handlers) HandleCommand(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := decode[CommandRequest](req)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}

		unit, ok := h.reg.Resolve(name)
		if !ok {
			return errorResult(errors.NewNotFound("command", name)), nil
		}

		timeout := time.Duration(h.cfg.CommandTimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = time.Duration(config.DefaultCommandTimeoutSecs) * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		env := &command.Env{
			Model:          h.cfg.Model,
			MaxScanEntries: h.cfg.MaxScanEntries,
		}

		res := unit.Execute(ctx, input.Argument, env)
		if res.Failed() {
			return errorResult(errors.NewCommandFailed(name, res.Err)), nil
		}

		return successResult(CommandResponse{
			Command: name,
			Type:    res.Type,
			Content: res.Content,
			Data:    res.Data,
		})
	}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to avoid leaking paths.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if rErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    rErr.Code,
			"message": rErr.Message,
		}
		if rErr.Code != errors.ErrInternal && rErr.Details != nil {
			errorObj["details"] = rErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
