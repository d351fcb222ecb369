// Package mcp exposes machine-callable command units as MCP tools
// over stdio, so agent clients can run the same analyses the chat
// loop offers.
package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mzielinska/rarog/internal/config"
	"github.com/mzielinska/rarog/internal/registry"
)

// ToolPrefix namespaces every generated tool name.
const ToolPrefix = "command_"

// NewServer creates an MCP server with one tool per machine-callable
// command unit. Disabled commands never reach the registry, so they
// never become tools either.
func NewServer(reg *registry.Registry, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"rarog",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(reg, cfg)

	for _, desc := range reg.Descriptors() {
		if !desc.MachineCallable {
			continue
		}
		def := mcp.NewTool(
			ToolPrefix+desc.Name,
			mcp.WithDescription(desc.Description),
			mcp.WithString("argument",
				mcp.Description(fmt.Sprintf("Raw argument text, as typed after %q in chat", desc.Name+":")),
			),
		)
		s.AddTool(def, h.HandleCommand(desc.Name))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(reg *registry.Registry, cfg *config.Config, version string) error {
	s := NewServer(reg, cfg, version)
	return server.ServeStdio(s)
}
