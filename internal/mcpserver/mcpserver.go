// Package mcpserver exposes the self-modification pipeline as MCP tools over
// stdio, so agent hosts can call analyze/plan/apply without a shell.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"selfmod/pkg/engine"
)

// Server wraps the MCP server and registers the pipeline tools.
type Server struct {
	server *mcp.Server
	engine *engine.Engine
}

// NewServer creates an MCP server backed by the given engine.
func NewServer(version string, eng *engine.Engine) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "selfmod",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, engine: eng}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the pipeline tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "self_analyze",
		Description: "Parse a Python file and report its structure: functions " +
			"(name, line, argument count, async flag), classes, imports, a " +
			"complexity score, and flagged issues such as overlong functions.",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "self_plan",
		Description: "Analyze a Python file and turn a free-text objective into " +
			"an ordered list of modification directives (performance markers, " +
			"logging injection, code cleanup). Deterministic for a given " +
			"objective and file.",
	}, s.handlePlan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "self_apply",
		Description: "Apply a modification plan to a Python file. The file is " +
			"backed up before any mutation and overwritten atomically. Returns " +
			"the backup path and one change record per mutation.",
	}, s.handleApply)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "self_scan",
		Description: "Analyze every Python file under a directory in parallel " +
			"and return per-file structure reports.",
	}, s.handleScan)
}
