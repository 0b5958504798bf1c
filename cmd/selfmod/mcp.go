package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"selfmod/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the pipeline
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "selfmod": {
        "command": "selfmod",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - self_analyze   Report a Python file's structure and issues
  - self_plan      Turn an objective into a modification plan
  - self_apply     Apply a plan with an unconditional backup
  - self_scan      Analyze every Python file under a directory`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version, eng)
	return server.Run(context.Background())
}
