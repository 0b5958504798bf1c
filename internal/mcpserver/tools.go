package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/toon-format/toon-go"

	"selfmod/internal/fileproc"
	"selfmod/internal/scanner"
	"selfmod/pkg/models"
)

// AnalyzeInput is the input for the self_analyze tool.
type AnalyzeInput struct {
	Path string `json:"path" jsonschema:"Path to the Python file to analyze."`
}

// PlanInput is the input for the self_plan tool.
type PlanInput struct {
	Path      string `json:"path" jsonschema:"Path to the Python file to plan against."`
	Objective string `json:"objective,omitempty" jsonschema:"Free-text objective, e.g. 'optimize performance and add logging'. Empty selects the default directive."`
}

// ApplyInput is the input for the self_apply tool.
type ApplyInput struct {
	Path      string `json:"path" jsonschema:"Path to the Python file to modify."`
	Objective string `json:"objective,omitempty" jsonschema:"Free-text objective used to build the plan."`
}

// ScanInput is the input for the self_scan tool.
type ScanInput struct {
	Dir string `json:"dir" jsonschema:"Directory to scan for Python files."`
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required"), nil, nil
	}

	report, err := s.engine.Analyze(ctx, input.Path)
	if err != nil {
		return toolError("analysis failed: %v", err), nil, nil
	}
	return toolResult(report)
}

func (s *Server) handlePlan(ctx context.Context, req *mcp.CallToolRequest, input PlanInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required"), nil, nil
	}

	report, err := s.engine.Analyze(ctx, input.Path)
	if err != nil {
		return toolError("analysis failed: %v", err), nil, nil
	}
	plan, err := s.engine.Plan(report, input.Objective)
	if err != nil {
		return toolError("planning failed: %v", err), nil, nil
	}
	return toolResult(plan)
}

func (s *Server) handleApply(ctx context.Context, req *mcp.CallToolRequest, input ApplyInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required"), nil, nil
	}

	report, err := s.engine.Analyze(ctx, input.Path)
	if err != nil {
		return toolError("analysis failed: %v", err), nil, nil
	}
	plan, err := s.engine.Plan(report, input.Objective)
	if err != nil {
		return toolError("planning failed: %v", err), nil, nil
	}
	result, err := s.engine.Apply(ctx, plan)
	if err != nil {
		return toolError("apply failed: %v", err), nil, nil
	}
	return toolResult(result)
}

func (s *Server) handleScan(ctx context.Context, req *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, any, error) {
	if input.Dir == "" {
		return toolError("dir is required"), nil, nil
	}

	sc := scanner.New(s.engine.Config())
	paths, err := sc.ScanDir(input.Dir)
	if err != nil {
		return toolError("scan failed: %v", err), nil, nil
	}
	if len(paths) == 0 {
		return toolError("no Python files found under %s", input.Dir), nil, nil
	}

	reports, procErrs := fileproc.MapPaths(ctx, paths, func(ctx context.Context, path string) (*models.AnalysisReport, error) {
		return s.engine.Analyze(ctx, path)
	}, nil)
	if procErrs != nil && len(reports) == 0 {
		return toolError("scan failed: %v", procErrs), nil, nil
	}
	return toolResult(reports)
}

// toolResult marshals data as TOON text content. TOON keeps tabular data
// compact for model consumption compared to JSON.
func toolResult(data any) (*mcp.CallToolResult, any, error) {
	encoded, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return toolError("failed to encode result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(encoded)},
		},
	}, nil, nil
}

// toolError builds an error result with a formatted message.
func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
