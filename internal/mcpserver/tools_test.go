package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfmod/pkg/config"
	"selfmod/pkg/engine"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Root = root

	eng, err := engine.New(cfg)
	require.NoError(t, err)
	return NewServer("test", eng), root
}

func writePython(t *testing.T, root, name, source string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(source), 0o644))
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be text")
	return text.Text
}

func TestHandleAnalyze(t *testing.T) {
	s, root := newTestServer(t)
	writePython(t, root, "app.py", "def run(task):\n    return task\n")

	res, _, err := s.handleAnalyze(context.Background(), nil, AnalyzeInput{Path: "app.py"})
	require.NoError(t, err)

	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "app.py")
	assert.Contains(t, text, "run")
}

func TestHandleAnalyzeEmptyPath(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleAnalyze(context.Background(), nil, AnalyzeInput{})
	require.NoError(t, err)

	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "path is required")
}

func TestHandleAnalyzeMissingFile(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleAnalyze(context.Background(), nil, AnalyzeInput{Path: "gone.py"})
	require.NoError(t, err, "tool failures surface as error results, not Go errors")

	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "analysis failed")
}

func TestHandlePlan(t *testing.T) {
	s, root := newTestServer(t)
	writePython(t, root, "app.py", "def run(task):\n    return task\n")

	res, _, err := s.handlePlan(context.Background(), nil, PlanInput{
		Path:      "app.py",
		Objective: "add logging",
	})
	require.NoError(t, err)

	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "add_logging")
	assert.Contains(t, text, "add logging")
}

func TestHandlePlanEmptyPath(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handlePlan(context.Background(), nil, PlanInput{Objective: "optimize"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleApply(t *testing.T) {
	s, root := newTestServer(t)
	writePython(t, root, "app.py", "def run(task):\n    return task\n")

	res, _, err := s.handleApply(context.Background(), nil, ApplyInput{
		Path:      "app.py",
		Objective: "optimize performance",
	})
	require.NoError(t, err)

	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Applied 1 modifications")

	mutated, err := os.ReadFile(filepath.Join(root, "app.py"))
	require.NoError(t, err)
	assert.Contains(t, string(mutated), `"[PERF] Function run optimized"`)
}

func TestHandleApplyMissingFile(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleApply(context.Background(), nil, ApplyInput{Path: "gone.py"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleScan(t *testing.T) {
	s, root := newTestServer(t)
	writePython(t, root, "a.py", "def f():\n    pass\n")
	writePython(t, root, "sub/b.py", "def g():\n    pass\n")

	res, _, err := s.handleScan(context.Background(), nil, ScanInput{Dir: root})
	require.NoError(t, err)

	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "a.py")
	assert.Contains(t, text, "b.py")
}

func TestHandleScanNoFiles(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleScan(context.Background(), nil, ScanInput{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "no Python files found")
}

func TestHandleScanEmptyDir(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleScan(context.Background(), nil, ScanInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "dir is required")
}
