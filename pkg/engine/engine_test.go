package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfmod/pkg/config"
	"selfmod/pkg/models"
)

const sampleSource = `import os
import sys

def greet(name):
    return "hello " + name

def compute(a, b):
    if a > b:
        return a - b
    return a + b

def _helper():
    return 42

class Runner:
    def run(self):
        for i in range(3):
            print(i)
`

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Root = root

	eng, err := New(cfg)
	require.NoError(t, err)
	return eng, root
}

func writeSample(t *testing.T, root, name, source string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestAnalyzeReport(t *testing.T) {
	eng, root := newTestEngine(t)
	writeSample(t, root, "sample.py", sampleSource)

	report, err := eng.Analyze(context.Background(), "sample.py")
	require.NoError(t, err)

	assert.Equal(t, "sample.py", report.FilePath)
	assert.False(t, report.Degraded)
	assert.Equal(t, 4, report.TotalFunctions, "greet, compute, _helper, run")
	assert.Equal(t, 1, report.TotalClasses)
	assert.Equal(t, []string{"os", "sys"}, report.Imports)
	// 4 functions + if + for
	assert.Equal(t, 6, report.ComplexityScore)
	assert.NotEmpty(t, report.SourceDigest)
	assert.NotNil(t, report.Issues)
	assert.False(t, report.Timestamp.IsZero())
}

func TestAnalyzeDeterministic(t *testing.T) {
	eng, root := newTestEngine(t)
	writeSample(t, root, "sample.py", sampleSource)

	a, err := eng.Analyze(context.Background(), "sample.py")
	require.NoError(t, err)
	b, err := eng.Analyze(context.Background(), "sample.py")
	require.NoError(t, err)

	// Identical apart from the timestamp.
	b.Timestamp = a.Timestamp
	assert.Equal(t, a, b)
}

func TestAnalyzeMissingFile(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Analyze(context.Background(), "missing.py")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeSyntaxError(t *testing.T) {
	eng, root := newTestEngine(t)
	writeSample(t, root, "broken.py", "def broken(:\n")

	_, err := eng.Analyze(context.Background(), "broken.py")
	assert.ErrorIs(t, err, ErrParse)
}

func TestAnalyzeDegradedNonSource(t *testing.T) {
	eng, root := newTestEngine(t)
	writeSample(t, root, "notes.txt", "line one\nline two\n")

	report, err := eng.Analyze(context.Background(), "notes.txt")
	require.NoError(t, err)

	assert.True(t, report.Degraded)
	assert.Equal(t, 2, report.LinesOfCode)
	assert.Equal(t, 18, report.FileSize)
	assert.Equal(t, ".txt", report.FileType)
	assert.Empty(t, report.Functions)
	assert.Empty(t, report.SourceDigest)
}

func TestAnalyzeImportsCapped(t *testing.T) {
	eng, root := newTestEngine(t)

	source := ""
	for _, mod := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		source += "import " + mod + "\n"
	}
	writeSample(t, root, "imports.py", source)

	report, err := eng.Analyze(context.Background(), "imports.py")
	require.NoError(t, err)
	assert.Len(t, report.Imports, 10)
	assert.Equal(t, "a", report.Imports[0])
}

func TestApplyPipeline(t *testing.T) {
	eng, root := newTestEngine(t)
	path := writeSample(t, root, "sample.py", sampleSource)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	report, err := eng.Analyze(context.Background(), "sample.py")
	require.NoError(t, err)
	plan, err := eng.Plan(report, "optimize performance and add logging")
	require.NoError(t, err)
	require.Len(t, plan.Directives, 2)

	result, err := eng.Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, result.Success)
	// greet, compute, run for each of the two directives; _helper excluded.
	assert.Equal(t, 6, result.ModificationsCount)
	assert.Equal(t, "Applied 6 modifications", result.Message)
	assert.Contains(t, result.ChangesApplied, "Added performance marker to greet")
	assert.Contains(t, result.ChangesApplied, "Added logging to compute")

	// Backup holds the pre-apply bytes.
	backupPath := filepath.Join(root, result.BackupPath)
	backed, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, original, backed)

	// The mutated file still parses and carries the injected statements.
	mutated, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(mutated), `"[PERF] Function greet optimized"`)
	assert.Contains(t, string(mutated), `print("[LOG] Entering function: compute")`)
	assert.NotContains(t, string(mutated), "_helper optimized")

	report2, err := eng.Analyze(context.Background(), "sample.py")
	require.NoError(t, err)
	assert.Equal(t, report.TotalFunctions, report2.TotalFunctions)
}

func TestApplyNoChangesNeeded(t *testing.T) {
	eng, root := newTestEngine(t)
	path := writeSample(t, root, "private.py", "def _a():\n    pass\n\ndef _b():\n    return 1\n")
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	report, err := eng.Analyze(context.Background(), "private.py")
	require.NoError(t, err)
	plan, err := eng.Plan(report, "optimize")
	require.NoError(t, err)

	result, err := eng.Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "No changes needed", result.Message)
	assert.Empty(t, result.ChangesApplied)

	// File untouched, backup still taken.
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)
	assert.FileExists(t, filepath.Join(root, result.BackupPath))
}

func TestApplyCleanupInert(t *testing.T) {
	eng, root := newTestEngine(t)
	path := writeSample(t, root, "magic.py", "def f():\n    return 42\n")
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	report, err := eng.Analyze(context.Background(), "magic.py")
	require.NoError(t, err)
	plan, err := eng.Plan(report, "clean this up")
	require.NoError(t, err)

	result, err := eng.Apply(context.Background(), plan)
	require.NoError(t, err)

	// Cleanup records the magic number but produces no edits, so the
	// rewritten file keeps the original bytes.
	assert.Equal(t, []string{"Replaced magic number 42"}, result.ChangesApplied)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)
}

func TestApplyMissingFile(t *testing.T) {
	eng, _ := newTestEngine(t)

	plan := &models.Plan{
		FilePath: "gone.py",
		Directives: []models.Directive{
			{Kind: models.DirectiveAddLogging, Description: "x", Risk: models.RiskLow},
		},
	}

	_, err := eng.Apply(context.Background(), plan)
	assert.ErrorIs(t, err, ErrNotFound)

	// No backup directory appears for a failed apply.
	_, statErr := os.Stat(eng.Backups().Dir())
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplyInvalidPlan(t *testing.T) {
	eng, root := newTestEngine(t)
	writeSample(t, root, "a.py", "x = 1\n")

	tests := []struct {
		name string
		plan *models.Plan
	}{
		{"nil plan", nil},
		{"empty file path", &models.Plan{Directives: []models.Directive{{Kind: models.DirectiveAddLogging}}}},
		{"no directives", &models.Plan{FilePath: "a.py"}},
		{"unknown directive", &models.Plan{
			FilePath:   "a.py",
			Directives: []models.Directive{{Kind: "rewrite_everything"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Apply(context.Background(), tt.plan)
			assert.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func TestApplyStaleDigestStillApplies(t *testing.T) {
	eng, root := newTestEngine(t)
	writeSample(t, root, "sample.py", sampleSource)

	report, err := eng.Analyze(context.Background(), "sample.py")
	require.NoError(t, err)
	plan, err := eng.Plan(report, "add logging")
	require.NoError(t, err)

	// File changes between plan and apply; digest mismatch warns but does
	// not block.
	writeSample(t, root, "sample.py", "def other():\n    return 0\n")

	result, err := eng.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"Added logging to other"}, result.ChangesApplied)
}

func TestApplyWritePolicyDenied(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Root = root

	denied := errors.New("read-only tree")
	eng, err := New(cfg, WithWritePolicy(policyFunc(func(string) error { return denied })))
	require.NoError(t, err)

	writeSample(t, root, "a.py", "def f():\n    pass\n")

	plan := &models.Plan{
		FilePath: "a.py",
		Directives: []models.Directive{
			{Kind: models.DirectiveAddLogging, Description: "x", Risk: models.RiskLow},
		},
	}
	_, err = eng.Apply(context.Background(), plan)
	assert.ErrorIs(t, err, ErrWriteDenied)
}

type policyFunc func(string) error

func (f policyFunc) Allow(path string) error { return f(path) }

func TestApplyNonIdempotent(t *testing.T) {
	eng, root := newTestEngine(t)
	writeSample(t, root, "sample.py", "def f():\n    return 1\n")

	run := func() *models.ApplyResult {
		report, err := eng.Analyze(context.Background(), "sample.py")
		require.NoError(t, err)
		plan, err := eng.Plan(report, "optimize")
		require.NoError(t, err)
		result, err := eng.Apply(context.Background(), plan)
		require.NoError(t, err)
		return result
	}

	run()
	run()

	data, err := os.ReadFile(filepath.Join(root, "sample.py"))
	require.NoError(t, err)

	// Applying twice stacks two markers; there is no dedup.
	assert.Equal(t, 2, strings.Count(string(data), `"[PERF]`))
}

func TestInlineFunctionLoggingEndToEnd(t *testing.T) {
	eng, root := newTestEngine(t)
	path := writeSample(t, root, "sample.py", "def public_fn(x): return x + 1\n\ndef _helper(): pass\n")

	report, err := eng.Analyze(context.Background(), "sample.py")
	require.NoError(t, err)
	require.Len(t, report.Functions, 2)
	assert.Equal(t, "public_fn", report.Functions[0].Name)
	assert.Equal(t, 1, report.Functions[0].Args)
	assert.False(t, report.Functions[0].IsAsync)
	assert.Equal(t, "_helper", report.Functions[1].Name)
	assert.Equal(t, 0, report.Functions[1].Args)
	assert.Equal(t, 2, report.ComplexityScore)
	assert.Empty(t, report.Issues)

	plan, err := eng.Plan(report, "add logging for debug")
	require.NoError(t, err)
	require.Equal(t, []models.Directive{{
		Kind:        models.DirectiveAddLogging,
		Description: "Add logging to function entries",
		Risk:        models.RiskLow,
	}}, plan.Directives)

	result, err := eng.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"Added logging to public_fn"}, result.ChangesApplied)
	assert.Equal(t, 1, result.ModificationsCount)

	mutated, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"def public_fn(x): print(\"[LOG] Entering function: public_fn\"); return x + 1\n\ndef _helper(): pass\n",
		string(mutated))

	backed, err := os.ReadFile(filepath.Join(root, result.BackupPath))
	require.NoError(t, err)
	assert.Equal(t, "def public_fn(x): return x + 1\n\ndef _helper(): pass\n", string(backed))
	assert.Regexp(t, `sample_\d{8}_\d{6}\.bak$`, result.BackupPath)
}

func TestRelativeToRoot(t *testing.T) {
	assert.Equal(t, "backups/a.bak", relativeToRoot("/proj", "/proj/backups/a.bak"))
	assert.Equal(t, "/other/a.bak", relativeToRoot("/proj", "/other/a.bak"))
}
