// Package engine implements the self-modification pipeline: analyze a source
// file into structural facts, synthesize a modification plan from an
// objective, and apply the plan's directives back onto the file with an
// unconditional backup before any overwrite.
package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"selfmod/pkg/config"
	"selfmod/pkg/models"
	"selfmod/pkg/parser"
)

// WritePolicy is consulted before the engine mutates a file. Implementations
// live outside this package; the default allows every path.
type WritePolicy interface {
	// Allow returns a non-nil error to veto writes to path.
	Allow(path string) error
}

type allowAll struct{}

func (allowAll) Allow(string) error { return nil }

// Engine exposes the analyze/plan/apply pipeline. Each stage is a pure
// function of its explicit arguments: file content is reread from disk on
// every call and no state is carried between stages.
type Engine struct {
	cfg     *config.Config
	root    string
	backups *BackupManager
	policy  WritePolicy
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithWritePolicy installs an external write-policy checker.
func WithWritePolicy(policy WritePolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// New creates an engine rooted at cfg.Root. Multiple engines with separate
// roots can coexist in one process.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root path: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		root:    root,
		backups: NewBackupManager(filepath.Join(root, cfg.Backup.Dir)),
		policy:  allowAll{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Root returns the absolute project root.
func (e *Engine) Root() string {
	return e.root
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Backups returns the engine's backup manager.
func (e *Engine) Backups() *BackupManager {
	return e.backups
}

// resolve joins a relative path with the project root.
func (e *Engine) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

// Analyze reads and parses a file, returning its structural facts. Files
// without the recognized source extension get a degraded report (line count
// and byte size only). Missing paths yield ErrNotFound; unparseable source
// yields ErrParse.
func (e *Engine) Analyze(ctx context.Context, path string) (*models.AnalysisReport, error) {
	full := e.resolve(path)

	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !parser.IsSource(full) {
		return &models.AnalysisReport{
			FilePath:    path,
			LinesOfCode: countLines(content),
			FileSize:    len(content),
			FileType:    filepath.Ext(full),
			Degraded:    true,
			Issues:      []string{},
			Timestamp:   time.Now(),
		}, nil
	}

	psr := parser.New()
	defer psr.Close()

	res, err := psr.Parse(ctx, content, full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if res.HasSyntaxError() {
		return nil, fmt.Errorf("%w: %s", ErrParse, path)
	}

	facts := collectFacts(res, e.cfg.Analysis.LongFunctionLines, e.cfg.Analysis.FallbackSpan)

	imports := facts.imports
	if limit := e.cfg.Analysis.ImportsCap; limit > 0 && len(imports) > limit {
		imports = imports[:limit]
	}
	issues := facts.issues
	if issues == nil {
		issues = []string{}
	}

	return &models.AnalysisReport{
		FilePath:        path,
		LinesOfCode:     countLines(content),
		Functions:       facts.functions,
		Classes:         facts.classes,
		Imports:         imports,
		ComplexityScore: facts.complexity,
		Issues:          issues,
		TotalFunctions:  len(facts.functions),
		TotalClasses:    len(facts.classes),
		SourceDigest:    digest(content),
		Timestamp:       time.Now(),
	}, nil
}

// Plan maps an objective onto an ordered list of directives from the closed
// catalog. A nil report refuses planning; errors from Analyze should be
// propagated by the caller rather than planned around.
func (e *Engine) Plan(report *models.AnalysisReport, objective string) (*models.Plan, error) {
	if report == nil || report.FilePath == "" {
		return nil, ErrInvalidReport
	}
	return synthesizePlan(report, objective), nil
}

// Apply re-reads and re-parses the target, backs it up unconditionally, runs
// each directive in plan order, and atomically overwrites the file when any
// change was made. An empty change list leaves the file untouched and still
// reports success; the backup is kept regardless.
func (e *Engine) Apply(ctx context.Context, plan *models.Plan) (*models.ApplyResult, error) {
	if plan == nil || plan.FilePath == "" || len(plan.Directives) == 0 {
		return nil, ErrInvalidPlan
	}
	for _, d := range plan.Directives {
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown directive %q", ErrInvalidPlan, d.Kind)
		}
	}

	full := e.resolve(plan.FilePath)

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, plan.FilePath)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", plan.FilePath, err)
	}

	if err := e.policy.Allow(full); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWriteDenied, plan.FilePath, err)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", plan.FilePath, err)
	}

	if plan.SourceDigest != "" && plan.SourceDigest != digest(content) {
		e.logger.Warn("plan was built from a different version of the file",
			zap.String("file", plan.FilePath))
	}

	psr := parser.New()
	defer psr.Close()

	res, err := psr.Parse(ctx, content, full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if res.HasSyntaxError() {
		return nil, fmt.Errorf("%w: %s", ErrParse, plan.FilePath)
	}

	// Back up before attempting any mutation. A failure here aborts the
	// whole apply with the target untouched.
	backupPath, err := e.backups.Create(full)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("backup created",
		zap.String("file", plan.FilePath),
		zap.String("backup", backupPath))

	source := content
	var allChanges []string

	for _, d := range plan.Directives {
		var edits []edit
		var changes []string

		switch d.Kind {
		case models.DirectiveAddPerformanceMarkers:
			edits, changes, err = addPerformanceMarkers(res)
		case models.DirectiveAddLogging:
			edits, changes, err = addLogging(res)
		case models.DirectiveCodeCleanup:
			edits, changes, err = codeCleanup(res)
		default:
			return nil, fmt.Errorf("%w: unknown directive %q", ErrInvalidPlan, d.Kind)
		}
		if err != nil {
			return nil, err
		}

		allChanges = append(allChanges, changes...)

		if len(edits) > 0 {
			source = applyEdits(source, edits)
			res, err = psr.Parse(ctx, source, full)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParse, err)
			}
			if res.HasSyntaxError() {
				return nil, fmt.Errorf("%w: regenerated source for %s", ErrUnsupportedRegeneration, plan.FilePath)
			}
		}
	}

	relBackup := relativeToRoot(e.root, backupPath)

	if len(allChanges) == 0 {
		return &models.ApplyResult{
			Success:        true,
			FilePath:       plan.FilePath,
			BackupPath:     relBackup,
			ChangesApplied: []string{},
			Message:        "No changes needed",
			Timestamp:      time.Now(),
		}, nil
	}

	if err := writeFileAtomic(full, source, info.Mode()); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", plan.FilePath, err)
	}
	e.logger.Info("applied modifications",
		zap.String("file", plan.FilePath),
		zap.Int("count", len(allChanges)))

	return &models.ApplyResult{
		Success:            true,
		FilePath:           plan.FilePath,
		BackupPath:         relBackup,
		ChangesApplied:     allChanges,
		ModificationsCount: len(allChanges),
		Message:            fmt.Sprintf("Applied %d modifications", len(allChanges)),
		Timestamp:          time.Now(),
	}, nil
}

// digest returns the BLAKE3 hash of content as a hex string.
func digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// countLines counts lines the way Python's splitlines does: a trailing
// newline does not start a new line.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	s := string(content)
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// relativeToRoot renders path relative to root when possible.
func relativeToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
