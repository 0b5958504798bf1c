package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"selfmod/internal/fileproc"
	"selfmod/internal/output"
	"selfmod/internal/progress"
	"selfmod/internal/scanner"
	"selfmod/pkg/models"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Analyze every Python file under a directory",
		ArgsUsage: "[path...]",
		Action:    runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	sc := scanner.New(eng.Config())

	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", path, err)
		}
		found, err := sc.ScanDir(absPath)
		if err != nil {
			return fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		color.Yellow("No Python files found")
		return nil
	}

	tracker := progress.NewTracker("Analyzing files...", len(files))
	reports, procErrs := fileproc.MapPaths(c.Context, files, func(ctx context.Context, path string) (*models.AnalysisReport, error) {
		return eng.Analyze(ctx, path)
	}, tracker.Tick)
	tracker.Finish()
	if procErrs != nil && len(reports) == 0 {
		return fmt.Errorf("scan failed: %w", procErrs)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	totalFunctions := 0
	totalIssues := 0
	for _, report := range reports {
		totalFunctions += report.TotalFunctions
		totalIssues += len(report.Issues)

		issues := fmt.Sprintf("%d", len(report.Issues))
		if len(report.Issues) > 0 {
			issues = color.YellowString(issues)
		}
		rows = append(rows, []string{
			report.FilePath,
			fmt.Sprintf("%d", report.LinesOfCode),
			fmt.Sprintf("%d", report.TotalFunctions),
			fmt.Sprintf("%d", report.TotalClasses),
			fmt.Sprintf("%d", report.ComplexityScore),
			issues,
		})
	}

	table := output.NewTable(
		"Scan Results",
		[]string{"File", "Lines", "Functions", "Classes", "Complexity", "Issues"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", len(reports)),
			"",
			fmt.Sprintf("Functions: %d", totalFunctions),
			"",
			"",
			fmt.Sprintf("Issues: %d", totalIssues),
		},
		reports,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if procErrs != nil && formatter.Format() == output.FormatText {
		color.Yellow("Warnings (%d):", len(procErrs.Errors))
		for _, pe := range procErrs.Errors {
			fmt.Fprintf(formatter.Writer(), "  - %s\n", pe.Error())
		}
	}
	return nil
}
