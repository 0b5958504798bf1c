package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"selfmod/internal/output"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"an"},
		Usage:     "Report the structure of a Python file",
		ArgsUsage: "<file>",
		Action:    runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	eng, err := newEngine(c)
	if err != nil {
		return err
	}

	report, err := eng.Analyze(c.Context, path)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if report.Degraded {
		formatter.Warning("%s is not a Python file; structural analysis skipped", path)
		return formatter.Output(report)
	}

	if err := formatter.Output(reportTable(report)); err != nil {
		return err
	}
	if formatter.Format() == output.FormatText {
		printReportDetails(formatter, report)
	}
	return nil
}
