package main

import (
	"fmt"

	"github.com/fatih/color"

	"selfmod/internal/output"
	"selfmod/pkg/models"
)

// reportTable renders an analysis report as a function-per-row table.
func reportTable(report *models.AnalysisReport) *output.Table {
	var rows [][]string
	for _, fn := range report.Functions {
		async := ""
		if fn.IsAsync {
			async = "async"
		}
		rows = append(rows, []string{
			fn.Name,
			fmt.Sprintf("%d", fn.Line),
			fmt.Sprintf("%d", fn.Args),
			async,
		})
	}

	return output.NewTable(
		fmt.Sprintf("Analysis: %s", report.FilePath),
		[]string{"Function", "Line", "Args", "Kind"},
		rows,
		[]string{
			fmt.Sprintf("Functions: %d", report.TotalFunctions),
			fmt.Sprintf("Classes: %d", report.TotalClasses),
			fmt.Sprintf("Lines: %d", report.LinesOfCode),
			fmt.Sprintf("Complexity: %d", report.ComplexityScore),
		},
		report,
	)
}

// printReportDetails prints classes, imports, and issues after the table.
func printReportDetails(formatter *output.Formatter, report *models.AnalysisReport) {
	w := formatter.Writer()

	if len(report.Classes) > 0 {
		if formatter.Colored() {
			color.Cyan("Classes:")
		} else {
			fmt.Fprintln(w, "Classes:")
		}
		for _, cls := range report.Classes {
			fmt.Fprintf(w, "  %s (line %d): %d methods\n", cls.Name, cls.Line, cls.Methods)
		}
		fmt.Fprintln(w)
	}

	if len(report.Imports) > 0 {
		if formatter.Colored() {
			color.Cyan("Imports:")
		} else {
			fmt.Fprintln(w, "Imports:")
		}
		for _, imp := range report.Imports {
			fmt.Fprintf(w, "  %s\n", imp)
		}
		fmt.Fprintln(w)
	}

	if len(report.Issues) > 0 {
		color.Yellow("Issues (%d):", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
}

// planTable renders a modification plan as a directive-per-row table.
func planTable(plan *models.Plan) *output.Table {
	var rows [][]string
	for i, d := range plan.Directives {
		risk := string(d.Risk)
		switch d.Risk {
		case models.RiskHigh:
			risk = color.RedString(risk)
		case models.RiskMedium:
			risk = color.YellowString(risk)
		case models.RiskLow:
			risk = color.GreenString(risk)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			string(d.Kind),
			d.Description,
			risk,
		})
	}

	return output.NewTable(
		fmt.Sprintf("Plan: %s", plan.Objective),
		[]string{"#", "Directive", "Description", "Risk"},
		rows,
		[]string{
			fmt.Sprintf("File: %s", plan.FilePath),
			fmt.Sprintf("Directives: %d", len(plan.Directives)),
			"",
			fmt.Sprintf("Est: %s", plan.EstimatedTime),
		},
		plan,
	)
}

// printApplyResult prints the apply outcome with the backup location and
// the per-mutation change records.
func printApplyResult(formatter *output.Formatter, result *models.ApplyResult) {
	w := formatter.Writer()

	if result.Success {
		formatter.Success("%s", result.Message)
	} else {
		formatter.Error("%s", result.Message)
	}
	fmt.Fprintf(w, "Backup: %s\n", result.BackupPath)

	if len(result.ChangesApplied) > 0 {
		fmt.Fprintln(w)
		for _, change := range result.ChangesApplied {
			fmt.Fprintf(w, "  - %s\n", change)
		}
	}
}
