package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"selfmod/internal/output"
	"selfmod/pkg/models"
)

func applyCmd() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Apply a modification plan to a Python file",
		ArgsUsage: "[file]",
		Description: `Applies modifications either from a saved plan document (--plan) or by
running the full analyze/plan/apply pipeline against a file and objective.
The target is backed up before any mutation.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "plan",
				Usage: "Path to a plan JSON document written by 'selfmod plan --out'",
			},
			&cli.StringFlag{
				Name:    "objective",
				Aliases: []string{"obj"},
				Usage:   "Free-text objective used to build the plan",
			},
		},
		Action: runApplyCmd,
	}
}

func runApplyCmd(c *cli.Context) error {
	eng, err := newEngine(c)
	if err != nil {
		return err
	}

	var plan *models.Plan

	if planPath := c.String("plan"); planPath != "" {
		data, err := os.ReadFile(planPath)
		if err != nil {
			return fmt.Errorf("failed to read plan %s: %w", planPath, err)
		}
		if err := models.ValidatePlanDocument(data); err != nil {
			return fmt.Errorf("invalid plan %s: %w", planPath, err)
		}
		plan = &models.Plan{}
		if err := json.Unmarshal(data, plan); err != nil {
			return fmt.Errorf("failed to decode plan %s: %w", planPath, err)
		}
	} else {
		if c.Args().Len() != 1 {
			return fmt.Errorf("expected a file argument (or --plan)")
		}
		path := c.Args().First()

		report, err := eng.Analyze(c.Context, path)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		plan, err = eng.Plan(report, c.String("objective"))
		if err != nil {
			return fmt.Errorf("planning failed: %w", err)
		}
	}

	result, err := eng.Apply(c.Context, plan)
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() != output.FormatText {
		return formatter.Output(result)
	}
	printApplyResult(formatter, result)
	return nil
}
