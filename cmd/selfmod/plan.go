package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"selfmod/internal/output"
)

func planCmd() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Turn an objective into an ordered modification plan",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "objective",
				Aliases: []string{"obj"},
				Usage:   "Free-text objective, e.g. 'optimize performance and add logging'",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the plan as a JSON document to this path",
			},
		},
		Action: runPlanCmd,
	}
}

func runPlanCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()
	objective := c.String("objective")

	eng, err := newEngine(c)
	if err != nil {
		return err
	}

	report, err := eng.Analyze(c.Context, path)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	plan, err := eng.Plan(report, objective)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	if out := c.String("out"); out != "" {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write plan %s: %w", out, err)
		}
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(planTable(plan))
}
