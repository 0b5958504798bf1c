package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"selfmod/pkg/config"
	"selfmod/pkg/engine"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	app := &cli.App{
		Name:    "selfmod",
		Usage:   "Structure-aware Python file modification CLI",
		Version: version,
		Description: `Selfmod parses Python files into syntax trees, reports their structure
(functions, classes, imports, complexity), turns free-text objectives into
deterministic modification plans, and applies those plans back onto the
file with an unconditional backup before any overwrite.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"SELFMOD_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			planCmd(),
			applyCmd(),
			scanCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig loads the config named by --config, or searches the standard
// locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.LoadOrDefault(), nil
}

// newEngine builds an engine from the CLI context's config and verbosity.
func newEngine(c *cli.Context) (*engine.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{}
	if c.Bool("verbose") || cfg.Output.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithLogger(logger))
	}

	return engine.New(cfg, opts...)
}
