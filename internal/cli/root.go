/*
PURPOSE:
  Defines the root Cobra command for the solver runner CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Logging flags override the config's log_level / log_format.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/solver-runner/main.go
  - Calls: Child commands (run, list-models, tags, config)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/solver-runner/main.go
*/

package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/solver-runner/internal/config"
	"github.com/daryltucker/solver-runner/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile   string
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "solver-runner",
		Short: "End-to-end test runner for AMPL solver drivers",
		Long: `Runs a catalog of tagged test models against configured solver drivers.
Each solver declares the model features it supports; models whose tags are not
a subset of them are skipped. Use 'run --help' for run options.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the config file and applies the logging flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := output.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./solver_runner.yaml or ./runner.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}
