/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes the test suite: every solver against every applicable model.

REQUIREMENTS:
  User-specified:
  - Run the tests.
  - Specific flags for overrides.

  Implementation-discovered:
  - Need to load config first.
  - Apply flag overrides to config.
  - Non-zero exit when any run failed, errored or timed out (CI friendly).

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails, engine run fails or checks fail.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Engine.Run.

USAGE:
  solver-runner run --solvers gurobi --catalog ./tests/lp
*/

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/daryltucker/solver-runner/internal/engine"
)

var (
	catalogOverride []string
	solversOverride []string
	modelsOverride  []string
	excludeOverride []string
	outputOverride  string
	amplOverride    string
	timeoutOverride time.Duration
	dryRun          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the solver test suite",
	Long: `Executes the test suite against the configured solvers.
The process follows a strict protocol:
1. Catalog: Loads every model list found in the catalog directories.
2. Selection: Skips models whose tags the solver does not support, models
   validated only for other solvers, and non-NL models when AMPL is missing.
3. Execution: Runs the solver and compares objective and expected values.

Results are saved to CSV and JSON Lines, skipped pairs included.`,
	Example: `  # Run with defaults (uses solver_runner.yaml)
  solver-runner run

  # Test a single solver on one catalog directory
  solver-runner run --solvers gurobi --catalog ./tests/mip

  # Only show which models each solver would attempt
  solver-runner run --dry-run

  # Exclude slow models and use AMPL for .mod files
  solver-runner run --exclude large,nonconvex --ampl /opt/ampl/ampl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2. Overrides
		if len(catalogOverride) > 0 {
			cfg.CatalogDirs = catalogOverride
		}
		if len(solversOverride) > 0 {
			if err := cfg.SelectSolvers(solversOverride); err != nil {
				return err
			}
		}
		if len(modelsOverride) > 0 {
			cfg.Models = modelsOverride
		}
		if len(excludeOverride) > 0 {
			cfg.Exclude = excludeOverride
		}
		if outputOverride != "" {
			cfg.OutputDir = outputOverride
		}
		if amplOverride != "" {
			cfg.AMPL = amplOverride
		}
		if timeoutOverride > 0 {
			cfg.Timeout = timeoutOverride
		}

		// 3. Execution
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		summary, err := engine.Run(ctx, cfg, engine.RunOptions{DryRun: dryRun})
		if err != nil {
			return err
		}
		if n := summary.Failures(); n > 0 {
			return fmt.Errorf("%d of %d solver runs did not pass (run %s)", n, summary.Total, summary.RunID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&catalogOverride, "catalog", nil, "Comma-separated list of catalog directories")
	runCmd.Flags().StringSliceVar(&solversOverride, "solvers", nil, "Comma-separated list of configured solvers to run")
	runCmd.Flags().StringSliceVar(&modelsOverride, "models", nil, "Comma-separated list of specific models to run")
	runCmd.Flags().StringSliceVar(&excludeOverride, "exclude", nil, "Comma-separated list of substrings to exclude from model names")
	runCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for results (CSV/JSON)")
	runCmd.Flags().StringVar(&amplOverride, "ampl", "", "AMPL executable for .mod models and scripts")
	runCmd.Flags().DurationVar(&timeoutOverride, "timeout", 0, "Timeout per solver run (overrides config)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Record which models each solver would attempt without running them")
}
