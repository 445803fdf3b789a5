/*
PURPOSE:
  Defines the 'list-models' subcommand.
  Helps debug catalog files and tag assignments.

REQUIREMENTS:
  User-specified:
  - List catalog models with their tags.

  Implementation-discovered:
  - Useful validation step before a full run: shows what a solver would attempt.

ARCHITECTURE INTEGRATION:
  - Calls: internal/catalog.Load(), internal/engine.Applicable()

ERROR HANDLING:
  - Returns catalog errors (unknown tags, missing files) as is.

IMPLEMENTATION RULES:
  - Simple tabular output to stdout.

USAGE:
  solver-runner list-models --tag quadratic --solver gurobi
*/

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daryltucker/solver-runner/internal/catalog"
	"github.com/daryltucker/solver-runner/internal/engine"
	"github.com/daryltucker/solver-runner/internal/model"
)

var (
	listTags   []string
	listSolver string
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List catalog models and their tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(catalogOverride) > 0 {
			cfg.CatalogDirs = catalogOverride
		}

		cat, err := catalog.Load(cfg.CatalogDirs, cfg.Recursive)
		if err != nil {
			return err
		}

		if len(listTags) > 0 {
			tags, err := model.FromNames(listTags)
			if err != nil {
				return err
			}
			cat = cat.WithAnyTag(tags)
		}

		if listSolver != "" {
			s, ok := cfg.Solver(listSolver)
			if !ok {
				return fmt.Errorf("solver %q is not configured", listSolver)
			}
			haveAMPL := cfg.AMPL != ""
			cat = cat.Filter(func(m *model.Model) bool {
				return engine.Applicable(s, m, haveAMPL).Run
			})
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tOBJECTIVE\tTAGS\tFILE")
		for _, m := range cat.Models() {
			objective := "-"
			if v := m.ExpectedObjective(); v != nil {
				objective = fmt.Sprintf("%g", *v)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name(), objective, strings.Join(m.Tags().Names(), ","), m.FilePath())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)

	// --catalog shares its variable with run; flags belong to one command each.
	listModelsCmd.Flags().StringSliceVar(&catalogOverride, "catalog", nil, "Comma-separated list of catalog directories")
	listModelsCmd.Flags().StringSliceVar(&listTags, "tag", nil, "Only models carrying any of these tags")
	listModelsCmd.Flags().StringVar(&listSolver, "solver", "", "Only models the named solver would attempt")
}
