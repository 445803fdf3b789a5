/*
PURPOSE:
  Defines the 'tags' subcommand.
  Prints the closed tag set that model lists and solver configs may use.

REQUIREMENTS:
  User-specified:
  - Tag names, stable ids and groups must be discoverable without reading source.

ARCHITECTURE INTEGRATION:
  - Calls: internal/model.AllTags()

IMPLEMENTATION RULES:
  - Ordered by id. Simple tabular output to stdout.

USAGE:
  solver-runner tags
*/

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daryltucker/solver-runner/internal/model"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every model tag with its id and group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tID\tGROUP")
		for _, t := range model.AllTags() {
			fmt.Fprintf(w, "%s\t%d\t%s\n", t, t.ID(), t.Group())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
