/*
PURPOSE:
  Defines the 'config' subcommand group.
  'config init' writes a starter configuration file.

REQUIREMENTS:
  User-specified:
  - A new checkout can get a working config without copying an example by hand.

  Implementation-discovered:
  - Existing files are never overwritten without --force.

ARCHITECTURE INTEGRATION:
  - Calls: internal/config.DefaultConfig(), internal/config.Save()

ERROR HANDLING:
  - Returns an error when the target exists or cannot be written.

USAGE:
  solver-runner config init
  solver-runner config init ci/runner.yaml --force
*/

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/solver-runner/internal/config"
	"github.com/daryltucker/solver-runner/internal/output"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the runner configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to ./solver_runner.yaml or path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := config.DefaultFiles[0]
		if len(args) == 1 {
			target = args[0]
		}

		if !forceInit {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", target, err)
			}
		}

		if err := config.Save(target, config.DefaultConfig()); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		output.Logger.Info("Wrote default configuration", "path", target)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
