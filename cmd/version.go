package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neros29/mpx-Downloader/internal/version"
)

//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())

			return
		}

		fmt.Fprintln(cmd.OutOrStdout(), version.Short())
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "include commit and build time.")

	rootCmd.AddCommand(versionCmd)
}
