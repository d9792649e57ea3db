package cmd

import (
	"github.com/spf13/cobra"

	"github.com/neros29/mpx-Downloader/internal/app"
	"github.com/neros29/mpx-Downloader/internal/config"
	"github.com/neros29/mpx-Downloader/internal/importer"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
	archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Inspect and maintain the download archive.",
		Long: `The archive records every file mpx-downloader has saved or imported.
Entries are keyed by source, item ID and format, so the same video can be archived
once as mp3 and once as mp4.`,
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
	archiveShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show archive location, totals per format and total size.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			bindArchiveConfig(cmd)

			listEntries, _ := cmd.Flags().GetBool("list")

			app.ExecuteArchiveShowCommand(cmd.Context(), appConfig, listEntries)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
	archiveImportCmd = &cobra.Command{
		Use:   "import DIR",
		Short: "Add media files from a directory to the archive.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			bindArchiveConfig(cmd)

			flags := cmd.Flags()
			opts := importer.Options{
				ReadTags: appConfig.ImportReadTags,
			}

			opts.Recursive, _ = flags.GetBool("recursive")

			if flag := flags.Lookup("read-tags"); flag != nil && flag.Changed {
				opts.ReadTags, _ = flags.GetBool("read-tags")
			}

			if flag := flags.Lookup("format"); flag != nil && flag.Changed {
				value, _ := flags.GetString("format")

				container, err := media.ParseContainer(value)
				if err != nil {
					logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
				}

				opts.Container = container
			}

			app.ExecuteArchiveImportCommand(cmd.Context(), appConfig, args[0], opts)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
	archiveBackupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Copy the archive file next to itself.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			bindArchiveConfig(cmd)

			app.ExecuteArchiveBackupCommand(cmd.Context(), appConfig)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
	archiveClearCmd = &cobra.Command{
		Use:   "clear all | name TERM | date FROM [TO]",
		Short: "Remove archive entries.",
		Long: `Remove archive entries. Files on disk are never touched.

  all              remove every entry
  name TERM        remove entries whose title contains TERM, ignoring case
  date FROM [TO]   remove entries captured between FROM and TO (default: now)

Dates are YYYY-MM-DD, YYYY/MM/DD, MM/DD/YYYY, DD/MM/YYYY, YYYY-MM-DD HH:MM[:SS],
or one of: today, yesterday, week, month.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			bindArchiveConfig(cmd)

			assumeYes, _ := cmd.Flags().GetBool("yes")

			app.ExecuteArchiveClearCommand(cmd.Context(), appConfig, args, assumeYes)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	archiveShowCmd.Flags().BoolP(
		"list",
		"l",
		false,
		"list every entry.")

	archiveImportCmdFlags := archiveImportCmd.Flags()

	archiveImportCmdFlags.StringP(
		"format",
		"f",
		"",
		"only import files of this format: mp3, native, mkv or mp4 (default detects the format per file).")

	archiveImportCmdFlags.BoolP(
		"recursive",
		"r",
		false,
		"descend into subdirectories.")

	archiveImportCmdFlags.Bool(
		"read-tags",
		false,
		"take titles from ID3 and Vorbis tags instead of file names.")

	archiveClearCmd.Flags().BoolP(
		"yes",
		"y",
		false,
		"do not ask for confirmation.")

	archiveCmd.AddCommand(archiveShowCmd, archiveImportCmd, archiveBackupCmd, archiveClearCmd)
	rootCmd.AddCommand(archiveCmd)
}

// bindArchiveConfig applies the persistent flags and validates the configuration.
func bindArchiveConfig(cmd *cobra.Command) {
	if flag := cmd.Flags().Lookup("archive"); flag != nil && flag.Changed {
		appConfig.ArchivePath, _ = cmd.Flags().GetString("archive")
	}

	if err := config.ValidateConfig(appConfig); err != nil {
		logger.Fatalf(cmd.Context(), "Invalid configuration: %v", err)
	}
}
