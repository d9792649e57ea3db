package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/neros29/mpx-Downloader/internal/app"
	"github.com/neros29/mpx-Downloader/internal/config"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/utils"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "mpx-downloader [flags] {urls}",
		Short: "Download videos, songs and playlists without downloading anything twice.",
		Long: `mpx-downloader is a CLI tool that downloads media with yt-dlp.
It keeps an archive of every file it has saved, so that:
- Items already on disk are linked or copied instead of downloaded again
- Playlists only fetch the entries that are missing
- Existing music folders can be imported into the archive

Formats: mp3 (audio), native (best audio, original codec), mkv and mp4 (video).`,
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(ctx, "Failed to parse flags: %v", err)
			}

			urls, err := collectURLs(ctx, cmd.Flags(), args)
			if err != nil {
				logger.Fatalf(ctx, "Failed to read URLs: %v", err)
			}

			if len(urls) == 0 {
				_ = cmd.Help()

				return
			}

			saveFormat, _ := cmd.Flags().GetBool("save-format")

			app.ExecuteRootCommand(ctx, appConfig, urls, app.RootOptions{
				ConfigFilename: configFilenameFromFlag,
				SaveFormat:     saveFormat,
			})
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	persistentFlags := rootCmd.PersistentFlags()

	persistentFlags.StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	persistentFlags.String(
		"archive",
		"",
		"path to the archive file (default is the per-user data directory).")

	persistentFlags.String(
		"log-level",
		"",
		"log level: debug, info, warn, error.")

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.StringP(
		"format",
		"f",
		"",
		"output format: mp3, native, mkv or mp4 (asked for when not set here or in the configuration).")

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"directory to save downloaded files (the path will be created if it doesn't exist).")

	rootCmdFlags.Bool(
		"fast",
		false,
		"skip thumbnails and metadata embedding.")

	rootCmdFlags.String(
		"file",
		"",
		"read URLs from a text file, one per line.")

	rootCmdFlags.String(
		"cookies-from-browser",
		"",
		"browser to load cookies from, for example: firefox, chrome.")

	rootCmdFlags.Bool(
		"no-import",
		false,
		"do not import files already in the output directory before downloading.")

	rootCmdFlags.Bool(
		"no-m3u",
		false,
		"do not write an .m3u file for downloaded playlists.")

	rootCmdFlags.Bool(
		"save-format",
		false,
		"store the chosen format as the default in the configuration file.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Changed {
		appConfig.LogLevel = flag.Value.String()
	}

	if level, ok := logger.ParseLogLevel(appConfig.LogLevel); ok {
		logger.SetLevel(level)
	}
}

//nolint:cyclop // One branch per flag.
func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("format"); flag != nil && flag.Changed {
		cfg.DefaultFormat, _ = flags.GetString("format")
	}

	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("archive"); flag != nil && flag.Changed {
		cfg.ArchivePath, _ = flags.GetString("archive")
	}

	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if flag := flags.Lookup("fast"); flag != nil && flag.Changed {
		cfg.FastMode, _ = flags.GetBool("fast")
	}

	if flag := flags.Lookup("cookies-from-browser"); flag != nil && flag.Changed {
		cfg.CookiesFromBrowser, _ = flags.GetString("cookies-from-browser")
	}

	if flag := flags.Lookup("no-import"); flag != nil && flag.Changed {
		noImport, _ := flags.GetBool("no-import")
		cfg.ImportExisting = !noImport
	}

	if flag := flags.Lookup("no-m3u"); flag != nil && flag.Changed {
		noM3U, _ := flags.GetBool("no-m3u")
		cfg.GenerateM3U = !noM3U
	}

	return config.ValidateConfig(cfg)
}

// collectURLs merges the URLs given as arguments with the ones read from --file.
func collectURLs(ctx context.Context, flags *pflag.FlagSet, args []string) ([]string, error) {
	var urls []string

	for _, arg := range args {
		urls = append(urls, utils.SplitURLs(arg)...)
	}

	if flag := flags.Lookup("file"); flag != nil && flag.Changed {
		path, _ := flags.GetString("file")

		fromFile, err := utils.ReadURLsFromFile(ctx, path)
		if err != nil {
			return nil, err
		}

		for _, url := range fromFile {
			if !slices.Contains(urls, url) {
				urls = append(urls, url)
			}
		}
	}

	return urls, nil
}
