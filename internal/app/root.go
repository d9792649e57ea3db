package app

import (
	"context"
	"fmt"

	"github.com/neros29/mpx-Downloader/internal/archive"
	"github.com/neros29/mpx-Downloader/internal/client/ytdlp"
	"github.com/neros29/mpx-Downloader/internal/config"
	"github.com/neros29/mpx-Downloader/internal/importer"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/materializer"
	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/naming"
	"github.com/neros29/mpx-Downloader/internal/service/download"
)

// RootOptions carries the command line settings that are not part of the configuration.
type RootOptions struct {
	// ConfigFilename is the file the chosen format is saved to.
	ConfigFilename string
	// SaveFormat stores the chosen format as default_format.
	SaveFormat bool
}

// ExecuteRootCommand is the entry point for downloads.
// It resolves the output format, opens the archive, prepares yt-dlp
// and downloads the provided URLs.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, urls []string, opts RootOptions) {
	if err := resolveFormat(ctx, cfg, NewPrompter(), isInteractive()); err != nil {
		logger.Fatalf(ctx, "Failed to choose a format: %v", err)
	}

	if opts.SaveFormat {
		if err := config.SaveConfig(opts.ConfigFilename, cfg); err != nil {
			logger.Errorf(ctx, "Failed to save default format: %v", err)
		} else {
			logger.Infof(ctx, "Saved '%s' as the default format", cfg.DefaultFormat)
		}
	}

	store, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to open archive: %v", err)
	}

	client, err := ytdlp.NewClient()
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize yt-dlp client: %v", err)
	}

	if err = client.Prepare(ctx); err != nil {
		logger.Fatalf(ctx, "Failed to prepare yt-dlp: %v", err)
	}

	s := download.NewService(cfg, client, store, materializer.New(nil), importer.New(store))

	// Ensure statistics are ALWAYS printed and the archive saved, even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintDownloadSummary(ctx)
		s.Close(ctx)
	}()

	s.DownloadURLs(ctx, urls)
}

// resolveFormat makes sure cfg carries a container. Without one the user is asked,
// or mp3 is used when no terminal is attached.
func resolveFormat(ctx context.Context, cfg *config.Config, p Prompter, interactive bool) error {
	if cfg.ParsedDefaultFormat.IsValid() {
		return nil
	}

	container := media.ContainerMP3

	if interactive {
		var err error

		container, err = chooseFormat(p)
		if err != nil {
			return err
		}
	} else {
		logger.Infof(ctx, "No format given, using %s", container)
	}

	cfg.DefaultFormat = container.String()
	cfg.ParsedDefaultFormat = container

	return nil
}

// openArchive loads the archive document the configuration points at.
func openArchive(ctx context.Context, cfg *config.Config) (*archive.Store, error) {
	path, err := naming.ArchivePath(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path: %w", err)
	}

	store := archive.NewStore(path, archive.WithLockTimeout(cfg.ParsedLockTimeout))
	store.Load(ctx)

	return store, nil
}
