package download

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/materializer"
)

const (
	summaryBanner = "═══════════════════════════════════════════════════════════════"
	// retryCommand is the binary name shown in the retry hint.
	retryCommand = "mpx-downloader"
)

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

func (s *ServiceImpl) incrementURLsProcessed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.URLsProcessed++
}

func (s *ServiceImpl) incrementItemsProcessed(count int) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ItemsProcessed += int64(count)
}

func (s *ServiceImpl) incrementItemsSkipped(count int) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ItemsSkipped += int64(count)
}

func (s *ServiceImpl) incrementItemsMissing(count int) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ItemsMissing += int64(count)
}

func (s *ServiceImpl) incrementItemsFailed(count int) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ItemsFailed += int64(count)
}

func (s *ServiceImpl) incrementItemsFetched() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ItemsFetched++
}

func (s *ServiceImpl) incrementFilesImported(count int) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.FilesImported += int64(count)
}

func (s *ServiceImpl) incrementPlaylistFilesWritten() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.PlaylistFilesWritten++
}

// incrementMaterialized counts a successful placement by its method.
func (s *ServiceImpl) incrementMaterialized(result materializer.Result) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ItemsMaterialized++

	switch result.Method {
	case materializer.MethodLinked:
		s.stats.ItemsLinked++
	case materializer.MethodCopied:
		s.stats.ItemsCopied++
		s.stats.BytesCopied += result.BytesCopied
	case materializer.MethodSameFile:
		s.stats.ItemsInPlace++
	case materializer.MethodNone:
	}
}

// PrintDownloadSummary prints a formatted summary of download statistics.
func (s *ServiceImpl) PrintDownloadSummary(ctx context.Context) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := s.stats

	// If nothing was processed, don't print summary.
	if stats.ItemsProcessed == 0 && len(stats.Errors) == 0 {
		return
	}

	wasInterrupted := ctx.Err() != nil

	s.printSummaryHeader(ctx, wasInterrupted)
	s.printItemStatistics(ctx, stats)
	s.printDataTransferStatistics(ctx, stats)
	s.printArchiveStatistics(ctx, stats)
	logger.Info(ctx, summaryBanner)
	s.printErrorDetails(ctx, stats)
	s.printFinalMessage(ctx, wasInterrupted, stats)
}

func (s *ServiceImpl) printSummaryHeader(ctx context.Context, wasInterrupted bool) {
	logger.Info(ctx, "")
	logger.Info(ctx, summaryBanner)

	if wasInterrupted {
		logger.Info(ctx, "           DOWNLOAD SUMMARY (Interrupted)")
	} else {
		logger.Info(ctx, "                     DOWNLOAD SUMMARY")
	}

	logger.Info(ctx, summaryBanner)
}

func (s *ServiceImpl) printItemStatistics(ctx context.Context, stats *DownloadStatistics) {
	logger.Infof(ctx, "Items:            %d total processed from %d URL(s)", stats.ItemsProcessed, stats.URLsProcessed)

	if stats.ItemsMaterialized > 0 {
		logger.Infof(ctx, "  From Archive:    %d", stats.ItemsMaterialized)

		if stats.ItemsLinked > 0 {
			logger.Infof(ctx, "    Linked:        %d", stats.ItemsLinked)
		}

		if stats.ItemsCopied > 0 {
			logger.Infof(ctx, "    Copied:        %d", stats.ItemsCopied)
		}

		if stats.ItemsInPlace > 0 {
			logger.Infof(ctx, "    Already There: %d", stats.ItemsInPlace)
		}
	}

	if stats.ItemsFetched > 0 {
		logger.Infof(ctx, "  Downloaded:      %d", stats.ItemsFetched)
	}

	if stats.ItemsFailed > 0 {
		logger.Infof(ctx, "  Failed:          %d", stats.ItemsFailed)
	}

	if stats.ItemsSkipped > 0 {
		logger.Infof(ctx, "  Skipped:         %d (no identity)", stats.ItemsSkipped)
	}

	if stats.ItemsProcessed > 0 {
		successCount := stats.ItemsMaterialized + stats.ItemsFetched
		successRate := float64(successCount) / float64(stats.ItemsProcessed) * 100
		logger.Infof(ctx, "  Success Rate:    %.1f%%", successRate)
	}
}

func (s *ServiceImpl) printDataTransferStatistics(ctx context.Context, stats *DownloadStatistics) {
	if stats.BytesCopied > 0 {
		logger.Info(ctx, "")
		//nolint:gosec // BytesCopied is always positive, no overflow risk.
		logger.Infof(ctx, "Data Copied:      %s", humanize.Bytes(uint64(stats.BytesCopied)))
	}

	if stats.StartTime.IsZero() || stats.EndTime.IsZero() {
		return
	}

	duration := stats.EndTime.Sub(stats.StartTime)
	if duration > 100*time.Millisecond {
		logger.Infof(ctx, "Duration:         %s", formatDuration(duration))
	}
}

func (s *ServiceImpl) printArchiveStatistics(ctx context.Context, stats *DownloadStatistics) {
	if stats.FilesImported == 0 && stats.PlaylistFilesWritten == 0 {
		return
	}

	logger.Info(ctx, "")

	if stats.FilesImported > 0 {
		logger.Infof(ctx, "Files Imported:   %d", stats.FilesImported)
	}

	if stats.PlaylistFilesWritten > 0 {
		logger.Infof(ctx, "Playlist Files:   %d", stats.PlaylistFilesWritten)
	}
}

func (s *ServiceImpl) printErrorDetails(ctx context.Context, stats *DownloadStatistics) {
	if len(stats.Errors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(stats.Errors))

	for i := range stats.Errors {
		downloadErr := &stats.Errors[i]

		title := downloadErr.ItemTitle
		if title == "" {
			title = downloadErr.ItemURL
		}

		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] %s: %s", i+1, downloadErr.Category, title)

		if downloadErr.ParentTitle != "" {
			logger.Errorf(ctx, "      From: %s", downloadErr.ParentTitle)
		}

		if downloadErr.ItemID != "" {
			logger.Errorf(ctx, "      ID: %s", downloadErr.ItemID)
		}

		logger.Errorf(ctx, "      Phase: %s", downloadErr.Phase)
		logger.Errorf(ctx, "      Error: %s", downloadErr.ErrorMessage)
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summaryBanner)

	s.printRetryCommand(ctx, stats.Errors)
}

// printRetryCommand prints a command that fetches only the failed URLs again.
func (s *ServiceImpl) printRetryCommand(ctx context.Context, errs []DownloadError) {
	urls := retryURLs(errs)
	if len(urls) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Info(ctx, "To retry only failed downloads, run:")
	logger.Info(ctx, "")
	logger.Infof(ctx, "  %s %s", retryCommand, strings.Join(urls, " "))
}

// retryURLs returns the unique URLs of failed items in the order they failed.
func retryURLs(errs []DownloadError) []string {
	var (
		seen = make(map[string]struct{}, len(errs))
		urls []string
	)

	for i := range errs {
		url := errs[i].ItemURL
		if url == "" {
			continue
		}

		if _, ok := seen[url]; ok {
			continue
		}

		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	return urls
}

func (s *ServiceImpl) printFinalMessage(ctx context.Context, wasInterrupted bool, stats *DownloadStatistics) {
	switch {
	case wasInterrupted:
		logger.Info(ctx, "")
		logger.Warn(ctx, "Download interrupted by user (CTRL+C).")

		if stats.ItemsFetched > 0 {
			logger.Infof(ctx, "Successfully downloaded %d item(s) before interruption.", stats.ItemsFetched)
		}
	case len(stats.Errors) > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d error(s) occurred during download. See detailed error log above.", len(stats.Errors))
	case stats.ItemsFetched > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All downloads completed successfully!")
	case stats.ItemsMaterialized > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "Everything was already in the archive - nothing to download.")
	}
}
