package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/neros29/mpx-Downloader/internal/archive"
	"github.com/neros29/mpx-Downloader/internal/config"
	"github.com/neros29/mpx-Downloader/internal/importer"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/utils"
)

const (
	clearModeAll  = "all"
	clearModeName = "name"
	clearModeDate = "date"

	clearPreviewLimit  = 10
	deleteAllPhrase    = "DELETE ALL"
	capturedTimeLayout = "2006-01-02 15:04"
)

var (
	// ErrInvalidClearArgs is returned when archive clear gets an unknown mode or missing values.
	ErrInvalidClearArgs = errors.New("expected: all | name TERM | date FROM [TO]")
	// ErrClearNotConfirmed is returned when the user declines a clear.
	ErrClearNotConfirmed = errors.New("clear was not confirmed")
)

// ExecuteArchiveShowCommand prints a summary of the archive and, optionally, every entry.
func ExecuteArchiveShowCommand(ctx context.Context, cfg *config.Config, listEntries bool) {
	store, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to open archive: %v", err)
	}

	writeArchiveSummary(os.Stdout, store.Path(), store.Stats())

	if listEntries {
		writeArchiveEntries(os.Stdout, store.Entries())
	}
}

// ExecuteArchiveImportCommand adds the media files found in dir to the archive.
func ExecuteArchiveImportCommand(ctx context.Context, cfg *config.Config, dir string, opts importer.Options) {
	store, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to open archive: %v", err)
	}

	result, err := importer.New(store).Import(ctx, dir, opts)
	if err != nil {
		logger.Fatalf(ctx, "Failed to import '%s': %v", dir, err)
	}

	logger.Infof(ctx, "Scanned %d file(s): %d added, %d already archived, %d unrecognized",
		result.Scanned, result.Added, result.AlreadyArchived, result.Unrecognized)

	for _, container := range media.All() {
		if count := result.ByContainer[container]; count > 0 {
			logger.Infof(ctx, "  %s: %d", container.Description(), count)
		}
	}

	if err = store.Save(ctx); err != nil {
		logger.Fatalf(ctx, "Failed to save archive: %v", err)
	}
}

// ExecuteArchiveBackupCommand copies the archive document next to itself.
func ExecuteArchiveBackupCommand(ctx context.Context, cfg *config.Config) {
	store, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to open archive: %v", err)
	}

	backupPath, err := store.Backup(ctx)
	if errors.Is(err, archive.ErrNoArchiveFile) {
		logger.Warnf(ctx, "No archive file found at '%s'", store.Path())

		return
	}

	if err != nil {
		logger.Fatalf(ctx, "Failed to back up archive: %v", err)
	}

	logger.Infof(ctx, "Archive backed up to: %s", backupPath)
}

// ExecuteArchiveClearCommand removes all entries, or the entries matching a title or a date range.
func ExecuteArchiveClearCommand(ctx context.Context, cfg *config.Config, args []string, assumeYes bool) {
	store, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to open archive: %v", err)
	}

	var p Prompter
	if !assumeYes {
		p = NewPrompter()
	}

	removed, err := clearArchive(ctx, store, args, time.Now(), p)
	if errors.Is(err, ErrClearNotConfirmed) {
		logger.Info(ctx, "Cancelled, nothing was removed")

		return
	}

	if err != nil {
		logger.Fatalf(ctx, "Failed to clear archive: %v", err)
	}

	if removed > 0 {
		logger.Infof(ctx, "Removed %d entries, %d left", removed, store.Len())
	}
}

// clearArchive removes the entries selected by args and saves the archive.
// A nil prompter skips every confirmation.
//
//nolint:cyclop // Each clear mode has its own confirmation flow.
func clearArchive(ctx context.Context, store *archive.Store, args []string, now time.Time, p Prompter) (int, error) {
	if len(args) == 0 {
		return 0, ErrInvalidClearArgs
	}

	mode := strings.ToLower(args[0])

	var matches []archive.Entry

	switch mode {
	case clearModeAll:
		if len(args) != 1 {
			return 0, ErrInvalidClearArgs
		}
	case clearModeName:
		term := strings.TrimSpace(strings.Join(args[1:], " "))
		if term == "" {
			return 0, ErrInvalidClearArgs
		}

		matches = store.MatchTitle(term)
	case clearModeDate:
		from, to, err := parseDateRange(args[1:], now)
		if err != nil {
			return 0, err
		}

		matches = store.CapturedBetween(from, to)
	default:
		return 0, fmt.Errorf("%w: unknown mode '%s'", ErrInvalidClearArgs, args[0])
	}

	if store.Len() == 0 {
		logger.Info(ctx, "Archive is empty")

		return 0, nil
	}

	if mode == clearModeAll {
		if err := confirmClearAll(ctx, store.Len(), p); err != nil {
			return 0, err
		}

		removed := store.Clear()

		return removed, store.Save(ctx)
	}

	if len(matches) == 0 {
		logger.Info(ctx, "No matching entries")

		return 0, nil
	}

	previewEntries(ctx, matches)

	if p != nil {
		confirmed, err := p.Confirm(fmt.Sprintf("Delete these %d entries?", len(matches)))
		if err != nil || !confirmed {
			return 0, ErrClearNotConfirmed
		}
	}

	removed := store.Remove(utils.Map(matches, func(e archive.Entry) string { return e.Key() })...)

	return removed, store.Save(ctx)
}

func parseDateRange(args []string, now time.Time) (time.Time, time.Time, error) {
	if len(args) == 0 || len(args) > 2 {
		return time.Time{}, time.Time{}, ErrInvalidClearArgs
	}

	from, err := utils.ParseDateInput(args[0], now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	to := now

	if len(args) == 2 {
		to, err = utils.ParseDateInput(args[1], now)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	return from, to, nil
}

// confirmClearAll asks twice: a yes/no question, then the exact phrase.
func confirmClearAll(ctx context.Context, total int, p Prompter) error {
	logger.Warnf(ctx, "This will remove all %d archive entries", total)

	if p == nil {
		return nil
	}

	confirmed, err := p.Confirm("Are you sure you want to clear the entire archive?")
	if err != nil || !confirmed {
		return ErrClearNotConfirmed
	}

	phrase, err := p.Input(fmt.Sprintf("Type '%s' to confirm:", deleteAllPhrase))
	if err != nil || strings.TrimSpace(phrase) != deleteAllPhrase {
		return ErrClearNotConfirmed
	}

	return nil
}

func previewEntries(ctx context.Context, entries []archive.Entry) {
	logger.Infof(ctx, "Found %d matching entries:", len(entries))

	for i, e := range entries {
		if i == clearPreviewLimit {
			logger.Infof(ctx, "  ... and %d more", len(entries)-clearPreviewLimit)

			break
		}

		logger.Infof(ctx, "  %d. %s [%s, %s]", i+1, e.Title, e.Container, e.CapturedAt.Format(capturedTimeLayout))
	}
}

// writeArchiveSummary renders the totals table.
func writeArchiveSummary(w io.Writer, path string, stats archive.Stats) {
	_, _ = fmt.Fprintf(w, "Archive: %s\n", path)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"Entry", "Count"})

	for _, container := range media.All() {
		tw.AppendRow(table.Row{container.Description(), stats.ByContainer[container]})
	}

	// Documents written by other tools may carry containers this build does not know.
	for _, container := range slices.Sorted(maps.Keys(stats.ByContainer)) {
		if !container.IsValid() {
			tw.AppendRow(table.Row{fmt.Sprintf("Other (%s)", container), stats.ByContainer[container]})
		}
	}

	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Imported from disk", stats.Local})
	tw.AppendRow(table.Row{"Missing files", stats.Missing})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Total entries", stats.Total})
	tw.AppendRow(table.Row{"Total size", humanize.Bytes(uint64(max(stats.TotalBytes, 0)))})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	tw.Render()
}

// writeArchiveEntries renders one row per entry in document order.
func writeArchiveEntries(w io.Writer, entries []archive.Entry) {
	if len(entries) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"#", "Title", "Format", "Source", "Captured", "Path"})

	for i, e := range entries {
		tw.AppendRow(table.Row{i + 1, e.Title, e.Container, e.Source, e.CapturedAt.Format(capturedTimeLayout), e.Path})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 2, WidthMax: 60},
	})

	tw.Render()
}
