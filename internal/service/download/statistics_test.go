package download

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neros29/mpx-Downloader/internal/config"
	"github.com/neros29/mpx-Downloader/internal/materializer"
)

func newStatsService(t *testing.T) *ServiceImpl {
	t.Helper()

	service, ok := NewService(new(config.Config), nil, nil, nil, nil).(*ServiceImpl)
	require.True(t, ok, "Service should be of type *ServiceImpl")

	return service
}

func TestDownloadStatistics_InitialState(t *testing.T) {
	t.Parallel()

	impl := newStatsService(t)

	assert.NotNil(t, impl.stats, "Statistics should be initialized")
	assert.Zero(t, impl.stats.ItemsProcessed)
	assert.Zero(t, impl.stats.ItemsMaterialized)
	assert.Zero(t, impl.stats.ItemsFetched)
	assert.Empty(t, impl.stats.Errors)
}

func TestDownloadStatistics_IncrementMaterialized(t *testing.T) {
	t.Parallel()

	impl := newStatsService(t)

	impl.incrementMaterialized(materializer.Result{Method: materializer.MethodLinked})
	impl.incrementMaterialized(materializer.Result{Method: materializer.MethodCopied, BytesCopied: 1024})
	impl.incrementMaterialized(materializer.Result{Method: materializer.MethodCopied, BytesCopied: 2048})
	impl.incrementMaterialized(materializer.Result{Method: materializer.MethodSameFile})

	assert.Equal(t, int64(4), impl.stats.ItemsMaterialized)
	assert.Equal(t, int64(1), impl.stats.ItemsLinked)
	assert.Equal(t, int64(2), impl.stats.ItemsCopied)
	assert.Equal(t, int64(1), impl.stats.ItemsInPlace)
	assert.Equal(t, int64(3072), impl.stats.BytesCopied)
}

func TestDownloadStatistics_Counters(t *testing.T) {
	t.Parallel()

	impl := newStatsService(t)

	impl.incrementURLsProcessed()
	impl.incrementItemsProcessed(5)
	impl.incrementItemsSkipped(1)
	impl.incrementItemsMissing(3)
	impl.incrementItemsFetched()
	impl.incrementItemsFetched()
	impl.incrementItemsFailed(1)
	impl.incrementFilesImported(7)
	impl.incrementPlaylistFilesWritten()

	assert.Equal(t, int64(1), impl.stats.URLsProcessed)
	assert.Equal(t, int64(5), impl.stats.ItemsProcessed)
	assert.Equal(t, int64(1), impl.stats.ItemsSkipped)
	assert.Equal(t, int64(3), impl.stats.ItemsMissing)
	assert.Equal(t, int64(2), impl.stats.ItemsFetched)
	assert.Equal(t, int64(1), impl.stats.ItemsFailed)
	assert.Equal(t, int64(7), impl.stats.FilesImported)
	assert.Equal(t, int64(1), impl.stats.PlaylistFilesWritten)
}

func TestDownloadStatistics_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	impl := newStatsService(t)

	const goroutines = 20

	done := make(chan struct{})

	for range goroutines {
		go func() {
			defer func() { done <- struct{}{} }()

			impl.incrementItemsFetched()
			impl.incrementMaterialized(materializer.Result{Method: materializer.MethodCopied, BytesCopied: 10})
		}()
	}

	for range goroutines {
		<-done
	}

	assert.Equal(t, int64(goroutines), impl.stats.ItemsFetched)
	assert.Equal(t, int64(goroutines*10), impl.stats.BytesCopied)
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	impl := newStatsService(t)

	errCtx := &ErrorContext{
		Category:    DownloadCategoryItem,
		ItemID:      "b2",
		ItemTitle:   "Song B",
		ItemURL:     "https://www.youtube.com/watch?v=b2",
		Phase:       "fetching item",
		ParentTitle: "Mix",
	}

	impl.recordError(errCtx, errors.New("boom"))
	impl.recordError(errCtx, fmt.Errorf("stopped: %w", context.Canceled))
	impl.recordError(nil, errors.New("no context"))
	impl.recordError(errCtx, nil)

	require.Len(t, impl.stats.Errors, 1)
	assert.Equal(t, DownloadError{
		Category:     DownloadCategoryItem,
		ItemID:       "b2",
		ItemTitle:    "Song B",
		ItemURL:      "https://www.youtube.com/watch?v=b2",
		ErrorMessage: "boom",
		Phase:        "fetching item",
		ParentTitle:  "Mix",
	}, impl.stats.Errors[0])
}

func TestErrorHandler_HandleError(t *testing.T) {
	t.Parallel()

	impl := newStatsService(t)
	handler := NewErrorHandler(impl)
	errCtx := &ErrorContext{Category: DownloadCategoryItem, Phase: "fetching item"}

	assert.False(t, handler.HandleError(t.Context(), nil, errCtx, true))
	assert.True(t, handler.HandleError(t.Context(), errors.New("boom"), errCtx, true))
	assert.True(t, handler.HandleError(t.Context(), context.Canceled, errCtx, false))

	assert.Equal(t, int64(1), impl.stats.ItemsFailed)
	assert.Len(t, impl.stats.Errors, 1)

	assert.True(t, handler.WithErrorContext(t.Context(), errCtx, func() error { return nil }))
	assert.False(t, handler.WithErrorContext(t.Context(), errCtx, func() error { return errors.New("again") }))
	assert.Len(t, impl.stats.Errors, 2)
}

func TestRetryURLs(t *testing.T) {
	t.Parallel()

	errs := []DownloadError{
		{ItemURL: "https://www.youtube.com/watch?v=b2"},
		{ItemURL: ""},
		{ItemURL: "https://www.youtube.com/playlist?list=PL1"},
		{ItemURL: "https://www.youtube.com/watch?v=b2"},
	}

	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=b2",
		"https://www.youtube.com/playlist?list=PL1",
	}, retryURLs(errs))
	assert.Empty(t, retryURLs(nil))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "milliseconds", duration: 250 * time.Millisecond, expected: "250ms"},
		{name: "seconds", duration: 42 * time.Second, expected: "42s"},
		{name: "minutes", duration: 3*time.Minute + 5*time.Second, expected: "3m 5s"},
		{name: "hours", duration: 2*time.Hour + time.Minute + time.Second, expected: "2h 1m 1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestPrintDownloadSummary(t *testing.T) {
	t.Parallel()

	impl := newStatsService(t)

	// Nothing processed prints nothing and must not panic.
	impl.PrintDownloadSummary(t.Context())

	impl.stats.StartTime = time.Now().Add(-time.Minute)
	impl.stats.EndTime = time.Now()
	impl.incrementItemsProcessed(3)
	impl.incrementMaterialized(materializer.Result{Method: materializer.MethodCopied, BytesCopied: 4096})
	impl.incrementItemsFetched()
	impl.recordError(&ErrorContext{Category: DownloadCategoryItem, ItemURL: "https://example.com/v"}, errors.New("boom"))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.NotPanics(t, func() {
		impl.PrintDownloadSummary(t.Context())
		impl.PrintDownloadSummary(ctx)
	})
}

func TestDownloadCategory_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", DownloadCategoryUnknown.String())
	assert.Equal(t, "item", DownloadCategoryItem.String())
	assert.Equal(t, "playlist", DownloadCategoryPlaylist.String())
	assert.Equal(t, "unknown: 9", DownloadCategory(9).String())
}
