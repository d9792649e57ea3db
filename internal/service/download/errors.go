package download

import (
	"context"
	"errors"
)

// Common errors for the download session.
var (
	// ErrItemNotFetched indicates that yt-dlp finished without delivering a missing item.
	ErrItemNotFetched = errors.New("item was not delivered by yt-dlp")
	// ErrEmptyOutputPath indicates that the output directory could not be resolved.
	ErrEmptyOutputPath = errors.New("output path is empty")
)

// ErrorContext provides context information for download errors.
type ErrorContext struct {
	// Category is the type of item that failed.
	Category DownloadCategory
	// ItemID is the identity of the item that failed.
	ItemID string
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// ItemURL is the URL that can be used to retry the item.
	ItemURL string
	// Phase indicates when the error occurred.
	Phase string
	// ParentTitle is the title of the playlist the item belongs to.
	ParentTitle string
	// ParentURL is the URL of the playlist the item belongs to.
	ParentURL string
}

// recordError records an error in the statistics with proper context.
// Context cancellation errors are ignored as they are expected during graceful shutdown.
func (s *ServiceImpl) recordError(errCtx *ErrorContext, err error) {
	if errCtx == nil || err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.Errors = append(s.stats.Errors, DownloadError{
		Category:     errCtx.Category,
		ItemID:       errCtx.ItemID,
		ItemTitle:    errCtx.ItemTitle,
		ItemURL:      errCtx.ItemURL,
		ErrorMessage: err.Error(),
		Phase:        errCtx.Phase,
		ParentTitle:  errCtx.ParentTitle,
		ParentURL:    errCtx.ParentURL,
	})
}
