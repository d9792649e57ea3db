package download

import (
	"fmt"
	"time"
)

// DownloadCategory represents the kind of URL or item being processed.
type DownloadCategory uint8

const (
	// DownloadCategoryUnknown - unknown category.
	DownloadCategoryUnknown DownloadCategory = iota
	// DownloadCategoryItem - single video or track.
	DownloadCategoryItem
	// DownloadCategoryPlaylist - playlist or other collection.
	DownloadCategoryPlaylist
)

// String returns a human-readable representation of the DownloadCategory.
func (dc DownloadCategory) String() string {
	switch dc {
	case DownloadCategoryUnknown:
		return "unknown"
	case DownloadCategoryItem:
		return "item"
	case DownloadCategoryPlaylist:
		return "playlist"
	default:
		return fmt.Sprintf("unknown: %d", dc)
	}
}

// DownloadStatistics tracks the outcome of a download session.
type DownloadStatistics struct {
	// StartTime is when the session began.
	StartTime time.Time
	// EndTime is when the session completed.
	EndTime time.Time
	// URLsProcessed is the number of input URLs handled.
	URLsProcessed int64
	// ItemsProcessed is the number of listed items considered.
	ItemsProcessed int64
	// ItemsMaterialized is the number of items satisfied from the archive.
	ItemsMaterialized int64
	// ItemsLinked is the number of materialized items placed with a hard link.
	ItemsLinked int64
	// ItemsCopied is the number of materialized items placed with a copy.
	ItemsCopied int64
	// ItemsInPlace is the number of materialized items already at their destination.
	ItemsInPlace int64
	// BytesCopied is the total size of materialized copies.
	BytesCopied int64
	// ItemsMissing is the number of items the archive could not satisfy.
	ItemsMissing int64
	// ItemsFetched is the number of items yt-dlp delivered.
	ItemsFetched int64
	// ItemsFailed is the number of missing items that were not delivered.
	ItemsFailed int64
	// ItemsSkipped is the number of listed items without an identity.
	ItemsSkipped int64
	// FilesImported is the number of local files added by the bootstrap import.
	FilesImported int64
	// PlaylistFilesWritten is the number of .m3u files written.
	PlaylistFilesWritten int64
	// Errors is a list of all errors encountered during the session.
	Errors []DownloadError
}

// DownloadError represents a single error that occurred during download.
type DownloadError struct {
	// Category is the type of item that failed.
	Category DownloadCategory
	// ItemID is the identity of the item that failed.
	ItemID string
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// ItemURL is the URL that can be used to retry the item.
	ItemURL string
	// ErrorMessage is the error message.
	ErrorMessage string
	// Phase indicates when the error occurred (e.g., "listing", "fetching").
	Phase string
	// ParentTitle is the title of the playlist the item belongs to.
	ParentTitle string
	// ParentURL is the URL of the playlist the item belongs to.
	ParentURL string
}
