package ytdlp

import "time"

const (
	// watchURLPrefix builds a fetchable URL from a bare video identity.
	watchURLPrefix = "https://www.youtube.com/watch?v="

	// finishedItemTemplate is printed by yt-dlp once an item reached its final path.
	finishedItemTemplate = "after_move:" + finishedItemMarker +
		"%(id)s\t%(extractor_key)s\t%(filepath)s\t%(title)s"
	// finishedItemMarker tells printed item lines apart from other output.
	finishedItemMarker = "MPX\t"

	progressInterval = 500 * time.Millisecond

	socketTimeoutSeconds = 15
	retries              = "10"
	extractorRetries     = "3"
	concurrentFragments  = 8

	listingCacheSize = 64

	// stderrTailLines is how much of yt-dlp's stderr an error keeps.
	stderrTailLines = 5
)

//nolint:gochecknoglobals // Immutable lookup table.
var authErrorPatterns = []string{
	"private",
	"unavailable",
	"not available",
	"requires authentication",
	"sign in",
	"403",
	"forbidden",
	"restricted",
	"members-only",
}
