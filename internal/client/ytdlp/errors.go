package ytdlp

import "errors"

var (
	// ErrEmptyListing indicates that yt-dlp returned no metadata for a URL.
	ErrEmptyListing = errors.New("empty listing")
	// ErrNoURLs indicates a fetch request without anything to fetch.
	ErrNoURLs = errors.New("no URLs to fetch")
)
