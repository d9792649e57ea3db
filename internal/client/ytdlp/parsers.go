package ytdlp

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/neros29/mpx-Downloader/internal/media"
)

const playlistType = "playlist"

// parseListing decodes a flat single JSON dump.
func parseListing(data string) (*Listing, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, ErrEmptyListing
	}

	var raw rawListing
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	listing := &Listing{
		ID:         raw.ID,
		Title:      raw.Title,
		Source:     raw.ExtractorKey,
		IsPlaylist: raw.Type == playlistType || len(raw.Entries) > 0,
	}

	if listing.Title == "" {
		listing.Title = raw.PlaylistTitle
	}

	if !listing.IsPlaylist {
		listing.Items = []ListingItem{{
			ID:     raw.ID,
			Title:  raw.Title,
			Source: raw.ExtractorKey,
			URL:    raw.WebpageURL,
		}}

		return listing, nil
	}

	listing.Items = make([]ListingItem, 0, len(raw.Entries))

	for _, entry := range raw.Entries {
		source := entry.IEKey
		if source == "" {
			source = entry.ExtractorKey
		}

		listing.Items = append(listing.Items, ListingItem{
			ID:     entry.ID,
			Title:  entry.Title,
			Source: source,
			URL:    entry.URL,
		})
	}

	return listing, nil
}

// parseFinishedItems extracts items printed by the after_move template.
// Everything else on stdout is ignored.
func parseFinishedItems(stdout string, container media.Container) []FetchedItem {
	var items []FetchedItem

	for line := range strings.Lines(stdout) {
		item, ok := parseFinishedItem(strings.TrimRight(line, "\r\n"), container)
		if ok {
			items = append(items, item)
		}
	}

	return items
}

func parseFinishedItem(line string, container media.Container) (FetchedItem, bool) {
	rest, ok := strings.CutPrefix(line, finishedItemMarker)
	if !ok {
		return FetchedItem{}, false
	}

	// Titles may contain tabs, so they are printed last.
	fields := strings.SplitN(rest, "\t", 4)
	if len(fields) < 3 || fields[0] == "" || fields[2] == "" || fields[2] == "NA" {
		return FetchedItem{}, false
	}

	item := FetchedItem{
		ID:        fields[0],
		Source:    fields[1],
		Path:      filepath.Clean(fields[2]),
		Container: container,
	}

	if item.Source == "NA" {
		item.Source = ""
	}

	if len(fields) == 4 && fields[3] != "NA" {
		item.Title = fields[3]
	}

	return item, true
}

// WatchURL builds a fetchable URL for a bare YouTube identity.
func WatchURL(id string) string {
	return watchURLPrefix + id
}

// ShouldRetryWithCookies reports whether a failed collection URL looks like
// it needs an authenticated session.
func ShouldRetryWithCookies(err error, url string) bool {
	if err == nil {
		return false
	}

	lowerURL := strings.ToLower(url)
	if !strings.Contains(lowerURL, "playlist") && !strings.Contains(lowerURL, "list=") {
		return false
	}

	message := strings.ToLower(err.Error())

	for _, pattern := range authErrorPatterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}

	return false
}

// stderrTail keeps the last meaningful lines of yt-dlp's stderr.
func stderrTail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
