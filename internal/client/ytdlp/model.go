package ytdlp

import "github.com/neros29/mpx-Downloader/internal/media"

// ListOptions controls a flat listing.
type ListOptions struct {
	// CookiesFromBrowser names the browser whose cookies yt-dlp should use.
	CookiesFromBrowser string
}

// Listing is the shallow metadata of a URL.
type Listing struct {
	ID         string
	Title      string
	Source     string
	IsPlaylist bool
	Items      []ListingItem
}

// ListingItem is one entry of a listing, in collection order.
type ListingItem struct {
	ID     string
	Title  string
	Source string
	URL    string
}

// FetchRequest describes one yt-dlp download run.
type FetchRequest struct {
	// URLs are fetched in order.
	URLs []string
	// Container selects format and post-processing.
	Container media.Container
	// OutputTemplate is the yt-dlp output template, including the directory.
	OutputTemplate string
	// FastMode skips thumbnails and metadata embedding.
	FastMode bool
	// CookiesFromBrowser names the browser whose cookies yt-dlp should use.
	CookiesFromBrowser string
	// OnProgress receives throttled download progress. Optional.
	OnProgress func(Progress)
}

// Progress is a download progress snapshot.
type Progress struct {
	Status          string
	Filename        string
	DownloadedBytes int
	TotalBytes      int
}

// FetchedItem is an item that reached its final location.
type FetchedItem struct {
	ID        string
	Source    string
	Title     string
	Path      string
	Container media.Container
}

// FetchResult is the outcome of a run. Items are filled even when the run failed part way.
type FetchResult struct {
	Items []FetchedItem
}

// rawListing mirrors the subset of yt-dlp's single JSON dump that listings need.
type rawListing struct {
	Type          string     `json:"_type"`
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	PlaylistTitle string     `json:"playlist_title"`
	ExtractorKey  string     `json:"extractor_key"`
	WebpageURL    string     `json:"webpage_url"`
	Entries       []rawEntry `json:"entries"`
}

type rawEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	IEKey        string `json:"ie_key"`
	ExtractorKey string `json:"extractor_key"`
	URL          string `json:"url"`
}
