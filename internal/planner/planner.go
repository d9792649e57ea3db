package planner

//go:generate $MOCKGEN -source=planner.go -destination=mocks/planner_mock.go

import (
	"context"
	"strings"

	"github.com/neros29/mpx-Downloader/internal/archive"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
)

// DefaultSource is assumed for listing items that do not declare a source.
const DefaultSource = "YouTube"

// Finder looks archive entries up by identity with an optional title fallback.
type Finder interface {
	Find(ctx context.Context, id, source string, container media.Container, title string) (archive.Entry, bool)
}

// Item is one record of a flat listing.
type Item struct {
	ID     string
	Title  string
	Source string
}

// Hit pairs a listing item with the archive entry that satisfies it.
type Hit struct {
	Item  Item
	Entry archive.Entry
}

// Result is the outcome of planning one collection.
type Result struct {
	// ToMaterialize holds archive hits in collection order.
	ToMaterialize []Hit
	// Missing holds identities that must be fetched, in collection order.
	Missing []string
	// Skipped counts items without an identity.
	Skipped int
}

// Entries returns the archive entries of all hits.
func (r *Result) Entries() []archive.Entry {
	entries := make([]archive.Entry, 0, len(r.ToMaterialize))
	for _, hit := range r.ToMaterialize {
		entries = append(entries, hit.Entry)
	}

	return entries
}

// Plan consults the archive once per item. It neither fetches nor copies anything.
func Plan(ctx context.Context, items []Item, finder Finder, container media.Container) *Result {
	result := &Result{
		ToMaterialize: make([]Hit, 0, len(items)),
		Missing:       make([]string, 0, len(items)),
	}

	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			result.Skipped++

			continue
		}

		source := item.Source
		if source == "" {
			source = DefaultSource
		}

		entry, ok := finder.Find(ctx, item.ID, source, container, item.Title)
		if !ok {
			result.Missing = append(result.Missing, item.ID)

			continue
		}

		result.ToMaterialize = append(result.ToMaterialize, Hit{Item: item, Entry: entry})
	}

	logger.Debugf(ctx, "Planned %d item(s): %d in archive, %d to fetch, %d skipped",
		len(items), len(result.ToMaterialize), len(result.Missing), result.Skipped)

	return result
}
