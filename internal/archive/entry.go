package archive

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/neros29/mpx-Downloader/internal/media"
)

const (
	// SourceLocal is the source of entries created from files found on disk.
	SourceLocal = "local"
	// SourceGeneric replaces an empty source in composite keys.
	SourceGeneric = "generic"

	microsecondsPerSecond = 1e6
)

// Entry is one physical file known to the archive.
type Entry struct {
	// ID is the identity at the source, or a path hash for local files.
	ID string
	// Source is the provider the file came from, e.g. "Youtube" or "local".
	Source string
	// Title is the display title at capture time.
	Title string
	// Container is the output class the file belongs to.
	Container media.Container
	// Path is the absolute location of the file.
	Path string
	// CapturedAt is the file's modification time when it was added.
	CapturedAt time.Time

	// key is the composite key the entry is stored under. Documents written by
	// other tools may use keys that cannot be rebuilt from the fields above.
	key string
}

// Key returns the composite key the entry is stored under, or the one built from its fields.
func (e *Entry) Key() string {
	if e.key != "" {
		return e.key
	}

	return Key(e.Source, e.ID, e.Container)
}

// Key builds the composite key for an entry: lowercase(source)_identity_container.
func Key(source, id string, container media.Container) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		source = SourceGeneric
	}

	return source + "_" + id + "_" + string(container)
}

// record is the persisted form of an entry.
type record struct {
	ID           string   `json:"id"`
	Extractor    string   `json:"extractor"`
	Title        string   `json:"title"`
	Format       string   `json:"format"`
	FilePath     string   `json:"file_path"`
	DownloadDate *float64 `json:"download_date,omitempty"`
}

func newRecord(e *Entry) *record {
	date := timeToEpoch(e.CapturedAt)

	return &record{
		ID:           e.ID,
		Extractor:    e.Source,
		Title:        e.Title,
		Format:       string(e.Container),
		FilePath:     e.Path,
		DownloadDate: &date,
	}
}

// decodeRecord validates a persisted value and converts it into an entry.
func decodeRecord(raw json.RawMessage) (*Entry, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedRecord, err)
	}

	switch {
	case r.ID == "":
		return nil, fmt.Errorf("%w: missing id", errMalformedRecord)
	case r.Format == "":
		return nil, fmt.Errorf("%w: missing format", errMalformedRecord)
	case r.FilePath == "":
		return nil, fmt.Errorf("%w: missing file_path", errMalformedRecord)
	}

	var capturedAt time.Time
	if r.DownloadDate != nil {
		capturedAt = epochToTime(*r.DownloadDate)
	}

	return &Entry{
		ID:         r.ID,
		Source:     r.Extractor,
		Title:      r.Title,
		Container:  media.Container(r.Format),
		Path:       r.FilePath,
		CapturedAt: capturedAt,
	}, nil
}

// truncateTime reduces t to the precision the document can hold.
func truncateTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return time.UnixMicro(t.UnixMicro())
}

func timeToEpoch(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}

	return float64(t.UnixMicro()) / microsecondsPerSecond
}

func epochToTime(epoch float64) time.Time {
	if epoch <= 0 || math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return time.Time{}
	}

	return time.UnixMicro(int64(math.Round(epoch * microsecondsPerSecond)))
}
