package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neros29/mpx-Downloader/internal/fsys"
	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/naming"
)

// Stats summarizes the archive contents.
type Stats struct {
	// Total is the number of entries.
	Total int
	// ByContainer counts entries per container.
	ByContainer map[media.Container]int
	// Local counts entries created by importing files from disk.
	Local int
	// Missing counts entries whose file no longer exists.
	Missing int
	// TotalBytes is the combined size of the files that still exist.
	TotalBytes int64
}

// Remove deletes the entries with the given composite keys and returns how many existed.
func (s *Store) Remove(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for _, key := range keys {
		if s.remove(key) {
			removed++
		}
	}

	return removed
}

// Clear deletes every entry and returns how many there were.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.entries)
	if count == 0 {
		return 0
	}

	s.reset()
	s.dirty = true

	return count
}

// MatchTitle returns the entries whose title contains term, ignoring case.
func (s *Store) MatchTitle(term string) []Entry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	return s.filter(func(e *Entry) bool {
		return strings.Contains(strings.ToLower(e.Title), term)
	})
}

// CapturedBetween returns the entries captured within [from, to].
// Entries without a capture time never match.
func (s *Store) CapturedBetween(from, to time.Time) []Entry {
	return s.filter(func(e *Entry) bool {
		if e.CapturedAt.IsZero() {
			return false
		}

		return !e.CapturedAt.Before(from) && !e.CapturedAt.After(to)
	})
}

// Stats computes statistics over the current entries.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:       len(s.entries),
		ByContainer: make(map[media.Container]int),
	}

	for _, e := range s.entries {
		stats.ByContainer[e.Container]++

		if e.Source == SourceLocal {
			stats.Local++
		}

		info, err := s.fs.Stat(e.Path)
		if err != nil || info.IsDir() {
			stats.Missing++

			continue
		}

		stats.TotalBytes += info.Size()
	}

	return stats
}

// Backup copies the archive document next to itself and returns the backup path.
func (s *Store) Backup(ctx context.Context) (string, error) {
	if !fsys.Exists(s.fs, s.path) {
		return "", fmt.Errorf("%w: %s", ErrNoArchiveFile, s.path)
	}

	backupPath := naming.BackupPath(s.path)

	if _, err := s.fs.CopyFile(ctx, s.path, backupPath); err != nil {
		return "", fmt.Errorf("failed to back up archive: %w", err)
	}

	return backupPath, nil
}

func (s *Store) filter(match func(*Entry) bool) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Entry

	for _, key := range s.orderedKeys() {
		if e := s.entries[key]; match(e) {
			result = append(result, *e)
		}
	}

	return result
}
