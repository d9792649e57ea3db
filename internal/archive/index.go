package archive

import (
	"context"
	"slices"

	"github.com/neros29/mpx-Downloader/internal/fsys"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/naming"
)

// titleKey groups entries that match each other by title.
type titleKey struct {
	container  media.Container
	comparable string
}

// pathKey identifies a file within a container.
type pathKey struct {
	path      string
	container media.Container
}

// titleIndex maps (container, comparison title) to composite keys in document order.
// The first title lookup in a container sweeps the whole container for stale
// entries; later lookups only check the candidates they touch.
type titleIndex struct {
	keys  map[titleKey][]string
	swept map[media.Container]bool
}

func newTitleIndex() *titleIndex {
	return &titleIndex{
		keys:  make(map[titleKey][]string),
		swept: make(map[media.Container]bool),
	}
}

func (ti *titleIndex) add(container media.Container, title, key string, seq map[string]uint64) {
	tk := titleKey{container: container, comparable: naming.ComparisonKey(title)}
	keys := ti.keys[tk]

	pos, _ := slices.BinarySearchFunc(keys, seq[key], func(existing string, target uint64) int {
		switch {
		case seq[existing] < target:
			return -1
		case seq[existing] > target:
			return 1
		default:
			return 0
		}
	})

	ti.keys[tk] = slices.Insert(keys, pos, key)
}

func (ti *titleIndex) remove(container media.Container, title, key string) {
	tk := titleKey{container: container, comparable: naming.ComparisonKey(title)}

	keys := slices.DeleteFunc(ti.keys[tk], func(existing string) bool {
		return existing == key
	})
	if len(keys) == 0 {
		delete(ti.keys, tk)

		return
	}

	ti.keys[tk] = keys
}

func (ti *titleIndex) candidates(container media.Container, title string) []string {
	tk := titleKey{container: container, comparable: naming.ComparisonKey(title)}

	return slices.Clone(ti.keys[tk])
}

// findByTitle returns the first live entry of the container whose title matches.
func (s *Store) findByTitle(ctx context.Context, container media.Container, title string) *Entry {
	if !s.titles.swept[container] {
		s.sweepContainer(ctx, container)
		s.titles.swept[container] = true
	}

	for _, key := range s.titles.candidates(container, title) {
		e := s.entries[key]
		if fsys.Exists(s.fs, e.Path) {
			return e
		}

		logger.Debugf(ctx, "Evicting stale archive entry '%s' (%s)", key, e.Path)
		s.remove(key)
	}

	return nil
}

// sweepContainer evicts every entry of the container whose file is gone.
func (s *Store) sweepContainer(ctx context.Context, container media.Container) {
	evicted := 0

	for _, key := range s.orderedKeys() {
		e := s.entries[key]
		if e.Container != container || fsys.Exists(s.fs, e.Path) {
			continue
		}

		s.remove(key)

		evicted++
	}

	if evicted > 0 {
		logger.Debugf(ctx, "Evicted %d stale '%s' archive entries", evicted, container)
	}
}
