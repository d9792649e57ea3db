package archive

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/fsys"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
)

const (
	// DefaultLockTimeout bounds how long Save waits for another process.
	DefaultLockTimeout = 10 * time.Second

	lockRetryDelay = 100 * time.Millisecond
)

// Store is the in-memory archive bound to one document on disk.
// All methods are safe for concurrent use; a single store per process is expected.
type Store struct {
	path        string
	fs          fsys.FileSystem
	lockTimeout time.Duration

	mu      sync.Mutex
	entries map[string]*Entry
	// seq records document order; overwriting a key keeps its position.
	seq     map[string]uint64
	nextSeq uint64
	dirty   bool

	titles *titleIndex
	// paths holds every key archived at a file; fetched and imported entries may share one.
	paths  map[pathKey]map[string]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithFileSystem replaces the filesystem used for existence checks and backups.
func WithFileSystem(fs fsys.FileSystem) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLockTimeout changes how long Save waits for the document lock.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.lockTimeout = timeout
		}
	}
}

// NewStore creates an empty store for the document at path. Call Load to read it.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:        path,
		fs:          fsys.NewOS(),
		lockTimeout: DefaultLockTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.reset()

	return s
}

// Path returns the location of the archive document.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of entries in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Dirty reports whether there are changes not yet written to disk.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// Load replaces the in-memory state with the document on disk.
// A missing document yields an empty store. A corrupt or unreadable document
// also yields an empty store and a warning; Load never fails.
// It returns the number of malformed records that were skipped.
func (s *Store) Load(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()

	data, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf(ctx, "Failed to read archive '%s', starting with an empty one: %v", s.path, err)
		}

		return 0
	}

	skipped, err := s.decode(ctx, data)
	if err != nil {
		logger.Warnf(ctx, "Archive '%s' is corrupt, starting with an empty one: %v", s.path, err)
		s.reset()

		return 0
	}

	if skipped > 0 {
		logger.Warnf(ctx, "Skipped %d malformed archive record(s)", skipped)
	}

	logger.Debugf(ctx, "Loaded %d archive entries from '%s'", len(s.entries), s.path)

	return skipped
}

// Save writes the store to disk when it has changed since the last save.
// The document is written to a temporary file and renamed into place
// under an inter-process lock. On failure the store stays dirty.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := s.encode()
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	if err = s.fs.MkdirAll(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}

	defer unlock()

	if err = s.writeAtomically(data); err != nil {
		return err
	}

	s.dirty = false

	logger.Debugf(ctx, "Saved %d archive entries to '%s'", len(s.entries), s.path)

	return nil
}

// Flush saves the store and reports failures as a warning only.
// Sessions call it before exiting, so cancellation of ctx is ignored.
func (s *Store) Flush(ctx context.Context) {
	if err := s.Save(context.WithoutCancel(ctx)); err != nil {
		logger.Warnf(ctx, "Failed to save archive '%s': %v", s.path, err)
	}
}

// Find looks up an entry for the identity in the container.
// A stale exact match is evicted. When title is not empty and the identity misses,
// entries of the same container are matched by sanitized, case-folded title;
// stale candidates met along the way are evicted as well.
func (s *Store) Find(ctx context.Context, id, source string, container media.Container, title string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(source, id, container)
	if e, ok := s.entries[key]; ok {
		if fsys.Exists(s.fs, e.Path) {
			return *e, true
		}

		logger.Debugf(ctx, "Evicting stale archive entry '%s' (%s)", key, e.Path)
		s.remove(key)
	}

	if title == "" {
		return Entry{}, false
	}

	if e := s.findByTitle(ctx, container, title); e != nil {
		logger.Debugf(ctx, "Archive hit by title '%s' for '%s'", title, key)

		return *e, true
	}

	return Entry{}, false
}

// Add records the file at path under the composite key, replacing any previous entry.
// The capture time is the file's modification time, or zero if it cannot be read.
func (s *Store) Add(ctx context.Context, id, source, title, path string, container media.Container) Entry {
	if absPath, err := filepath.Abs(path); err == nil {
		path = absPath
	}

	var capturedAt time.Time
	if info, err := s.fs.Stat(path); err == nil {
		capturedAt = truncateTime(info.ModTime())
	} else {
		logger.Debugf(ctx, "Archiving '%s' without a capture time: %v", path, err)
	}

	if source == "" {
		source = SourceGeneric
	}

	e := &Entry{
		ID:         id,
		Source:     source,
		Title:      title,
		Container:  container,
		Path:       path,
		CapturedAt: capturedAt,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(e.Key(), e)
	s.dirty = true

	return *e
}

// HasPath reports whether a file is already archived under the container.
func (s *Store) HasPath(path string, container media.Container) bool {
	if absPath, err := filepath.Abs(path); err == nil {
		path = absPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.paths[pathKey{path: path, container: container}]) > 0
}

// Entries returns a snapshot of all entries in document order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.orderedKeys()
	result := make([]Entry, 0, len(keys))

	for _, key := range keys {
		result = append(result, *s.entries[key])
	}

	return result
}

func (s *Store) reset() {
	s.entries = make(map[string]*Entry)
	s.seq = make(map[string]uint64)
	s.nextSeq = 0
	s.dirty = false
	s.titles = newTitleIndex()
	s.paths = make(map[pathKey]map[string]struct{})
}

// put inserts or replaces an entry and keeps every index in sync.
func (s *Store) put(key string, e *Entry) {
	if old, ok := s.entries[key]; ok {
		s.titles.remove(old.Container, old.Title, key)
		s.unlinkPath(old, key)
	} else {
		s.seq[key] = s.nextSeq
		s.nextSeq++
	}

	e.key = key
	s.entries[key] = e
	s.titles.add(e.Container, e.Title, key, s.seq)

	pk := pathKey{path: e.Path, container: e.Container}
	if s.paths[pk] == nil {
		s.paths[pk] = make(map[string]struct{})
	}

	s.paths[pk][key] = struct{}{}
}

// unlinkPath drops key from the keys archived at the entry's file.
func (s *Store) unlinkPath(e *Entry, key string) {
	pk := pathKey{path: e.Path, container: e.Container}

	delete(s.paths[pk], key)

	if len(s.paths[pk]) == 0 {
		delete(s.paths, pk)
	}
}

// remove deletes an entry and marks the store dirty.
func (s *Store) remove(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}

	s.titles.remove(e.Container, e.Title, key)
	s.unlinkPath(e, key)

	delete(s.entries, key)
	delete(s.seq, key)

	s.dirty = true

	return true
}

func (s *Store) orderedKeys() []string {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Compare(s.seq[a], s.seq[b])
	})

	return keys
}

// decode reads the object-of-objects document, keeping its key order.
func (s *Store) decode(ctx context.Context, data []byte) (int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return 0, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	token, err := dec.Token()
	if err != nil {
		return 0, err
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return 0, fmt.Errorf("%w: document is not an object", errMalformedRecord)
	}

	skipped := 0

	for dec.More() {
		token, err = dec.Token()
		if err != nil {
			return 0, err
		}

		key, ok := token.(string)
		if !ok {
			return 0, fmt.Errorf("%w: unexpected key %v", errMalformedRecord, token)
		}

		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return 0, err
		}

		e, recordErr := decodeRecord(raw)
		if recordErr != nil {
			logger.Debugf(ctx, "Skipping archive record '%s': %v", key, recordErr)

			skipped++

			continue
		}

		s.put(key, e)
	}

	if _, err = dec.Token(); err != nil {
		return 0, err
	}

	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: trailing data after document", errMalformedRecord)
	}

	return skipped, nil
}

// encode renders the document as 2-space indented JSON without escaping non-ASCII or HTML characters.
func (s *Store) encode() ([]byte, error) {
	var (
		compact bytes.Buffer
		enc     = json.NewEncoder(&compact)
	)

	enc.SetEscapeHTML(false)
	compact.WriteByte('{')

	for i, key := range s.orderedKeys() {
		if i > 0 {
			compact.WriteByte(',')
		}

		if err := enc.Encode(key); err != nil {
			return nil, err
		}

		compact.WriteByte(':')

		if err := enc.Encode(newRecord(s.entries[key])); err != nil {
			return nil, err
		}
	}

	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}

	out.WriteByte('\n')

	return out.Bytes(), nil
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	fileLock := flock.New(s.path + constants.LockFileSuffix)

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("failed to lock archive: %w", err)
	}

	if !locked {
		return nil, ErrLockTimeout
	}

	return func() {
		if unlockErr := fileLock.Unlock(); unlockErr != nil {
			logger.Debugf(ctx, "Failed to release archive lock: %v", unlockErr)
		}
	}, nil
}

func (s *Store) writeAtomically(data []byte) error {
	tempPath := s.path + "." + uuid.New().String() + constants.TempFileSuffix

	file, err := os.OpenFile(filepath.Clean(tempPath), os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create temporary archive file: %w", err)
	}

	_, err = file.Write(data)
	if err == nil {
		err = file.Sync()
	}

	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = s.fs.Rename(tempPath, s.path)
	}

	if err != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to write archive: %w", err)
	}

	return nil
}
