package importer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/neros29/mpx-Downloader/internal/archive"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
)

const stableIDSize = 8

// ErrNotDirectory is returned when the import root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Archive is the part of the archive store the importer writes to.
type Archive interface {
	HasPath(path string, container media.Container) bool
	Add(ctx context.Context, id, source, title, path string, container media.Container) archive.Entry
}

// Options controls a single import.
type Options struct {
	// Container restricts the scan to its extensions. Empty detects a container per file.
	Container media.Container
	// Recursive descends into subdirectories.
	Recursive bool
	// ReadTags prefers embedded titles over file names.
	ReadTags bool
}

// Result summarizes an import.
type Result struct {
	Scanned         int
	Added           int
	AlreadyArchived int
	Unrecognized    int
	ByContainer     map[media.Container]int
}

// Importer walks directories and adds recognized media files to the archive.
type Importer struct {
	archive Archive
	tags    TagReader
}

// New creates an Importer writing to the given archive.
func New(a Archive) *Importer {
	return &Importer{
		archive: a,
		tags:    NewTagReader(),
	}
}

// Import adds every recognized, not yet archived file under dir.
// Running it twice over an unchanged directory adds nothing the second time.
func (im *Importer) Import(ctx context.Context, dir string, opts Options) (*Result, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve '%s': %w", dir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access '%s': %w", root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	result := &Result{ByContainer: make(map[media.Container]int)}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}

			logger.Warnf(ctx, "Skipping '%s': %v", path, walkErr)

			return nil
		}

		if d.IsDir() {
			if path != root && !opts.Recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		im.importFile(ctx, path, opts, result)

		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to scan '%s': %w", root, err)
	}

	logger.Debugf(ctx, "Import of '%s': %d scanned, %d added, %d already archived",
		root, result.Scanned, result.Added, result.AlreadyArchived)

	return result, nil
}

func (im *Importer) importFile(ctx context.Context, path string, opts Options, result *Result) {
	container := opts.Container

	switch {
	case container == "":
		detected, ok := media.DetectContainer(path)
		if !ok {
			result.Unrecognized++

			return
		}

		container = detected
	case !container.Matches(path):
		result.Unrecognized++

		return
	}

	result.Scanned++

	if im.archive.HasPath(path, container) {
		result.AlreadyArchived++

		return
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if opts.ReadTags {
		if tagged := im.tags.Title(ctx, path); tagged != "" {
			title = tagged
		}
	}

	im.archive.Add(ctx, StableID(path), archive.SourceLocal, title, path, container)

	result.Added++
	result.ByContainer[container]++

	logger.Debugf(ctx, "Imported '%s' as %s", path, container)
}

// StableID derives an identity for a local file from its absolute path.
func StableID(absPath string) string {
	hash, err := blake2b.New(stableIDSize, nil)
	if err != nil {
		// Only reachable with an invalid size.
		panic(err)
	}

	_, _ = hash.Write([]byte(absPath))

	return hex.EncodeToString(hash.Sum(nil))
}
