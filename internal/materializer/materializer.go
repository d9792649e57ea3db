package materializer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/neros29/mpx-Downloader/internal/archive"
	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/fsys"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/naming"
)

// Materializer produces usable copies of archived files.
type Materializer struct {
	fs fsys.FileSystem
}

// New creates a Materializer. A nil filesystem means the operating system one.
func New(fs fsys.FileSystem) *Materializer {
	if fs == nil {
		fs = fsys.NewOS()
	}

	return &Materializer{fs: fs}
}

// Destination resolves where an entry lands inside targetDir for the container.
// MP3 always gets .mp3, native audio keeps the archived extension verbatim,
// video keeps the archived extension or falls back to the container's one.
func Destination(entry archive.Entry, targetDir string, container media.Container) string {
	ext := filepath.Ext(entry.Path)

	switch {
	case container == media.ContainerMP3:
		ext = constants.ExtensionMP3
	case container == media.ContainerNative:
		// Keep the archived extension, even an empty one.
	case ext == "":
		ext = container.DefaultExtension()
	}

	title := entry.Title
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(entry.Path), filepath.Ext(entry.Path))
	}

	return filepath.Join(targetDir, naming.ItemFilename(title, ext))
}

// Materialize makes the archived file available inside targetDir.
// A hard link is tried first and a metadata-preserving copy second.
// An existing different file at the destination is replaced atomically.
func (m *Materializer) Materialize(
	ctx context.Context,
	entry archive.Entry,
	targetDir string,
	container media.Container,
) Result {
	dst := Destination(entry, targetDir, container)
	result := Result{Destination: dst}

	info, err := m.fs.Stat(entry.Path)
	if err == nil && info.IsDir() {
		err = os.ErrNotExist
	}

	if err != nil {
		return m.fail(ctx, result, classify(err, FailureSourceMissing), err)
	}

	if samePath(entry.Path, dst) || fsys.SameFile(m.fs, entry.Path, dst) {
		result.Method = MethodSameFile
		logger.Debugf(ctx, "Archived file is already in place: %s", dst)

		return result
	}

	if err = m.fs.MkdirAll(targetDir); err != nil {
		return m.fail(ctx, result, classify(err, FailureTargetDir), err)
	}

	target := dst

	replacing := fsys.Exists(m.fs, dst)
	if replacing {
		target = dst + "." + uuid.New().String() + constants.TempFileSuffix
	}

	if err = m.fs.Link(entry.Path, target); err == nil {
		result.Method = MethodLinked
	} else {
		logger.Debugf(ctx, "Hard link failed, copying instead: %v", err)

		result.BytesCopied, err = m.fs.CopyFile(ctx, entry.Path, target)
		if err != nil {
			result.BytesCopied = 0

			return m.fail(ctx, result, classify(err, FailureCopy), err)
		}

		result.Method = MethodCopied
	}

	if replacing {
		if err = m.fs.Rename(target, dst); err != nil {
			if removeErr := m.fs.Remove(target); removeErr != nil {
				logger.Debugf(ctx, "Failed to remove '%s': %v", target, removeErr)
			}

			result.Method = MethodNone
			result.BytesCopied = 0

			return m.fail(ctx, result, classify(err, FailureCopy), err)
		}
	}

	logger.InfoKV(ctx, "Restored from archive",
		"method", result.Method.String(),
		"file", filepath.Base(dst),
		"source", entry.Path,
	)

	return result
}

func (m *Materializer) fail(ctx context.Context, result Result, kind FailureKind, err error) Result {
	result.Failure = kind
	result.Err = err

	logger.Warnf(ctx, "Could not restore '%s' from archive (%s): %v", filepath.Base(result.Destination), kind, err)

	return result
}

func classify(err error, fallback FailureKind) FailureKind {
	switch {
	case errors.Is(err, os.ErrPermission):
		return FailurePermission
	case errors.Is(err, os.ErrNotExist) && fallback == FailureSourceMissing:
		return FailureSourceMissing
	default:
		return fallback
	}
}

func samePath(a, b string) bool {
	left, err := filepath.Abs(a)
	if err != nil {
		return false
	}

	right, err := filepath.Abs(b)
	if err != nil {
		return false
	}

	return left == right
}
