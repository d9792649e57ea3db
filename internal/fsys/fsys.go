package fsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/logger"
)

// progressThreshold is the smallest copy that gets a progress bar.
const progressThreshold = 32 << 20

// FileSystem abstracts the filesystem operations the archive relies on.
type FileSystem interface {
	// Stat returns file information for path.
	Stat(path string) (os.FileInfo, error)
	// Link creates newPath as a hard link to oldPath.
	Link(oldPath, newPath string) error
	// CopyFile copies src to dst preserving mode and modification time.
	// It returns the number of bytes written.
	CopyFile(ctx context.Context, src, dst string) (int64, error)
	// Rename atomically replaces newPath with oldPath.
	Rename(oldPath, newPath string) error
	// Remove deletes path.
	Remove(path string) error
	// MkdirAll creates path and its parents.
	MkdirAll(path string) error
}

// OS implements FileSystem on top of the os package.
type OS struct{}

// NewOS returns the operating system filesystem.
func NewOS() *OS {
	return &OS{}
}

// Stat implements FileSystem.
func (*OS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Link implements FileSystem.
func (*OS) Link(oldPath, newPath string) error {
	return os.Link(oldPath, newPath)
}

// Rename implements FileSystem.
func (*OS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Remove implements FileSystem.
func (*OS) Remove(path string) error {
	return os.Remove(path)
}

// MkdirAll implements FileSystem.
func (*OS) MkdirAll(path string) error {
	return os.MkdirAll(path, constants.DefaultFolderPermissions)
}

// CopyFile implements FileSystem.
func (*OS) CopyFile(ctx context.Context, src, dst string) (int64, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return 0, fmt.Errorf("failed to open source: %w", err)
	}

	defer in.Close() //nolint:errcheck // Read-only handle.

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source: %w", err)
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create destination: %w", err)
	}

	var writer io.Writer = out
	if showProgress(info.Size()) {
		bar := progressbar.DefaultBytes(info.Size(), "Copying "+filepath.Base(src))
		writer = io.MultiWriter(out, bar)
	}

	written, err := io.Copy(writer, contextReader{ctx: ctx, r: in})

	closeErr := out.Close()
	if err = errors.Join(err, closeErr); err != nil {
		_ = os.Remove(dst)

		return written, fmt.Errorf("failed to copy data: %w", err)
	}

	if err = os.Chmod(dst, info.Mode().Perm()); err != nil {
		logger.Debugf(ctx, "Failed to preserve mode of '%s': %v", dst, err)
	}

	if err = os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		logger.Debugf(ctx, "Failed to preserve modification time of '%s': %v", dst, err)
	}

	return written, nil
}

// SameFile reports whether both paths exist and refer to the same file.
func SameFile(fs FileSystem, a, b string) bool {
	left, err := fs.Stat(a)
	if err != nil {
		return false
	}

	right, err := fs.Stat(b)
	if err != nil {
		return false
	}

	return os.SameFile(left, right)
}

// Exists reports whether path exists and is not a directory.
func Exists(fs FileSystem, path string) bool {
	info, err := fs.Stat(path)

	return err == nil && !info.IsDir()
}

func showProgress(size int64) bool {
	if size < progressThreshold || logger.Level() > zap.InfoLevel {
		return false
	}

	fd := os.Stderr.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// contextReader stops a copy as soon as the context is canceled.
type contextReader struct {
	ctx context.Context //nolint:containedctx // Scoped to a single copy.
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
