package archive

import "errors"

var (
	// ErrNoArchiveFile indicates that the archive document does not exist on disk.
	ErrNoArchiveFile = errors.New("archive file does not exist")
	// ErrLockTimeout indicates that another process held the archive lock for too long.
	ErrLockTimeout = errors.New("timed out waiting for archive lock")
	// errMalformedRecord marks a persisted record that cannot be turned into an entry.
	errMalformedRecord = errors.New("malformed archive record")
)
