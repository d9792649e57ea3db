package constants

import "os"

const (
	// DefaultFilePermissions sets the default permissions for regular files: (rw-r--r--).
	// Owner: read and write;
	// Group: read;
	// Others: read.
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultFolderPermissions sets the default permissions for regular folders: (rwxr-xr-x).
	// Owner: read, write, and execute;
	// Group: read and execute;
	// Others: read and execute.
	DefaultFolderPermissions os.FileMode = 0o755
)

// Archive locations, relative to the per-user data directory.
const (
	AppDataDirName        = "yt-dlp-wrapper"
	ArchiveFilename       = "download_archive.json"
	ArchiveBackupFilename = "download_archive_backup.json"
	LockFileSuffix        = ".lock"
	TempFileSuffix        = ".tmp"
)

// File extension constants.
const (
	ExtensionMP3  = ".mp3"
	ExtensionM4A  = ".m4a"
	ExtensionM4V  = ".m4v"
	ExtensionAAC  = ".aac"
	ExtensionOPUS = ".opus"
	ExtensionFLAC = ".flac"
	ExtensionWAV  = ".wav"
	ExtensionWEBM = ".webm"
	ExtensionMP4  = ".mp4"
	ExtensionMKV  = ".mkv"
	ExtensionAVI  = ".avi"
	ExtensionMOV  = ".mov"
	ExtensionM3U  = ".m3u"
)
