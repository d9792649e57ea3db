package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/utils"
)

const (
	// LikedMusicFolder is the fixed folder for the YouTube Music liked feed.
	LikedMusicFolder = "Liked Music"
	// DefaultPlaylistFolder is used when a playlist has no usable title.
	DefaultPlaylistFolder = "Playlist"

	// ItemFilenameTemplate is the yt-dlp output template for a single item.
	ItemFilenameTemplate = "%(title)s.%(ext)s"
	// UnresolvedPlaylistFolderTemplate lets yt-dlp name the playlist folder itself.
	UnresolvedPlaylistFolderTemplate = "%(playlist_title|playlist|uploader|channel|id)s"
)

var (
	// windowsReservedNames is a map of filenames that are reserved on Windows systems.
	// These names are case-insensitive and cannot be used as filenames or folder names.
	//nolint:gochecknoglobals // This is an immutable map used as a constant for validation purposes.
	windowsReservedNames = map[string]struct{}{
		"CON":  {},
		"PRN":  {},
		"AUX":  {},
		"NUL":  {},
		"COM1": {},
		"COM2": {},
		"COM3": {},
		"COM4": {},
		"COM5": {},
		"COM6": {},
		"COM7": {},
		"COM8": {},
		"COM9": {},
		"LPT1": {},
		"LPT2": {},
		"LPT3": {},
		"LPT4": {},
		"LPT5": {},
		"LPT6": {},
		"LPT7": {},
		"LPT8": {},
		"LPT9": {},
	}
)

// ArchivePath returns the location of the archive document.
// An override is made absolute; otherwise the per-user data directory is used
// and its parent folders are created.
func ArchivePath(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		path, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("failed to resolve archive path: %w", err)
		}

		return path, nil
	}

	path, err := xdg.DataFile(filepath.Join(constants.AppDataDirName, constants.ArchiveFilename))
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}

	return path, nil
}

// BackupPath returns the backup location next to the archive document.
func BackupPath(archivePath string) string {
	return filepath.Join(filepath.Dir(archivePath), constants.ArchiveBackupFilename)
}

// IsYouTubeMusicLiked reports whether the URL points at the YouTube Music liked feed.
func IsYouTubeMusicLiked(url string) bool {
	u := strings.ToLower(url)

	return strings.Contains(u, "music.youtube.com") &&
		(strings.Contains(u, "list=lm") || strings.Contains(u, "liked"))
}

// IsPlaylistURL reports whether the URL addresses a collection.
func IsPlaylistURL(url string) bool {
	u := strings.ToLower(url)

	return strings.Contains(u, "playlist") || strings.Contains(u, "list=")
}

// PlaylistFolderName returns the folder name for a playlist.
// Names longer than maxLength runes are truncated; zero disables truncation.
func PlaylistFolderName(url, title string, maxLength int) string {
	if IsYouTubeMusicLiked(url) {
		return LikedMusicFolder
	}

	name := DefaultPlaylistFolder
	if strings.TrimSpace(title) != "" {
		name = SanitizeTitle(title)
	}

	// Folders are created here, not by yt-dlp, so they also get the Windows-safe edges.
	name = strings.TrimLeft(name, ".")
	name = strings.TrimRight(utils.TruncateRunes(name, maxLength), ". ")

	if name == "" {
		return DefaultPlaylistFolder
	}

	baseName := name
	if dotIndex := strings.LastIndex(name, "."); dotIndex > 0 {
		baseName = name[:dotIndex]
	}

	if _, ok := windowsReservedNames[strings.ToUpper(baseName)]; ok {
		name = "_" + name
	}

	return name
}

// TargetDir returns the directory items of a URL are placed into.
func TargetDir(baseDir, url, playlistTitle string, isPlaylist bool, maxLength int) string {
	if !isPlaylist {
		return baseDir
	}

	return filepath.Join(baseDir, PlaylistFolderName(url, playlistTitle, maxLength))
}

// ItemFilename returns the file name an item with the given title gets.
func ItemFilename(title, extension string) string {
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	return SanitizeTitle(title) + extension
}

// M3UFilename returns the name of the playlist file for a playlist title.
func M3UFilename(playlistTitle string) string {
	if strings.TrimSpace(playlistTitle) == "" {
		playlistTitle = DefaultPlaylistFolder
	}

	return ItemFilename(playlistTitle, constants.ExtensionM3U)
}

// SingleItemTemplate returns the yt-dlp output template for items placed into dir.
func SingleItemTemplate(dir string) string {
	return filepath.Join(dir, ItemFilenameTemplate)
}

// UnresolvedPlaylistTemplate returns an output template usable before playlist metadata is known.
func UnresolvedPlaylistTemplate(baseDir string) string {
	return filepath.Join(baseDir, UnresolvedPlaylistFolderTemplate, ItemFilenameTemplate)
}
