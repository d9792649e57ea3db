package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neros29/mpx-Downloader/internal/client/ytdlp"
	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/naming"
	"github.com/neros29/mpx-Downloader/internal/utils"
)

// playlistEntries returns the file names of listed items present in targetDir, in collection order.
// present maps identities to paths produced during this run; other items are looked up by title.
func playlistEntries(
	targetDir string,
	items []ytdlp.ListingItem,
	present map[string]string,
	container media.Container,
) []string {
	targetDir = filepath.Clean(targetDir)
	names := make([]string, 0, len(items))

	for _, item := range items {
		if path, ok := present[item.ID]; ok && filepath.Dir(filepath.Clean(path)) == targetDir {
			if exists, _ := utils.IsFileExist(path); exists {
				names = append(names, filepath.Base(path))

				continue
			}
		}

		if item.Title == "" {
			continue
		}

		for _, ext := range container.Extensions() {
			name := naming.ItemFilename(item.Title, ext)
			if exists, _ := utils.IsFileExist(filepath.Join(targetDir, name)); exists {
				names = append(names, name)

				break
			}
		}
	}

	return names
}

// writePlaylistFile writes one relative file name per line.
// Nothing is written when names is empty; the returned path is then empty too.
func writePlaylistFile(targetDir, playlistTitle string, names []string) (string, error) {
	if len(names) == 0 {
		return "", nil
	}

	path := filepath.Join(targetDir, naming.M3UFilename(playlistTitle))
	content := strings.Join(names, "\n") + "\n"

	if err := os.WriteFile(path, []byte(content), constants.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("failed to write playlist file: %w", err)
	}

	return path, nil
}

func (s *ServiceImpl) generatePlaylistFile(
	ctx context.Context,
	targetDir string,
	listing *ytdlp.Listing,
	present map[string]string,
) {
	names := playlistEntries(targetDir, listing.Items, present, s.container())

	path, err := writePlaylistFile(targetDir, listing.Title, names)
	if err != nil {
		logger.Warnf(ctx, "Could not generate playlist file for '%s': %v", listing.Title, err)

		return
	}

	if path == "" {
		return
	}

	s.incrementPlaylistFilesWritten()
	logger.Infof(ctx, "Playlist file written: %s (%d entries)", path, len(names))
}
