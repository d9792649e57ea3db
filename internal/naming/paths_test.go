package naming

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestArchivePath tests override handling of ArchivePath.
func TestArchivePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	override := filepath.Join(dir, "archive.json")

	path, err := ArchivePath(override)
	require.NoError(t, err)
	assert.Equal(t, override, path)

	path, err = ArchivePath("relative.json")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "relative.json", filepath.Base(path))
}

// TestBackupPath tests that the backup sits next to the archive.
func TestBackupPath(t *testing.T) {
	t.Parallel()

	archivePath := filepath.Join("data", "yt-dlp-wrapper", "download_archive.json")
	assert.Equal(t,
		filepath.Join("data", "yt-dlp-wrapper", "download_archive_backup.json"),
		BackupPath(archivePath))
}

// TestURLClassification tests playlist and liked-feed detection.
func TestURLClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		url        string
		isPlaylist bool
		isLiked    bool
	}{
		{
			name:       "single video",
			url:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			isPlaylist: false,
			isLiked:    false,
		},
		{
			name:       "playlist page",
			url:        "https://www.youtube.com/playlist?list=PL123",
			isPlaylist: true,
			isLiked:    false,
		},
		{
			name:       "video inside playlist",
			url:        "https://www.youtube.com/watch?v=abc&list=PL123",
			isPlaylist: true,
			isLiked:    false,
		},
		{
			name:       "music liked feed",
			url:        "https://music.youtube.com/playlist?list=LM",
			isPlaylist: true,
			isLiked:    true,
		},
		{
			name:       "regular liked videos are not music",
			url:        "https://www.youtube.com/playlist?list=LL",
			isPlaylist: true,
			isLiked:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.isPlaylist, IsPlaylistURL(tt.url))
			assert.Equal(t, tt.isLiked, IsYouTubeMusicLiked(tt.url))
		})
	}
}

// TestPlaylistFolderName tests folder naming for playlists.
func TestPlaylistFolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		url       string
		title     string
		maxLength int
		expected  string
	}{
		{
			name:     "liked feed ignores title",
			url:      "https://music.youtube.com/playlist?list=LM",
			title:    "Your Likes",
			expected: "Liked Music",
		},
		{
			name:     "sanitized title",
			url:      "https://www.youtube.com/playlist?list=PL1",
			title:    "Road/Trip: 2024?",
			expected: "Road⧸Trip： 2024？",
		},
		{
			name:     "missing title",
			url:      "https://www.youtube.com/playlist?list=PL1",
			title:    "  ",
			expected: "Playlist",
		},
		{
			name:      "truncated by runes",
			url:       "https://www.youtube.com/playlist?list=PL1",
			title:     "Плейлист номер один",
			maxLength: 8,
			expected:  "Плейлист",
		},
		{
			name:     "hidden folder avoided",
			url:      "https://www.youtube.com/playlist?list=PL1",
			title:    "...mix...",
			expected: "mix",
		},
		{
			name:     "only dots",
			url:      "https://www.youtube.com/playlist?list=PL1",
			title:    "...",
			expected: "Playlist",
		},
		{
			name:     "Windows reserved name",
			url:      "https://www.youtube.com/playlist?list=PL1",
			title:    "con",
			expected: "_con",
		},
		{
			name:     "Windows reserved name with extension",
			url:      "https://www.youtube.com/playlist?list=PL1",
			title:    "LPT1.old",
			expected: "_LPT1.old",
		},
		{
			name:     "leading dash kept",
			url:      "https://www.youtube.com/playlist?list=PL1",
			title:    "-Chill-",
			expected: "-Chill-",
		},
		{
			name:      "truncation does not leave trailing space",
			url:       "https://www.youtube.com/playlist?list=PL1",
			title:     "abc def",
			maxLength: 4,
			expected:  "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, PlaylistFolderName(tt.url, tt.title, tt.maxLength))
		})
	}
}

// TestTargetDir tests target directory resolution.
func TestTargetDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join("music", "out")

	assert.Equal(t, base, TargetDir(base, "https://youtu.be/x", "", false, 0))
	assert.Equal(t,
		filepath.Join(base, "Mix"),
		TargetDir(base, "https://www.youtube.com/playlist?list=PL1", "Mix", true, 0))
}

// TestTemplates tests yt-dlp output templates.
func TestTemplates(t *testing.T) {
	t.Parallel()

	base := filepath.Join("music", "out")

	assert.Equal(t, filepath.Join(base, "%(title)s.%(ext)s"), SingleItemTemplate(base))
	assert.True(t, strings.HasPrefix(UnresolvedPlaylistTemplate(base), base))
	assert.True(t, strings.HasSuffix(UnresolvedPlaylistTemplate(base), "%(title)s.%(ext)s"))
}

// TestItemFilename tests filename building.
func TestItemFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A？.mp3", ItemFilename("A?", "mp3"))
	assert.Equal(t, "A？.webm", ItemFilename("A?", ".webm"))
	assert.Equal(t, "Mix.m3u", M3UFilename("Mix"))
	assert.Equal(t, "Playlist.m3u", M3UFilename(""))
}
