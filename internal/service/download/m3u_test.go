package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neros29/mpx-Downloader/internal/client/ytdlp"
	"github.com/neros29/mpx-Downloader/internal/media"
)

func TestPlaylistEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "Song 1.mp3"), "1")
	writeTestFile(t, filepath.Join(dir, "Song 2.mp3"), "2")
	writeTestFile(t, filepath.Join(dir, "Renamed by yt-dlp.mp3"), "3")
	writeTestFile(t, filepath.Join(t.TempDir(), "Elsewhere.mp3"), "4")

	items := []ytdlp.ListingItem{
		{ID: "s2", Title: "Song 2"},
		{ID: "s3", Title: "Song 3"},
		{ID: "s1", Title: "Song 1"},
		{ID: "s4", Title: "Song 4"},
		{ID: "s5"},
	}

	present := map[string]string{
		"s3": filepath.Join(dir, "Renamed by yt-dlp.mp3"),
		"s4": filepath.Join(t.TempDir(), "Elsewhere.mp3"),
	}

	names := playlistEntries(dir, items, present, media.ContainerMP3)

	assert.Equal(t, []string{"Song 2.mp3", "Renamed by yt-dlp.mp3", "Song 1.mp3"}, names)
}

func TestPlaylistEntries_NativeExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "Song.opus"), "1")
	writeTestFile(t, filepath.Join(dir, "Song.flac"), "2")

	items := []ytdlp.ListingItem{{ID: "s1", Title: "Song"}}

	assert.Equal(t, []string{"Song.opus"}, playlistEntries(dir, items, nil, media.ContainerNative))
	assert.Empty(t, playlistEntries(dir, items, nil, media.ContainerMP3))
}

// TestPlaylistEntries_TitleEdges tests titles whose edges yt-dlp keeps in the file name.
func TestPlaylistEntries_TitleEdges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "-Intro-.mp3"), "1")
	writeTestFile(t, filepath.Join(dir, "...And Justice for All....mp3"), "2")
	writeTestFile(t, filepath.Join(dir, "AUX.mp3"), "3")

	items := []ytdlp.ListingItem{
		{ID: "s1", Title: "-Intro-"},
		{ID: "s2", Title: "...And Justice for All..."},
		{ID: "s3", Title: "AUX"},
	}

	assert.Equal(t,
		[]string{"-Intro-.mp3", "...And Justice for All....mp3", "AUX.mp3"},
		playlistEntries(dir, items, nil, media.ContainerMP3))
}

func TestWritePlaylistFile(t *testing.T) {
	t.Parallel()

	t.Run("writes names in order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		path, err := writePlaylistFile(dir, "Test Playlist", []string{"Song 1.mp3", "Song 2.mp3"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "Test Playlist.m3u"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Song 1.mp3\nSong 2.mp3\n", string(content))
	})

	t.Run("no entries writes nothing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		path, err := writePlaylistFile(dir, "Empty Playlist", nil)
		require.NoError(t, err)
		assert.Empty(t, path)

		matches, err := filepath.Glob(filepath.Join(dir, "*.m3u"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := writePlaylistFile(filepath.Join(t.TempDir(), "missing"), "Mix", []string{"a.mp3"})
		assert.Error(t, err)
	})
}
