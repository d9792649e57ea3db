package download

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/neros29/mpx-Downloader/internal/client/ytdlp"
)

func TestHeartbeat_NilIsNoop(t *testing.T) {
	t.Parallel()

	var heartbeat *Heartbeat

	assert.NotPanics(t, func() {
		heartbeat.Progress(ytdlp.Progress{Filename: "a.mp3"})
	})
	assert.True(t, heartbeat.Stop())
}

func TestHeartbeat_Stop(t *testing.T) {
	t.Parallel()

	heartbeat := startHeartbeat(t.Context(), io.Discard, "Fetching 1 URL(s)")
	heartbeat.Progress(ytdlp.Progress{Filename: "/tmp/Song.mp3", DownloadedBytes: 10, TotalBytes: 100})

	assert.True(t, heartbeat.Stop())
	assert.True(t, heartbeat.Stop(), "second Stop should be a no-op")

	select {
	case <-heartbeat.done:
	default:
		t.Fatal("spinner goroutine should have exited")
	}
}

func TestHeartbeat_StopsWithParentContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	heartbeat := startHeartbeat(ctx, io.Discard, "Fetching")

	cancel()

	select {
	case <-heartbeat.done:
	case <-time.After(heartbeatJoinTimeout):
		t.Fatal("spinner goroutine should exit when the context is canceled")
	}

	assert.True(t, heartbeat.Stop())
}

func TestProgressDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		progress ytdlp.Progress
		expected string
	}{
		{
			name:     "no file name",
			progress: ytdlp.Progress{},
			expected: "Downloading",
		},
		{
			name:     "unknown size",
			progress: ytdlp.Progress{Filename: "/music/Mix/Song.webm", DownloadedBytes: 500},
			expected: "Song.webm",
		},
		{
			name:     "known size",
			progress: ytdlp.Progress{Filename: "Song.webm", DownloadedBytes: 1000, TotalBytes: 2000000},
			expected: "Song.webm 1.0 kB / 2.0 MB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, progressDescription(tt.progress))
		})
	}
}
