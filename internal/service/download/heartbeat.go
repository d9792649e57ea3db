package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap/zapcore"

	"github.com/neros29/mpx-Downloader/internal/client/ytdlp"
	"github.com/neros29/mpx-Downloader/internal/logger"
)

const (
	heartbeatInterval    = 200 * time.Millisecond
	heartbeatJoinTimeout = 2 * time.Second
	heartbeatSpinnerType = 14
)

// Heartbeat shows a spinner while yt-dlp runs, so long fetches do not look frozen.
// A nil Heartbeat is valid and does nothing.
type Heartbeat struct {
	bar      *progressbar.ProgressBar
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	joined   bool
}

// StartHeartbeat starts a spinner on stderr when it is a terminal and info output is enabled.
func StartHeartbeat(ctx context.Context, description string) *Heartbeat {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}

	if logger.Level() > zapcore.InfoLevel {
		return nil
	}

	return startHeartbeat(ctx, os.Stderr, description)
}

func startHeartbeat(ctx context.Context, w io.Writer, description string) *Heartbeat {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(heartbeatSpinnerType),
		progressbar.OptionThrottle(heartbeatInterval),
		progressbar.OptionClearOnFinish(),
	)

	ctx, cancel := context.WithCancel(ctx)

	h := &Heartbeat{
		bar:    bar,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go h.run(ctx)

	return h
}

func (h *Heartbeat) run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = h.bar.Add(1)
		}
	}
}

// Progress shows the file being downloaded and how much of it arrived.
func (h *Heartbeat) Progress(p ytdlp.Progress) {
	if h == nil {
		return
	}

	h.bar.Describe(progressDescription(p))
}

// Stop halts the spinner and waits a bounded time for it to exit.
// It reports whether the spinner goroutine finished in time. Calling Stop again is a no-op.
func (h *Heartbeat) Stop() bool {
	if h == nil {
		return true
	}

	h.stopOnce.Do(func() {
		h.cancel()

		select {
		case <-h.done:
			h.joined = true
		case <-time.After(heartbeatJoinTimeout):
		}

		_ = h.bar.Finish()
	})

	return h.joined
}

func progressDescription(p ytdlp.Progress) string {
	name := "Downloading"
	if p.Filename != "" {
		name = filepath.Base(p.Filename)
	}

	if p.TotalBytes <= 0 {
		return name
	}

	//nolint:gosec // Byte counts reported by yt-dlp are never negative.
	return fmt.Sprintf("%s %s / %s", name,
		humanize.Bytes(uint64(max(p.DownloadedBytes, 0))),
		humanize.Bytes(uint64(p.TotalBytes)))
}
