package ytdlp

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lrstanley/go-ytdlp"

	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
)

// Client defines the operations the downloader needs from yt-dlp.
type Client interface {
	// Prepare makes sure a yt-dlp executable is available.
	Prepare(ctx context.Context) error
	// FlatList enumerates a URL without probing its items.
	FlatList(ctx context.Context, url string, opts ListOptions) (*Listing, error)
	// Fetch downloads the requested URLs and reports every finished item.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// ClientImpl implements Client on top of go-ytdlp.
type ClientImpl struct {
	// listings caches flat listings per URL and cookie source for the session.
	listings *lru.Cache[string, *Listing]
}

// NewClient creates a new yt-dlp client.
func NewClient() (Client, error) {
	listings, err := lru.New[string, *Listing](listingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing cache: %w", err)
	}

	return &ClientImpl{listings: listings}, nil
}

// Prepare implements Client.
func (c *ClientImpl) Prepare(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to prepare yt-dlp: %w", err)
	}

	return nil
}

// FlatList implements Client.
func (c *ClientImpl) FlatList(ctx context.Context, url string, opts ListOptions) (*Listing, error) {
	cacheKey := opts.CookiesFromBrowser + "|" + url
	if listing, ok := c.listings.Get(cacheKey); ok {
		return listing, nil
	}

	cmd := ytdlp.New().
		FlatPlaylist().
		DumpSingleJSON().
		IgnoreErrors().
		SocketTimeout(socketTimeoutSeconds).
		ExtractorRetries(extractorRetries)

	if opts.CookiesFromBrowser != "" {
		cmd.CookiesFromBrowser(opts.CookiesFromBrowser)
	}

	logger.Debugf(ctx, "Listing '%s'", url)

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, wrapRunError(err, result)
	}

	listing, err := parseListing(result.Stdout)
	if err != nil {
		return nil, err
	}

	c.listings.Add(cacheKey, listing)

	return listing, nil
}

// Fetch implements Client.
// Items that finished are returned even when the run as a whole failed.
func (c *ClientImpl) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(req.URLs) == 0 {
		return nil, ErrNoURLs
	}

	cmd := newFetchCommand(req)

	if req.OnProgress != nil {
		cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			req.OnProgress(Progress{
				Status:          string(update.Status),
				Filename:        update.Filename,
				DownloadedBytes: update.DownloadedBytes,
				TotalBytes:      update.TotalBytes,
			})
		})
	}

	args := append([]string{"--print", finishedItemTemplate, "--no-simulate"}, req.URLs...)

	logger.Debugf(ctx, "Fetching %d URL(s) as %s", len(req.URLs), req.Container)

	result, err := cmd.Run(ctx, args...)

	fetched := &FetchResult{}
	if result != nil {
		fetched.Items = parseFinishedItems(result.Stdout, req.Container)
	}

	if err != nil {
		return fetched, wrapRunError(err, result)
	}

	return fetched, nil
}

// newFetchCommand configures format selection and post-processing for the container.
func newFetchCommand(req *FetchRequest) *ytdlp.Command {
	cmd := ytdlp.New().
		Output(req.OutputTemplate).
		WindowsFilenames().
		IgnoreErrors().
		Continue().
		NoOverwrites().
		Retries(retries).
		FragmentRetries(retries).
		ConcurrentFragments(concurrentFragments).
		SocketTimeout(socketTimeoutSeconds).
		ExtractorRetries(extractorRetries)

	switch req.Container {
	case media.ContainerNative:
		cmd.Format("bestaudio/best")
	case media.ContainerMKV:
		cmd.Format("bestvideo+bestaudio/best").
			MergeOutputFormat("mkv").
			RemuxVideo("mkv")
	case media.ContainerMP4:
		cmd.Format("bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo*+bestaudio/best").
			MergeOutputFormat("mp4").
			RemuxVideo("mp4")
	default:
		cmd.Format("bestaudio/best").
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality("0")
	}

	if !req.FastMode {
		cmd.EmbedMetadata()

		if req.Container != media.ContainerNative {
			cmd.EmbedThumbnail()
		}
	}

	if req.CookiesFromBrowser != "" {
		cmd.CookiesFromBrowser(req.CookiesFromBrowser)
	}

	return cmd
}

// wrapRunError attaches the end of yt-dlp's stderr to a failed run.
func wrapRunError(err error, result *ytdlp.Result) error {
	if errors.Is(err, context.Canceled) || result == nil {
		return err
	}

	if tail := stderrTail(result.Stderr); tail != "" {
		return fmt.Errorf("%w: %s", err, tail)
	}

	return err
}
