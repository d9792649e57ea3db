package download

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/neros29/mpx-Downloader/internal/archive"
	"github.com/neros29/mpx-Downloader/internal/client/ytdlp"
	"github.com/neros29/mpx-Downloader/internal/config"
	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/importer"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/materializer"
	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/naming"
	"github.com/neros29/mpx-Downloader/internal/planner"
	"github.com/neros29/mpx-Downloader/internal/utils"
)

// fallbackCookiesBrowser is used for private collections when no browser is configured.
const fallbackCookiesBrowser = "firefox"

// Service downloads URLs while reusing files the archive already knows.
type Service interface {
	// DownloadURLs plans, materializes, fetches and records every URL in order.
	DownloadURLs(ctx context.Context, urls []string)
	// PrintDownloadSummary prints a formatted summary of download statistics.
	PrintDownloadSummary(ctx context.Context)
	// Close writes pending archive changes to disk.
	Close(ctx context.Context)
}

// ServiceImpl implements Service on top of the archive store and yt-dlp.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// client runs yt-dlp.
	client ytdlp.Client
	// store is the archive of files captured so far.
	store *archive.Store
	// materializer places archived files into target folders.
	materializer *materializer.Materializer
	// importer adds files found in the output directory to the archive.
	importer *importer.Importer
	// errorHandler logs and records failures.
	errorHandler *ErrorHandler
	// startHeartbeat creates the liveness spinner for a fetch.
	startHeartbeat func(ctx context.Context, description string) *Heartbeat
	// stats tracks download statistics for the current session.
	stats *DownloadStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// fetchJob is one yt-dlp run over a set of URLs.
type fetchJob struct {
	urls []string
	// ids holds the identity behind each URL, when the URLs come from a listing.
	ids       []string
	sourceURL string
	template  string
	cookies   string
}

// NewService creates a download service instance.
func NewService(
	cfg *config.Config,
	client ytdlp.Client,
	store *archive.Store,
	m *materializer.Materializer,
	im *importer.Importer,
) Service {
	s := &ServiceImpl{
		cfg:            cfg,
		client:         client,
		store:          store,
		materializer:   m,
		importer:       im,
		startHeartbeat: StartHeartbeat,
		stats:          new(DownloadStatistics),
		statsMutex:     new(sync.Mutex),
	}

	s.errorHandler = NewErrorHandler(s)

	return s
}

// DownloadURLs plans, materializes, fetches and records every URL in order.
func (s *ServiceImpl) DownloadURLs(ctx context.Context, urls []string) {
	s.statsMutex.Lock()
	s.stats.StartTime = time.Now()
	s.statsMutex.Unlock()

	defer func() {
		s.statsMutex.Lock()
		s.stats.EndTime = time.Now()
		s.statsMutex.Unlock()
	}()

	baseDir, err := s.outputDir()
	if err != nil {
		logger.Errorf(ctx, "Failed to resolve output path: %v", err)

		return
	}

	if err = os.MkdirAll(baseDir, constants.DefaultFolderPermissions); err != nil {
		logger.Errorf(ctx, "Failed to create output path: %v", err)

		return
	}

	if s.cfg.ImportExisting {
		s.importExisting(ctx, baseDir)
	}

	logger.Infof(ctx, "Starting download process: %s into '%s'", s.container().Description(), baseDir)

	for index, url := range urls {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Infof(ctx, "Processing URL: %s (%d / %d)", url, index+1, len(urls))

		s.processURL(ctx, baseDir, url)
		s.incrementURLsProcessed()

		// Keep what was captured so far even if a later URL is interrupted.
		s.store.Flush(ctx)
	}

	logger.Info(ctx, "Download process completed")
}

// Close writes pending archive changes to disk, warning on failure.
func (s *ServiceImpl) Close(ctx context.Context) {
	s.store.Flush(ctx)
}

func (s *ServiceImpl) container() media.Container {
	if s.cfg.ParsedDefaultFormat.IsValid() {
		return s.cfg.ParsedDefaultFormat
	}

	return media.ContainerMP3
}

func (s *ServiceImpl) outputDir() (string, error) {
	dir := strings.TrimSpace(s.cfg.OutputPath)
	if dir == "" {
		dir = "."
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEmptyOutputPath, err)
	}

	return absDir, nil
}

// importExisting archives files already sitting in the output directory.
func (s *ServiceImpl) importExisting(ctx context.Context, baseDir string) {
	result, err := s.importer.Import(ctx, baseDir, importer.Options{
		Container: s.container(),
		ReadTags:  s.cfg.ImportReadTags,
	})
	if err != nil {
		logger.Warnf(ctx, "Failed to import existing files from '%s': %v", baseDir, err)

		return
	}

	if result.Added > 0 {
		logger.Infof(ctx, "Imported %d existing file(s) into the archive", result.Added)
	}

	s.incrementFilesImported(result.Added)
}

// cookiesFor returns the browser whose cookies should be used for url.
func (s *ServiceImpl) cookiesFor(ctx context.Context, url string) string {
	if s.cfg.CookiesFromBrowser != "" {
		return s.cfg.CookiesFromBrowser
	}

	if naming.IsYouTubeMusicLiked(url) {
		logger.Infof(ctx, "Liked Music needs a signed-in session, using %s cookies", fallbackCookiesBrowser)

		return fallbackCookiesBrowser
	}

	return ""
}

func (s *ServiceImpl) processURL(ctx context.Context, baseDir, url string) {
	cookies := s.cookiesFor(ctx, url)

	listing, err := s.list(ctx, url, &cookies)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		logger.Warnf(ctx, "Failed to list '%s', downloading it without the archive: %v", url, err)
		s.fetchUnplanned(ctx, baseDir, url, cookies)

		return
	}

	s.downloadListing(ctx, baseDir, url, listing, cookies)
}

// list enumerates url, retrying once with browser cookies when the failure looks like a private collection.
func (s *ServiceImpl) list(ctx context.Context, url string, cookies *string) (*ytdlp.Listing, error) {
	listing, err := s.client.FlatList(ctx, url, ytdlp.ListOptions{CookiesFromBrowser: *cookies})
	if err == nil {
		return listing, nil
	}

	if *cookies != "" || !ytdlp.ShouldRetryWithCookies(err, url) {
		return nil, fmt.Errorf("failed to list URL: %w", err)
	}

	logger.Warnf(ctx, "Listing '%s' failed, retrying with %s cookies", url, fallbackCookiesBrowser)

	*cookies = fallbackCookiesBrowser

	listing, err = s.client.FlatList(ctx, url, ytdlp.ListOptions{CookiesFromBrowser: *cookies})
	if err != nil {
		return nil, fmt.Errorf("failed to list URL with cookies: %w", err)
	}

	return listing, nil
}

// fetchUnplanned hands the whole URL to yt-dlp when it could not be listed.
func (s *ServiceImpl) fetchUnplanned(ctx context.Context, baseDir, url, cookies string) {
	category := DownloadCategoryItem
	template := naming.SingleItemTemplate(baseDir)

	if naming.IsPlaylistURL(url) {
		category = DownloadCategoryPlaylist
		template = naming.UnresolvedPlaylistTemplate(baseDir)
	}

	_, err := s.fetch(ctx, &fetchJob{
		urls:      []string{url},
		sourceURL: url,
		template:  template,
		cookies:   cookies,
	})

	s.errorHandler.HandleError(ctx, err, &ErrorContext{
		Category: category,
		ItemURL:  url,
		Phase:    "fetching unlisted URL",
	}, false)
}

// downloadListing materializes archived items and fetches the rest.
func (s *ServiceImpl) downloadListing(
	ctx context.Context,
	baseDir, url string,
	listing *ytdlp.Listing,
	cookies string,
) {
	container := s.container()
	targetDir := naming.TargetDir(baseDir, url, listing.Title, listing.IsPlaylist, int(s.cfg.MaxFolderNameLength))

	items := utils.Map(listing.Items, func(item ytdlp.ListingItem) planner.Item {
		return planner.Item{ID: item.ID, Title: item.Title, Source: item.Source}
	})

	plan := planner.Plan(ctx, items, s.store, container)

	s.incrementItemsProcessed(len(items))
	s.incrementItemsSkipped(plan.Skipped)

	if listing.IsPlaylist {
		logger.Infof(ctx, "Playlist '%s': %d item(s), %d in archive, %d to fetch",
			listing.Title, len(items), len(plan.ToMaterialize), len(plan.Missing))
	}

	missing := make(map[string]struct{}, len(plan.Missing))
	for _, id := range plan.Missing {
		missing[id] = struct{}{}
	}

	present := make(map[string]string, len(items))

	for _, hit := range plan.ToMaterialize {
		if ctx.Err() != nil {
			return
		}

		result := s.materializer.Materialize(ctx, hit.Entry, targetDir, container)
		if !result.OK() {
			// A failed placement is a cache miss.
			missing[hit.Item.ID] = struct{}{}

			continue
		}

		s.incrementMaterialized(result)
		present[hit.Item.ID] = result.Destination
	}

	// Fetch in collection order, each identity once.
	pending := make([]ytdlp.ListingItem, 0, len(missing))

	for _, item := range listing.Items {
		if _, ok := missing[item.ID]; ok {
			pending = append(pending, item)
			delete(missing, item.ID)
		}
	}

	if len(pending) > 0 {
		s.incrementItemsMissing(len(pending))
		s.fetchPending(ctx, url, listing, targetDir, pending, cookies, present)
	}

	if listing.IsPlaylist && s.cfg.GenerateM3U && ctx.Err() == nil {
		s.generatePlaylistFile(ctx, targetDir, listing, present)
	}
}

func (s *ServiceImpl) fetchPending(
	ctx context.Context,
	url string,
	listing *ytdlp.Listing,
	targetDir string,
	pending []ytdlp.ListingItem,
	cookies string,
	present map[string]string,
) {
	urls := utils.Map(pending, func(item ytdlp.ListingItem) string {
		return itemURL(item, url, listing.IsPlaylist)
	})

	delivered, err := s.fetch(ctx, &fetchJob{
		urls:      urls,
		ids:       utils.Map(pending, func(item ytdlp.ListingItem) string { return item.ID }),
		sourceURL: url,
		template:  naming.SingleItemTemplate(targetDir),
		cookies:   cookies,
	})

	for id, path := range delivered {
		present[id] = path
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	notDelivered := make([]ytdlp.ListingItem, 0, len(pending))

	for _, item := range pending {
		if _, ok := delivered[item.ID]; !ok {
			notDelivered = append(notDelivered, item)
		}
	}

	if len(notDelivered) == 0 {
		return
	}

	if err != nil {
		category := DownloadCategoryItem
		if listing.IsPlaylist {
			category = DownloadCategoryPlaylist
		}

		s.errorHandler.HandleError(ctx, err, &ErrorContext{
			Category:  category,
			ItemID:    listing.ID,
			ItemTitle: listing.Title,
			ItemURL:   url,
			Phase:     "fetching",
		}, false)
		s.incrementItemsFailed(len(notDelivered))

		return
	}

	var parentTitle, parentURL string
	if listing.IsPlaylist {
		parentTitle, parentURL = listing.Title, url
	}

	for _, item := range notDelivered {
		s.errorHandler.HandleError(ctx, ErrItemNotFetched, &ErrorContext{
			Category:    DownloadCategoryItem,
			ItemID:      item.ID,
			ItemTitle:   item.Title,
			ItemURL:     itemURL(item, url, listing.IsPlaylist),
			Phase:       "fetching item",
			ParentTitle: parentTitle,
			ParentURL:   parentURL,
		}, true)
	}
}

// fetch runs yt-dlp with retries and records every delivered item in the archive.
// It returns the paths of delivered items by identity, also when the run failed.
func (s *ServiceImpl) fetch(ctx context.Context, job *fetchJob) (map[string]string, error) {
	delivered := make(map[string]string, len(job.urls))

	heartbeat := s.startHeartbeat(ctx, fmt.Sprintf("Fetching %d URL(s)", len(job.urls)))
	defer heartbeat.Stop()

	req := &ytdlp.FetchRequest{
		URLs:               job.urls,
		Container:          s.container(),
		OutputTemplate:     job.template,
		FastMode:           s.cfg.FastMode,
		CookiesFromBrowser: job.cookies,
	}

	if heartbeat != nil {
		req.OnProgress = heartbeat.Progress
	}

	attempts := max(s.cfg.RetryAttemptsCount, 1)

	for attempt := int64(1); ; attempt++ {
		result, err := s.client.Fetch(ctx, req)
		s.recordFetched(ctx, result, delivered)

		if err == nil || ctx.Err() != nil {
			return delivered, err
		}

		// Items delivered before the failure are archived and never requested again.
		req.URLs = job.remaining(delivered)
		if len(req.URLs) == 0 {
			return delivered, err
		}

		if req.CookiesFromBrowser == "" && ytdlp.ShouldRetryWithCookies(err, job.sourceURL) {
			logger.Warnf(ctx, "Fetching '%s' failed, retrying with %s cookies", job.sourceURL, fallbackCookiesBrowser)

			req.CookiesFromBrowser = fallbackCookiesBrowser

			continue
		}

		if attempt >= attempts {
			return delivered, err
		}

		logger.Warnf(ctx, "Fetch attempt %d of %d failed: %v", attempt, attempts, err)

		if pauseErr := utils.RandomPause(ctx, s.cfg.ParsedMinRetryPause, s.cfg.ParsedMaxRetryPause); pauseErr != nil {
			return delivered, pauseErr
		}
	}
}

// remaining returns the job's URLs whose identity has not been delivered yet.
// URLs without a known identity are always kept.
func (j *fetchJob) remaining(delivered map[string]string) []string {
	if len(j.ids) != len(j.urls) {
		return j.urls
	}

	urls := make([]string, 0, len(j.urls))

	for i, url := range j.urls {
		if _, ok := delivered[j.ids[i]]; !ok {
			urls = append(urls, url)
		}
	}

	return urls
}

// recordFetched adds newly delivered items to the archive.
func (s *ServiceImpl) recordFetched(ctx context.Context, result *ytdlp.FetchResult, delivered map[string]string) {
	if result == nil {
		return
	}

	for _, item := range result.Items {
		if _, ok := delivered[item.ID]; ok {
			continue
		}

		entry := s.store.Add(ctx, item.ID, item.Source, item.Title, item.Path, item.Container)
		delivered[item.ID] = entry.Path

		s.incrementItemsFetched()
		logger.InfoKV(ctx, "Fetched", "title", entry.Title, "path", entry.Path)
	}
}

// itemURL returns a fetchable URL for a listed item.
func itemURL(item ytdlp.ListingItem, pageURL string, isPlaylist bool) string {
	switch {
	case utils.IsHTTPURL(item.URL):
		return item.URL
	case !isPlaylist:
		return pageURL
	default:
		return ytdlp.WatchURL(item.ID)
	}
}
