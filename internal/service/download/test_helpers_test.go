package download

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/neros29/mpx-Downloader/internal/archive"
	"github.com/neros29/mpx-Downloader/internal/client/ytdlp"
	mock_ytdlp "github.com/neros29/mpx-Downloader/internal/client/ytdlp/mocks"
	"github.com/neros29/mpx-Downloader/internal/config"
	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/importer"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/materializer"
	"github.com/neros29/mpx-Downloader/internal/media"
)

// testDownloadSetup encapsulates common test dependencies and configuration.
type testDownloadSetup struct {
	mockClient *mock_ytdlp.MockClient
	service    *ServiceImpl
	store      *archive.Store
	config     *config.Config
	outputDir  string
	libraryDir string
}

// newTestDownloadSetup creates a service over a real archive in a temporary directory.
func newTestDownloadSetup(t *testing.T, configOverrides ...func(*config.Config)) *testDownloadSetup {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockClient := mock_ytdlp.NewMockClient(ctrl)
	root := t.TempDir()

	cfg := &config.Config{
		OutputPath:          filepath.Join(root, "out"),
		ParsedDefaultFormat: media.ContainerMP3,
		ParsedLogLevel:      logger.Level(),
		MaxFolderNameLength: 100,
		RetryAttemptsCount:  2,
		GenerateM3U:         true,
		ParsedMinRetryPause: time.Millisecond,
		ParsedMaxRetryPause: 2 * time.Millisecond,
	}

	for _, override := range configOverrides {
		override(cfg)
	}

	store := archive.NewStore(filepath.Join(root, "data", constants.ArchiveFilename))

	service, ok := NewService(cfg, mockClient, store, materializer.New(nil), importer.New(store)).(*ServiceImpl)
	require.True(t, ok)

	service.startHeartbeat = func(context.Context, string) *Heartbeat { return nil }

	libraryDir := filepath.Join(root, "library")
	require.NoError(t, os.MkdirAll(libraryDir, constants.DefaultFolderPermissions))

	return &testDownloadSetup{
		mockClient: mockClient,
		service:    service,
		store:      store,
		config:     cfg,
		outputDir:  cfg.OutputPath,
		libraryDir: libraryDir,
	}
}

// archiveFile creates a file in the library directory and records it in the archive.
func (s *testDownloadSetup) archiveFile(t *testing.T, id, title string) string {
	t.Helper()

	path := filepath.Join(s.libraryDir, title+constants.ExtensionMP3)
	writeTestFile(t, path, "archived:"+id)
	s.store.Add(t.Context(), id, "Youtube", title, path, media.ContainerMP3)

	return path
}

// writeTestFile creates a file and its parent directories.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), constants.DefaultFolderPermissions))
	require.NoError(t, os.WriteFile(path, []byte(content), constants.DefaultFilePermissions))
}

// deliver returns a Fetch stub that creates the items' files and reports them.
func deliver(
	t *testing.T,
	items ...ytdlp.FetchedItem,
) func(context.Context, *ytdlp.FetchRequest) (*ytdlp.FetchResult, error) {
	t.Helper()

	return func(_ context.Context, _ *ytdlp.FetchRequest) (*ytdlp.FetchResult, error) {
		for _, item := range items {
			writeTestFile(t, item.Path, "fetched:"+item.ID)
		}

		return &ytdlp.FetchResult{Items: items}, nil
	}
}
