package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/media"
)

// validConfig returns a configuration that passes validation.
func validConfig() *Config {
	return &Config{
		DefaultFormat:       "mp3",
		LogLevel:            "info",
		MaxFolderNameLength: 100,
		RetryAttemptsCount:  2,
		MinRetryPause:       "1s",
		MaxRetryPause:       "3s",
		LockTimeout:         "10s",
	}
}

// TestLoadConfig tests the LoadConfig function.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		configFilename string
		configContent  string
		expectError    bool
		expectedError  string
		check          func(t *testing.T, cfg *Config)
	}{
		{
			name:           "valid config file",
			configFilename: "valid_config.yaml",
			configContent: `
output_path: "/tmp/downloads"
default_format: "mkv"
log_level: "debug"
fast_mode: true
cookies_from_browser: "firefox"
import_existing: false
generate_m3u: false
max_folder_name_length: 50
retry_attempts_count: 4
min_retry_pause: "2s"
max_retry_pause: "5s"
lock_timeout: "30s"
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()

				assert.Equal(t, "/tmp/downloads", cfg.OutputPath)
				assert.Equal(t, "mkv", cfg.DefaultFormat)
				assert.True(t, cfg.FastMode)
				assert.Equal(t, "firefox", cfg.CookiesFromBrowser)
				assert.False(t, cfg.ImportExisting)
				assert.False(t, cfg.GenerateM3U)
				assert.Equal(t, int64(50), cfg.MaxFolderNameLength)
				assert.Equal(t, int64(4), cfg.RetryAttemptsCount)
				assert.Equal(t, "30s", cfg.LockTimeout)
			},
		},
		{
			name:           "partial config gets defaults",
			configFilename: "partial.yaml",
			configContent:  "default_format: native\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()

				assert.Equal(t, "native", cfg.DefaultFormat)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.True(t, cfg.ImportExisting)
				assert.True(t, cfg.GenerateM3U)
				assert.Equal(t, int64(100), cfg.MaxFolderNameLength)
				assert.Equal(t, int64(2), cfg.RetryAttemptsCount)
				assert.Equal(t, "1s", cfg.MinRetryPause)
				assert.Equal(t, "3s", cfg.MaxRetryPause)
				assert.Equal(t, "10s", cfg.LockTimeout)
			},
		},
		{
			name:           "non-existent explicit file",
			configFilename: "non_existent.yaml",
			expectError:    true,
			expectedError:  "failed to read config from file",
		},
		{
			name:           "invalid yaml",
			configFilename: "invalid.yaml",
			configContent: `
invalid: yaml: content: [unclosed
`,
			expectError:   true,
			expectedError: "failed to read config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), tt.configFilename)

			if tt.configContent != "" {
				err := os.WriteFile(configPath, []byte(tt.configContent), constants.DefaultFilePermissions)
				require.NoError(t, err)
			}

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			require.NoError(t, ValidateConfig(cfg))
			tt.check(t, cfg)
		})
	}
}

// TestValidateConfig tests the ValidateConfig function.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		modify   func(cfg *Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:   "empty default format",
			modify: func(cfg *Config) { cfg.DefaultFormat = "" },
		},
		{
			name:     "unknown default format",
			modify:   func(cfg *Config) { cfg.DefaultFormat = "flac" },
			errorMsg: "invalid default_format: unknown container",
		},
		{
			name:     "invalid log level",
			modify:   func(cfg *Config) { cfg.LogLevel = "invalid" },
			errorMsg: "unknown log level:",
		},
		{
			name:     "negative folder name length",
			modify:   func(cfg *Config) { cfg.MaxFolderNameLength = -1 },
			errorMsg: "max_folder_name_length cannot be negative",
		},
		{
			name:     "invalid retry attempts count",
			modify:   func(cfg *Config) { cfg.RetryAttemptsCount = 0 },
			errorMsg: "retry attempts count must a positive integer",
		},
		{
			name:     "invalid min retry pause",
			modify:   func(cfg *Config) { cfg.MinRetryPause = "invalid" },
			errorMsg: "failed to parse min retry pause:",
		},
		{
			name:     "zero min retry pause",
			modify:   func(cfg *Config) { cfg.MinRetryPause = "0s" },
			errorMsg: "min_retry_pause must be positive",
		},
		{
			name:     "invalid max retry pause",
			modify:   func(cfg *Config) { cfg.MaxRetryPause = "xyz" },
			errorMsg: "failed to parse max retry pause:",
		},
		{
			name:     "negative max retry pause",
			modify:   func(cfg *Config) { cfg.MaxRetryPause = "-5s" },
			errorMsg: "max_retry_pause must be positive",
		},
		{
			name: "max retry pause below min",
			modify: func(cfg *Config) {
				cfg.MinRetryPause = "5s"
				cfg.MaxRetryPause = "1s"
			},
			errorMsg: "max_retry_pause cannot be lower than min_retry_pause",
		},
		{
			name:     "invalid lock timeout",
			modify:   func(cfg *Config) { cfg.LockTimeout = "soon" },
			errorMsg: "failed to parse lock timeout:",
		},
		{
			name:     "zero lock timeout",
			modify:   func(cfg *Config) { cfg.LockTimeout = "0s" },
			errorMsg: "lock_timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := ValidateConfig(cfg)

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
			assert.Equal(t, time.Second, cfg.ParsedMinRetryPause)
			assert.Equal(t, 3*time.Second, cfg.ParsedMaxRetryPause)
			assert.Equal(t, 10*time.Second, cfg.ParsedLockTimeout)
		})
	}
}

// TestValidateConfig_DefaultFormat tests parsing of the default container.
func TestValidateConfig_DefaultFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected media.Container
	}{
		{input: "mp3", expected: media.ContainerMP3},
		{input: " MKV ", expected: media.ContainerMKV},
		{input: "Native", expected: media.ContainerNative},
		{input: "mp4", expected: media.ContainerMP4},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.DefaultFormat = tt.input

			require.NoError(t, ValidateConfig(cfg))
			assert.Equal(t, tt.expected, cfg.ParsedDefaultFormat)
		})
	}
}

// TestSaveConfig tests persisting the default format.
func TestSaveConfig(t *testing.T) {
	t.Parallel()

	t.Run("updates existing key and keeps order", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		original := "# downloader settings\noutput_path: /music\ndefault_format: mp3\nlog_level: info\n"
		require.NoError(t, os.WriteFile(configPath, []byte(original), constants.DefaultFilePermissions))

		cfg := validConfig()
		cfg.DefaultFormat = "mkv"
		require.NoError(t, SaveConfig(configPath, cfg))

		content, err := os.ReadFile(configPath)
		require.NoError(t, err)

		text := string(content)
		assert.Contains(t, text, "# downloader settings")
		assert.Contains(t, text, `default_format: "mkv"`)
		assert.Less(t, strings.Index(text, "output_path"), strings.Index(text, "default_format"))
		assert.Less(t, strings.Index(text, "default_format"), strings.Index(text, "log_level"))
	})

	t.Run("appends missing key", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("log_level: debug\n"), constants.DefaultFilePermissions))

		cfg := validConfig()
		cfg.DefaultFormat = "native"
		require.NoError(t, SaveConfig(configPath, cfg))

		loaded, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "native", loaded.DefaultFormat)
		assert.Equal(t, "debug", loaded.LogLevel)
	})

	t.Run("creates missing file", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "new.yaml")

		cfg := validConfig()
		cfg.DefaultFormat = "mp4"
		require.NoError(t, SaveConfig(configPath, cfg))

		content, err := os.ReadFile(configPath)
		require.NoError(t, err)

		var document map[string]string
		require.NoError(t, yaml.Unmarshal(content, &document))
		assert.Equal(t, map[string]string{"default_format": "mp4"}, document)
	})
}
