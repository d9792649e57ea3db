package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/logger"
	"github.com/neros29/mpx-Downloader/internal/media"
)

// Config holds all configuration settings.
type Config struct {
	// OutputPath is the base directory downloads are placed into. Empty means the working directory.
	OutputPath string `mapstructure:"output_path"`
	// DefaultFormat is the container used when none is given on the command line.
	DefaultFormat string `mapstructure:"default_format"`
	// ArchivePath overrides the location of the archive document.
	ArchivePath string `mapstructure:"archive_path"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// FastMode skips thumbnails and metadata embedding.
	FastMode bool `mapstructure:"fast_mode"`
	// CookiesFromBrowser names the browser whose cookies yt-dlp should use.
	CookiesFromBrowser string `mapstructure:"cookies_from_browser"`
	// ImportExisting adds files already in the output directory to the archive before downloading.
	ImportExisting bool `mapstructure:"import_existing"`
	// ImportReadTags takes imported titles from embedded tags.
	ImportReadTags bool `mapstructure:"import_read_tags"`
	// GenerateM3U writes a playlist file next to every downloaded playlist.
	GenerateM3U bool `mapstructure:"generate_m3u"`
	// MaxFolderNameLength is the maximum length for playlist folder names.
	MaxFolderNameLength int64 `mapstructure:"max_folder_name_length"`
	// RetryAttemptsCount is the number of attempts for a failed fetch.
	RetryAttemptsCount int64 `mapstructure:"retry_attempts_count"`
	// MinRetryPause is the minimum pause duration before retrying.
	MinRetryPause string `mapstructure:"min_retry_pause"`
	// MaxRetryPause is the maximum pause duration before retrying.
	MaxRetryPause string `mapstructure:"max_retry_pause"`
	// LockTimeout bounds the wait for the archive file lock.
	LockTimeout string `mapstructure:"lock_timeout"`
	// ParsedDefaultFormat is the parsed default container, empty when unset.
	ParsedDefaultFormat media.Container
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedMinRetryPause is the parsed minimum retry pause duration.
	ParsedMinRetryPause time.Duration
	// ParsedMaxRetryPause is the parsed maximum retry pause duration.
	ParsedMaxRetryPause time.Duration
	// ParsedLockTimeout is the parsed archive lock timeout.
	ParsedLockTimeout time.Duration
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".mpx-downloader.yaml"

	defaultFormatKey = "default_format"

	defaultMaxFolderNameLength = 100
	defaultRetryAttemptsCount  = 2
	defaultMinRetryPause       = "1s"
	defaultMaxRetryPause       = "3s"
	defaultLockTimeout         = "10s"
)

// Static error definitions for better error handling.
var (
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidRetryAttempts indicates that the retry attempts count is invalid.
	ErrInvalidRetryAttempts = errors.New("retry attempts count must a positive integer")
	// ErrInvalidMinRetryPause indicates that the min retry pause duration is invalid.
	ErrInvalidMinRetryPause = errors.New("min_retry_pause must be positive")
	// ErrInvalidMaxRetryPause indicates that the max retry pause duration is invalid.
	ErrInvalidMaxRetryPause = errors.New("max_retry_pause must be positive")
	// ErrMaxRetryPauseTooLow indicates that max_retry_pause is below min_retry_pause.
	ErrMaxRetryPauseTooLow = errors.New("max_retry_pause cannot be lower than min_retry_pause")
	// ErrInvalidLockTimeout indicates that the lock timeout is invalid.
	ErrInvalidLockTimeout = errors.New("lock_timeout must be positive")
	// ErrInvalidFolderNameLength indicates that the folder name limit is negative.
	ErrInvalidFolderNameLength = errors.New("max_folder_name_length cannot be negative")
)

// LoadConfig loads configuration settings from a YAML file.
// A missing default file yields the defaults; a missing explicit file is an error.
func LoadConfig(configFilename string) (*Config, error) {
	explicit := configFilename != ""
	if !explicit {
		configFilename = DefaultConfigFilename
	}

	v := newViper()
	v.SetConfigFile(configFilename)

	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:cyclop // Validation functions naturally have high complexity due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	cfg.ParsedDefaultFormat = ""

	if format := strings.TrimSpace(cfg.DefaultFormat); format != "" {
		cfg.ParsedDefaultFormat, err = media.ParseContainer(format)
		if err != nil {
			return fmt.Errorf("invalid default_format: %w", err)
		}
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if cfg.MaxFolderNameLength < 0 {
		return ErrInvalidFolderNameLength
	}

	if cfg.RetryAttemptsCount <= 0 {
		return ErrInvalidRetryAttempts
	}

	cfg.ParsedMinRetryPause, err = time.ParseDuration(cfg.MinRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse min retry pause: %w", err)
	}

	if cfg.ParsedMinRetryPause <= 0 {
		return ErrInvalidMinRetryPause
	}

	cfg.ParsedMaxRetryPause, err = time.ParseDuration(cfg.MaxRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse max retry pause: %w", err)
	}

	if cfg.ParsedMaxRetryPause <= 0 {
		return ErrInvalidMaxRetryPause
	}

	if cfg.ParsedMaxRetryPause < cfg.ParsedMinRetryPause {
		return ErrMaxRetryPauseTooLow
	}

	cfg.ParsedLockTimeout, err = time.ParseDuration(cfg.LockTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse lock timeout: %w", err)
	}

	if cfg.ParsedLockTimeout <= 0 {
		return ErrInvalidLockTimeout
	}

	return nil
}

// SaveConfig stores the default format in the configuration file while preserving
// the original format and order. The file is created when it does not exist.
func SaveConfig(configFilename string, cfg *Config) error {
	if configFilename == "" {
		configFilename = DefaultConfigFilename
	}

	// Read the original file content.
	originalContent, err := os.ReadFile(configFilename)
	if err != nil {
		return handleMissingConfigFile(configFilename, cfg.DefaultFormat, err)
	}

	// Parse YAML while preserving order using yaml.Node.
	var node yaml.Node
	if err = yaml.Unmarshal(originalContent, &node); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setValueInNode(&node, defaultFormatKey, cfg.DefaultFormat)

	// Marshal back to YAML (preserves order).
	newContent, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFilename, newContent, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// newViper creates a viper instance with every default registered.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetDefault("output_path", "")
	v.SetDefault(defaultFormatKey, "")
	v.SetDefault("archive_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("fast_mode", false)
	v.SetDefault("cookies_from_browser", "")
	v.SetDefault("import_existing", true)
	v.SetDefault("import_read_tags", false)
	v.SetDefault("generate_m3u", true)
	v.SetDefault("max_folder_name_length", defaultMaxFolderNameLength)
	v.SetDefault("retry_attempts_count", defaultRetryAttemptsCount)
	v.SetDefault("min_retry_pause", defaultMinRetryPause)
	v.SetDefault("max_retry_pause", defaultMaxRetryPause)
	v.SetDefault("lock_timeout", defaultLockTimeout)

	return v
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError

	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// handleMissingConfigFile creates a new config file if it doesn't exist.
func handleMissingConfigFile(configFile, defaultFormat string, err error) error {
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	node := yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
		}},
	}

	setValueInNode(&node, defaultFormatKey, defaultFormat)

	content, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFile, content, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// setValueInNode updates a top-level scalar in the YAML node tree, appending it when absent.
func setValueInNode(node *yaml.Node, key, value string) {
	// The root node is a document node, content[0] is the actual map.
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return
	}

	mapNode := node.Content[0]

	// Iterate through key-value pairs (stored as alternating nodes).
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value != key {
			continue
		}

		valueNode := mapNode.Content[i+1]
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = value

		// Ensure it's quoted if it contains special characters.
		if valueNode.Style == 0 {
			valueNode.Style = yaml.DoubleQuotedStyle
		}

		return
	}

	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.DoubleQuotedStyle},
	)
}
