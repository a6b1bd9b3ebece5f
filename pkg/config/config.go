// Package config provides configuration management for fetchd.
// It handles loading, validating and saving the YAML settings file and turns the
// settings into download engine options. A missing file yields the defaults.
package config

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/fetchd/internal/logger"
	"github.com/glorpus-work/fetchd/pkg/download"
	"github.com/glorpus-work/fetchd/pkg/errors"
	"github.com/glorpus-work/fetchd/pkg/fsutil"
	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Version is the schema version of the file.
	Version string `yaml:"version"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// DownloadsDir is the base for relative destinations. Empty means the platform
	// downloads directory.
	DownloadsDir string `yaml:"downloads_dir"`

	// Transfer settings
	ChunkSize        int           `yaml:"chunk_size"`
	RateLimit        int64         `yaml:"rate_limit"` // bytes per second, 0 = unlimited
	ProgressInterval time.Duration `yaml:"progress_interval"`

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"` // 0 = no timeout
	UserAgent   string        `yaml:"user_agent"`

	// Output settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json

	// MetricsAddr is the listen address of the /metrics endpoint used by serve.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default configuration values.
const (
	// CurrentVersion is written by SaveConfig.
	CurrentVersion = "1"

	// SupportedVersions is the constraint a loaded file's version must satisfy.
	SupportedVersions = ">= 1, < 2"

	// DefaultLogLevel is the level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the log format used when none is configured.
	DefaultLogFormat = "text"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Settings: Settings{
			ChunkSize:        download.DefaultChunkSize,
			ProgressInterval: download.DefaultProgressInterval,
			UserAgent:        download.DefaultUserAgent,
			LogLevel:         DefaultLogLevel,
			LogFormat:        DefaultLogFormat,
		},
	}
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("config file not found, using defaults", logger.Fields{"path": absPath})
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigValidation, err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to path, replacing any existing file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeSecure); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := fsutil.CreateFilePerm(tempPath, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	if c.Version == "" {
		c.Version = CurrentVersion
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := writeYAML(encoder, file, c); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigFileChmod, err.Error())
	}

	return nil
}

// writeYAML encodes c and closes both the encoder and file. The file is closed on
// every path; the first error wins.
func writeYAML(encoder *yaml.Encoder, file io.Closer, c *Config) error {
	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		_ = file.Close()
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateVersion(c.Version); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateVersion(v string) error {
	parsed, err := version.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", errors.ErrConfigVersion, v, err)
	}
	constraint := version.MustConstraints(version.NewConstraint(SupportedVersions))
	if !constraint.Check(parsed) {
		return fmt.Errorf("%w: %s does not satisfy %q", errors.ErrConfigVersion, v, SupportedVersions)
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.ChunkSize <= 0 {
		return errors.ErrChunkSizeInvalid
	}
	if s.RateLimit < 0 {
		return errors.ErrRateLimitNegative
	}
	if s.ProgressInterval <= 0 {
		return errors.ErrProgressIntervalInvalid
	}
	if s.HTTPTimeout < 0 {
		return errors.ErrHTTPTimeoutNegative
	}
	if _, ok := logger.ParseLevel(s.LogLevel); !ok {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	switch logger.OutputFormat(s.LogFormat) {
	case logger.FormatText, logger.FormatJSON:
	default:
		return errors.ErrInvalidLogFormatWithDetails(s.LogFormat)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// EngineOptions turns the settings into download engine options. metrics may be nil.
func (c *Config) EngineOptions(metrics download.Recorder) download.Options {
	opts := download.Options{
		Client:           &http.Client{Timeout: c.Settings.HTTPTimeout},
		ChunkSize:        c.Settings.ChunkSize,
		RateLimit:        c.Settings.RateLimit,
		ProgressInterval: c.Settings.ProgressInterval,
		UserAgent:        c.Settings.UserAgent,
		Metrics:          metrics,
	}
	if dir := c.Settings.DownloadsDir; dir != "" {
		opts.DownloadsDir = func() (string, error) { return dir, nil }
	}
	return opts
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Settings.ChunkSize == 0 {
		c.Settings.ChunkSize = defaults.Settings.ChunkSize
	}
	if c.Settings.ProgressInterval == 0 {
		c.Settings.ProgressInterval = defaults.Settings.ProgressInterval
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
}
