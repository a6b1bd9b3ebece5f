package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/glorpus-work/fetchd/internal/logger"
	"github.com/glorpus-work/fetchd/pkg/config"
	"github.com/joho/godotenv"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogFormat  *string
)

// LogEnvVar overrides the configured log level.
const LogEnvVar = "FETCHD_LOG"

// Setup loads .env from the working directory and configures logging from the
// config file, the global flags and FETCHD_LOG, in increasing priority.
func Setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env file", logger.Fields{"error": err})
	}

	// A broken file must not lock out the config commands that repair it; commands
	// that depend on the settings load it again and report the error themselves.
	cfg, err := loadConfig()
	if err != nil {
		logger.Warn("Failed to load config, using defaults for logging", logger.Fields{"error": err})
		cfg = config.DefaultConfig()
	}

	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	if env := os.Getenv(LogEnvVar); env != "" {
		if _, ok := logger.ParseLevel(env); ok {
			level = env
		} else {
			logger.Warn("Ignoring invalid log level from environment", logger.Fields{"var": LogEnvVar, "value": env})
		}
	}

	format := logger.OutputFormat(cfg.Settings.LogFormat)
	if LogFormat != nil && *LogFormat != "" {
		switch f := logger.OutputFormat(*LogFormat); f {
		case logger.FormatText, logger.FormatJSON:
			format = f
		default:
			return fmt.Errorf("invalid --log-format %q, must be text or json", *LogFormat)
		}
	}

	logger.InitLogger(level, format)
	return nil
}

// loadConfig loads the configuration from --config or the default location.
func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	if path == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// an empty path makes the later read or write fail with a descriptive error
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}
