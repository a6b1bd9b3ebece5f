// Package logger is the process-wide structured logger of fetchd, built on log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// OutputFormat selects the slog handler.
type OutputFormat string

// Supported output formats.
const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Fields is a type alias for log fields to make the API cleaner
type Fields map[string]interface{}

var (
	// testOutput is used to capture log output during tests
	testOutput   io.Writer
	testOutputMu sync.Mutex

	mu        sync.RWMutex
	initMu    sync.Mutex
	logger    *slog.Logger
	level     = new(slog.LevelVar)
	outFormat = FormatText
	writer    io.Writer
)

// SetTestOutput sets the output writer for testing purposes
func SetTestOutput(w io.Writer) {
	testOutputMu.Lock()
	defer testOutputMu.Unlock()
	testOutput = w
}

// UnsetTestOutput resets the test output to nil
func UnsetTestOutput() {
	testOutputMu.Lock()
	defer testOutputMu.Unlock()
	testOutput = nil
}

// SetOutput directs log output to w. serve uses it to keep stdout free for events.
func SetOutput(w io.Writer) {
	mu.Lock()
	writer = w
	mu.Unlock()
	rebuild()
}

func getOutput() io.Writer {
	testOutputMu.Lock()
	defer testOutputMu.Unlock()
	if testOutput != nil {
		return testOutput
	}
	mu.RLock()
	defer mu.RUnlock()
	if writer != nil {
		return writer
	}
	return os.Stderr
}

// ParseLevel maps debug, info, warn(ing) and error to slog levels.
// Unknown names fall back to info and report false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// InitLogger initializes the global logger.
func InitLogger(logLevel string, outputFormat OutputFormat) {
	lvl, _ := ParseLevel(logLevel)
	level.Set(lvl)

	mu.Lock()
	outFormat = outputFormat
	mu.Unlock()
	rebuild()
}

func rebuild() {
	out := getOutput()
	opts := &slog.HandlerOptions{Level: level}

	mu.Lock()
	defer mu.Unlock()
	var handler slog.Handler
	if outFormat == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	logger = slog.New(handler)
}

// GetLogger returns the configured logger instance.
func GetLogger() *slog.Logger {
	mu.RLock()
	lg := logger
	mu.RUnlock()
	if lg != nil {
		return lg
	}

	initMu.Lock()
	defer initMu.Unlock()
	mu.RLock()
	lg = logger
	mu.RUnlock()
	if lg == nil {
		InitLogger("info", FormatText)
		mu.RLock()
		lg = logger
		mu.RUnlock()
	}
	return lg
}

// Info logs an info message.
func Info(msg string, fields ...Fields) {
	GetLogger().Info(msg, mergeFields(fields...)...)
}

// Debug logs a debug message.
func Debug(msg string, fields ...Fields) {
	GetLogger().Debug(msg, mergeFields(fields...)...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...Fields) {
	GetLogger().Warn(msg, mergeFields(fields...)...)
}

// Error logs an error message.
func Error(msg string, fields ...Fields) {
	GetLogger().Error(msg, mergeFields(fields...)...)
}

// Success logs an info message tagged status=success.
func Success(msg string, fields ...Fields) {
	attrs := mergeFields(fields...)
	attrs = append(attrs, "status", "success")
	GetLogger().Info(msg, attrs...)
}

// mergeFields flattens field maps into slog key/value pairs. Later maps win on
// duplicate keys.
func mergeFields(fields ...Fields) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	merged := make(Fields)
	order := make([]string, 0)
	for _, f := range fields {
		for k, v := range f {
			if _, seen := merged[k]; !seen {
				order = append(order, k)
			}
			merged[k] = v
		}
	}
	result := make([]interface{}, 0, len(order)*2)
	for _, k := range order {
		result = append(result, k, merged[k])
	}
	return result
}
