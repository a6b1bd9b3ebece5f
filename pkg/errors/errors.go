// Package errors defines the error values shared across fetchd.
//
// Configuration problems are reported with plain sentinel errors. Download failures are
// reported as *DownloadError, a tagged error whose Kind says which stage failed. A
// DownloadError matches the sentinel of its kind with errors.Is and still unwraps to the
// underlying cause, so callers can test for ErrHTTPStatus and read the status code, or
// test for fs.ErrPermission on an IO failure.
package errors

import (
	"errors"
	"fmt"
)

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")
	ErrConfigVersion     = fmt.Errorf("unsupported config version")
	ErrConfigFileExists  = fmt.Errorf("config file already exists")
	ErrConfigFileChmod   = fmt.Errorf("failed to set config file permissions")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
	ErrConfigValue       = fmt.Errorf("invalid configuration value")

	// Settings validation errors.
	ErrChunkSizeInvalid        = fmt.Errorf("chunk_size must be positive")
	ErrRateLimitNegative       = fmt.Errorf("rate_limit cannot be negative")
	ErrHTTPTimeoutNegative     = fmt.Errorf("http_timeout cannot be negative")
	ErrProgressIntervalInvalid = fmt.Errorf("progress_interval must be positive")
	ErrInvalidLogLevel         = fmt.Errorf("invalid log level")
	ErrInvalidLogFormat        = fmt.Errorf("invalid log format")

	// Download errors, one per Kind.
	ErrInvalidURL   = fmt.Errorf("invalid url")
	ErrInvalidToken = fmt.Errorf("invalid auth token")
	ErrEnvironment  = fmt.Errorf("environment error")
	ErrIO           = fmt.Errorf("io error")
	ErrTransfer     = fmt.Errorf("transfer failed")
	ErrHTTPStatus   = fmt.Errorf("unexpected http status")
	ErrCancelled    = fmt.Errorf("download cancelled")
)

// Kind classifies a download failure.
type Kind int

// Download failure kinds.
const (
	KindInvalidURL Kind = iota + 1
	KindInvalidToken
	KindEnvironment
	KindIO
	KindTransfer
	KindHTTPStatus
	KindCancelled
)

var kindNames = map[Kind]string{
	KindInvalidURL:   "invalid_url",
	KindInvalidToken: "invalid_token",
	KindEnvironment:  "environment",
	KindIO:           "io",
	KindTransfer:     "transfer",
	KindHTTPStatus:   "http_status",
	KindCancelled:    "cancelled",
}

var kindSentinels = map[Kind]error{
	KindInvalidURL:   ErrInvalidURL,
	KindInvalidToken: ErrInvalidToken,
	KindEnvironment:  ErrEnvironment,
	KindIO:           ErrIO,
	KindTransfer:     ErrTransfer,
	KindHTTPStatus:   ErrHTTPStatus,
	KindCancelled:    ErrCancelled,
}

// String returns the snake_case name used in logs and sidecar events.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// DownloadError is the terminal error of a single download.
type DownloadError struct {
	Kind Kind
	// Op names the step that failed, e.g. "mkdir", "head", "write".
	Op string
	// Code is the HTTP status code for KindHTTPStatus, otherwise 0.
	Code int
	Err  error
}

func (e *DownloadError) Error() string {
	msg := kindSentinels[e.Kind]
	if msg == nil {
		msg = fmt.Errorf("download error")
	}
	s := msg.Error()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Kind == KindHTTPStatus {
		s = fmt.Sprintf("%s %d", s, e.Code)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *DownloadError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *DownloadError) Is(target error) bool {
	return target != nil && kindSentinels[e.Kind] == target
}

// NewDownloadError builds a DownloadError of the given kind.
func NewDownloadError(kind Kind, op string, err error) *DownloadError {
	return &DownloadError{Kind: kind, Op: op, Err: err}
}

// NewHTTPStatusError builds a KindHTTPStatus error for code.
func NewHTTPStatusError(op string, code int) *DownloadError {
	return &DownloadError{Kind: KindHTTPStatus, Op: op, Code: code}
}

// KindOf returns the Kind of the first DownloadError in err's chain, or 0.
func KindOf(err error) Kind {
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var de *DownloadError
	if errors.As(err, &de) && de.Kind == KindHTTPStatus {
		return de.Code
	}
	return 0
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails wraps ErrInvalidLogLevel with the offending level.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrInvalidLogFormatWithDetails wraps ErrInvalidLogFormat with the offending format.
func ErrInvalidLogFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidLogFormat, format)
}
