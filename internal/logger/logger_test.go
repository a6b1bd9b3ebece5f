package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger(level, format)
	fn()
	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("download started") },
			contains: []string{"download started", "level=INFO"},
		},
		{
			name:     "debug log with debug level",
			level:    "debug",
			logFn:    func() { Debug("probe finished") },
			contains: []string{"probe finished", "level=DEBUG"},
		},
		{
			name:     "debug log with info level",
			level:    "info",
			logFn:    func() { Debug("probe finished") },
			excludes: []string{"probe finished"},
		},
		{
			name:     "warn log with fields",
			level:    "warn",
			logFn:    func() { Warn("duplicate id", Fields{"id": "dl-1", "replaced": true}) },
			contains: []string{"duplicate id", "level=WARN", "id=dl-1", "replaced=true"},
		},
		{
			name:     "info suppressed at error level",
			level:    "error",
			logFn:    func() { Info("chatty") },
			excludes: []string{"chatty"},
		},
		{
			name:     "success log",
			level:    "info",
			logFn:    func() { Success("download completed", Fields{"id": "dl-2"}) },
			contains: []string{"download completed", "status=success", "id=dl-2"},
		},
		{
			name:     "error log with fields",
			level:    "error",
			logFn:    func() { Error("download failed", Fields{"kind": "io", "bytes": 10}) },
			contains: []string{"download failed", "level=ERROR", "kind=io", "bytes=10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  slog.Level
		known bool
	}{
		{"debug", slog.LevelDebug, true},
		{"TRACE", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestGetLogger_InitializesIfNil(t *testing.T) {
	logger = nil
	assert.NotPanics(t, func() {
		lg := GetLogger()
		assert.NotNil(t, lg)
	})
}

func TestInitLogger_Format(t *testing.T) {
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger("debug", FormatText)
	Info("text message")
	assert.Contains(t, buf.String(), "msg=\"text message\"")

	buf.Reset()
	InitLogger("debug", FormatJSON)
	Info("json message", Fields{"percent": 42})
	assert.Contains(t, buf.String(), `"msg":"json message"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"percent":42`)

	buf.Reset()
	InitLogger("error", FormatJSON)
	Info("hidden")
	assert.Empty(t, buf.String())
}

func TestSetOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(nil)

	InitLogger("info", FormatText)
	Warn("to the writer")
	assert.Contains(t, buf.String(), "to the writer")
}

func TestMergeFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []Fields
		expect map[string]interface{}
	}{
		{
			name:   "single field",
			fields: []Fields{{"key1": "value1"}},
			expect: map[string]interface{}{"key1": "value1"},
		},
		{
			name:   "multiple fields",
			fields: []Fields{{"key1": "value1"}, {"key2": 123, "key3": true}},
			expect: map[string]interface{}{"key1": "value1", "key2": 123, "key3": true},
		},
		{
			name:   "later fields win",
			fields: []Fields{{"key1": "value1"}, {"key1": "new value", "key2": 123}},
			expect: map[string]interface{}{"key1": "new value", "key2": 123},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := mergeFields(tt.fields...)
			assert.Len(t, attrs, len(tt.expect)*2)
			result := make(map[string]interface{})
			for i := 0; i < len(attrs); i += 2 {
				result[attrs[i].(string)] = attrs[i+1]
			}
			assert.Equal(t, tt.expect, result)
		})
	}
}
