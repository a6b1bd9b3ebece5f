package cli

// Default values for CLI flags and output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// DefaultFileName names a download whose URL has no usable last path segment.
	DefaultFileName = "download"
	// MetricsPath is where serve exposes Prometheus metrics.
	MetricsPath = "/metrics"
)
