//go:generate mockgen -destination=./mocks/download.go . Observer,Recorder

package download

import (
	"net/http"
	"time"

	"github.com/glorpus-work/fetchd/pkg/fsutil"
)

// Request describes one download. It is never modified by the engine.
type Request struct {
	// ID is chosen by the caller and must be unique among active downloads.
	ID string
	// URL is an absolute http or https URL.
	URL string
	// Destination is an absolute path, or a path relative to the downloads directory.
	Destination string
	// AuthToken is sent as X-Auth-Token. Empty means "use the auth_token query parameter, if any".
	AuthToken string
}

// State is a step of the per-download state machine.
type State int

// Download states. Completed, Failed and Cancelled are terminal.
const (
	StatePending State = iota
	StateProbing
	StateTransferring
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = [...]string{"pending", "probing", "transferring", "completed", "failed", "cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s ends a download.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// Progress is the coarse, percentage-only sample.
type Progress struct {
	ID      string `json:"id"`
	Percent int    `json:"percent"`
}

// Detail is the detailed sample emitted on a wall-clock cadence.
type Detail struct {
	ID             string   `json:"id"`
	Percent        int      `json:"percent"`
	Downloaded     int64    `json:"downloaded_bytes"`
	Total          int64    `json:"total_bytes"`
	BytesPerSecond float64  `json:"bytes_per_second"`
	ETA            *float64 `json:"eta_seconds,omitempty"`
}

// Result is the single terminal outcome of a download.
type Result struct {
	ID         string
	Path       string
	State      State
	Downloaded int64
	Total      int64
	// Err is nil for StateCompleted; for StateCancelled it matches errors.ErrCancelled.
	Err error
}

// Observer receives the events of a download. Calls for one download come from the
// goroutine running it, in order; calls for different downloads may interleave.
type Observer interface {
	OnState(id string, state State)
	OnProgress(p Progress)
	OnDetail(d Detail)
	OnResult(r Result)
}

// Recorder is the metrics sink of the engine.
type Recorder interface {
	DownloadStarted()
	DownloadFinished(outcome string, bytes int64, elapsed time.Duration)
}

// Hooks adapts plain callbacks to Observer. Nil fields are skipped.
type Hooks struct {
	State    func(id string, state State)
	Progress func(Progress)
	Detail   func(Detail)
	Result   func(Result)
}

// OnState implements Observer.
func (h Hooks) OnState(id string, state State) {
	if h.State != nil {
		h.State(id, state)
	}
}

// OnProgress implements Observer.
func (h Hooks) OnProgress(p Progress) {
	if h.Progress != nil {
		h.Progress(p)
	}
}

// OnDetail implements Observer.
func (h Hooks) OnDetail(d Detail) {
	if h.Detail != nil {
		h.Detail(d)
	}
}

// OnResult implements Observer.
func (h Hooks) OnResult(r Result) {
	if h.Result != nil {
		h.Result(r)
	}
}

// Clock returns the current time. Tests substitute a fake one.
type Clock func() time.Time

// Default engine settings.
const (
	DefaultChunkSize        = 32 * 1024
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultUserAgent        = "fetchd/1.0"
)

// Options configure an Engine.
type Options struct {
	// Client performs the HEAD and GET requests. Nil means a client without timeout.
	Client *http.Client
	// ChunkSize bounds a single read from the response body.
	ChunkSize int
	// RateLimit caps throughput in bytes per second; 0 disables the cap.
	RateLimit int64
	// ProgressInterval is the minimum wall time between detailed samples.
	ProgressInterval time.Duration
	// UserAgent is sent with every request.
	UserAgent string
	// DownloadsDir resolves relative destinations. Nil means fsutil.GetDownloadsDir.
	DownloadsDir fsutil.DirLookup
	// Metrics, when set, records every download.
	Metrics Recorder
	// Clock drives telemetry. Nil means time.Now.
	Clock Clock
}

func (o *Options) applyDefaults() {
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.DownloadsDir == nil {
		o.DownloadsDir = fsutil.GetDownloadsDir
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}
