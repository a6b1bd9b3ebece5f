// Package sidecar implements the JSON-lines protocol spoken by `fetchd serve`.
//
// The controlling process writes one Command per line to the helper's stdin and reads
// one Event per line from its stdout.
package sidecar

import (
	"github.com/glorpus-work/fetchd/pkg/download"
	"github.com/glorpus-work/fetchd/pkg/errors"
)

// Command operations.
const (
	OpStart  = "start"
	OpCancel = "cancel"
)

// Event types.
const (
	EventState     = "state"
	EventProgress  = "progress"
	EventDetail    = "detail"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventCancelled = "cancelled"
	EventCancelAck = "cancel_ack"
	EventError     = "error"
)

// Command is one request line.
type Command struct {
	Op          string `json:"op"`
	ID          string `json:"id,omitempty"`
	URL         string `json:"url,omitempty"`
	Destination string `json:"destination,omitempty"`
	AuthToken   string `json:"auth_token,omitempty"`
}

// Event is one output line. Only the fields relevant to Event are set.
type Event struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`

	State    string             `json:"state,omitempty"`
	Progress *download.Progress `json:"progress,omitempty"`
	Detail   *download.Detail   `json:"detail,omitempty"`

	Path       string `json:"path,omitempty"`
	Downloaded int64  `json:"downloaded_bytes,omitempty"`
	Total      int64  `json:"total_bytes,omitempty"`

	Found *bool `json:"found,omitempty"`

	Kind  string `json:"kind,omitempty"`
	Code  int    `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

func resultEvent(r download.Result) Event {
	ev := Event{
		ID:         r.ID,
		Path:       r.Path,
		Downloaded: r.Downloaded,
		Total:      r.Total,
	}
	switch r.State {
	case download.StateCompleted:
		ev.Event = EventCompleted
	case download.StateCancelled:
		ev.Event = EventCancelled
	default:
		ev.Event = EventFailed
		ev.Kind = errors.KindOf(r.Err).String()
		ev.Code = errors.StatusCode(r.Err)
		if r.Err != nil {
			ev.Error = r.Err.Error()
		}
	}
	return ev
}
