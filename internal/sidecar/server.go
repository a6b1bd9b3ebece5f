package sidecar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/glorpus-work/fetchd/internal/logger"
	"github.com/glorpus-work/fetchd/pkg/download"
	"github.com/google/uuid"
)

// maxLineSize bounds one command line.
const maxLineSize = 1 << 20

//go:generate mockgen -destination=./mocks/sidecar.go . Engine

// Engine is the part of download.Engine the server drives.
type Engine interface {
	Start(ctx context.Context, req download.Request, obs download.Observer) <-chan download.Result
	Cancel(id string) bool
	Wait()
}

// Server reads commands and writes events. Events of different downloads interleave
// but every line is written whole.
type Server struct {
	engine Engine

	mu  sync.Mutex
	enc *json.Encoder

	// NewID names start commands that carry no id.
	NewID func() string
}

// NewServer creates a server writing events to w.
func NewServer(engine Engine, w io.Writer) *Server {
	return &Server{
		engine: engine,
		enc:    json.NewEncoder(w),
		NewID:  uuid.NewString,
	}
}

// Serve handles commands from r until r is exhausted or ctx is done, then waits for
// every started download to finish. Cancelling ctx cancels the running downloads.
func (s *Server) Serve(ctx context.Context, r io.Reader) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				err = <-readErr
				break loop
			}
			s.handle(ctx, line)
		}
	}

	s.engine.Wait()
	if err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, line []byte) {
	if len(line) == 0 {
		return
	}

	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		s.emit(Event{Event: EventError, Error: fmt.Sprintf("invalid command: %v", err)})
		return
	}

	switch cmd.Op {
	case OpStart:
		s.start(ctx, cmd)
	case OpCancel:
		found := s.engine.Cancel(cmd.ID)
		s.emit(Event{Event: EventCancelAck, ID: cmd.ID, Found: &found})
	default:
		s.emit(Event{Event: EventError, ID: cmd.ID, Error: fmt.Sprintf("unknown op %q", cmd.Op)})
	}
}

func (s *Server) start(ctx context.Context, cmd Command) {
	id := cmd.ID
	if id == "" {
		id = s.NewID()
	}
	req := download.Request{
		ID:          id,
		URL:         cmd.URL,
		Destination: cmd.Destination,
		AuthToken:   cmd.AuthToken,
	}
	logger.Debug("start command received", logger.Fields{"id": id})
	s.engine.Start(ctx, req, s.observer())
}

func (s *Server) observer() download.Observer {
	return download.Hooks{
		State: func(id string, state download.State) {
			// terminal states are reported by the result event
			if state.Terminal() {
				return
			}
			s.emit(Event{Event: EventState, ID: id, State: state.String()})
		},
		Progress: func(p download.Progress) {
			s.emit(Event{Event: EventProgress, ID: p.ID, Progress: &p})
		},
		Detail: func(d download.Detail) {
			s.emit(Event{Event: EventDetail, ID: d.ID, Detail: &d})
		},
		Result: func(r download.Result) {
			s.emit(resultEvent(r))
		},
	}
}

func (s *Server) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(ev); err != nil {
		logger.Warn("failed to write event", logger.Fields{"event": ev.Event, "id": ev.ID, "error": err})
	}
}
