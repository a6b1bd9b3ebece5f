// Package testutil holds helpers shared by the package and integration tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// ServerOptions tweak the behaviour of a payload server.
type ServerOptions struct {
	// Token, when set, must arrive as X-Auth-Token or the server answers 403.
	Token string
	// NoLength streams the body without a Content-Length.
	NoLength bool
	// Release, when set, makes GET responses stop after StallAfter bytes until
	// Release is closed or the client goes away.
	Release    <-chan struct{}
	StallAfter int
	// HeadLength, when positive, is the Content-Length announced to HEAD requests
	// regardless of the payload.
	HeadLength int64
}

// NewPayloadServer starts a server answering HEAD and GET on every path with payload.
// It is closed when the test ends.
func NewPayloadServer(t *testing.T, payload string, opts ServerOptions) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.Token != "" && r.Header.Get("X-Auth-Token") != opts.Token {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if !opts.NoLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		}
		if r.Method == http.MethodHead {
			if opts.HeadLength > 0 {
				w.Header().Set("Content-Length", strconv.FormatInt(opts.HeadLength, 10))
			}
			return
		}
		if opts.NoLength {
			w.(http.Flusher).Flush()
		}

		body := []byte(payload)
		if opts.Release != nil && opts.StallAfter < len(body) {
			_, _ = w.Write(body[:opts.StallAfter])
			w.(http.Flusher).Flush()
			select {
			case <-opts.Release:
			case <-r.Context().Done():
				return
			}
			body = body[opts.StallAfter:]
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// WriteConfig writes content to a config.yaml in a fresh temporary directory and
// returns its path.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
