package download

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glorpus-work/fetchd/pkg/errors"
	"github.com/glorpus-work/fetchd/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestProbe_GetLengthWinsOverHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "1234")
			return
		}
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("short"))
	}))
	defer srv.Close()

	pr, err := probe(context.Background(), srv.Client(), mustParse(t, srv.URL), http.Header{})
	require.NoError(t, err)
	defer pr.resp.Body.Close()

	assert.Equal(t, int64(5), pr.total)
	body, err := io.ReadAll(pr.resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "short", string(body))
}

func TestProbe_HeadLengthUsedForChunkedGet(t *testing.T) {
	srv := testutil.NewPayloadServer(t, "streamed", testutil.ServerOptions{NoLength: true, HeadLength: 1234})

	pr, err := probe(context.Background(), srv.Client(), mustParse(t, srv.URL), http.Header{})
	require.NoError(t, err)
	defer pr.resp.Body.Close()

	assert.Equal(t, int64(-1), pr.resp.ContentLength)
	assert.Equal(t, int64(1234), pr.total)
}

func TestProbe_FallsBackToGetLengthWithSingleGet(t *testing.T) {
	payload := strings.Repeat("z", 500)
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			// chunked HEAD: no declared length
			w.WriteHeader(http.StatusOK)
			return
		}
		gets.Add(1)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	pr, err := probe(context.Background(), srv.Client(), mustParse(t, srv.URL), http.Header{})
	require.NoError(t, err)
	defer pr.resp.Body.Close()

	assert.Equal(t, int64(500), pr.total)
	body, err := io.ReadAll(pr.resp.Body)
	require.NoError(t, err)
	assert.Len(t, body, 500)
	assert.Equal(t, int32(1), gets.Load())
}

func TestProbe_HeadFailureOnlyLosesSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Length", "3")
		_, _ = w.Write([]byte("abc"))
	}))
	defer srv.Close()

	pr, err := probe(context.Background(), srv.Client(), mustParse(t, srv.URL), http.Header{})
	require.NoError(t, err)
	defer pr.resp.Body.Close()
	assert.Equal(t, int64(3), pr.total)
}

func TestProbe_UnknownSize(t *testing.T) {
	srv := testutil.NewPayloadServer(t, "streamed", testutil.ServerOptions{NoLength: true})

	pr, err := probe(context.Background(), srv.Client(), mustParse(t, srv.URL), http.Header{})
	require.NoError(t, err)
	defer pr.resp.Body.Close()
	assert.Zero(t, pr.total)
}

func TestProbe_GetStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	pr, err := probe(context.Background(), srv.Client(), mustParse(t, srv.URL), http.Header{})
	require.Error(t, err)
	assert.Nil(t, pr)
	assert.Equal(t, errors.KindHTTPStatus, errors.KindOf(err))
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
}

func TestProbe_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := probe(context.Background(), http.DefaultClient, mustParse(t, addr), http.Header{})
	require.Error(t, err)
	assert.Equal(t, errors.KindTransfer, errors.KindOf(err))
	assert.Contains(t, err.Error(), "head")
}

func TestProbe_SendsHeaders(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.Method+" "+r.Header.Get("X-Auth-Token"))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("X-Auth-Token", "secret")
	pr, err := probe(context.Background(), srv.Client(), mustParse(t, srv.URL), header)
	require.NoError(t, err)
	pr.resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"HEAD secret", "GET secret"}, seen)
}
