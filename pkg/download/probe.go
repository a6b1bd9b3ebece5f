package download

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/glorpus-work/fetchd/internal/logger"
	"github.com/glorpus-work/fetchd/pkg/errors"
)

// probeResult carries the discovered size and the GET response whose body is
// the transfer stream. The caller owns resp.Body.
type probeResult struct {
	total int64
	resp  *http.Response
}

// probe discovers the total size with a HEAD request and opens the GET stream.
//
// The length declared by the GET response wins since it describes the stream that is
// actually read; the HEAD Content-Length fills in when GET declares none (0 when both
// are absent). The GET response is always the one the transfer reads, so no request is
// repeated. A failing HEAD status only loses the size; transport failures and a failing
// GET status abort.
func probe(ctx context.Context, client *http.Client, u *url.URL, header http.Header) (*probeResult, error) {
	headSize, err := headSize(ctx, client, u, header)
	if err != nil {
		return nil, err
	}

	resp, err := send(ctx, client, http.MethodGet, u, header)
	if err != nil {
		return nil, errors.NewDownloadError(errors.KindTransfer, "get", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, errors.NewHTTPStatusError("get", resp.StatusCode)
	}

	total := headSize
	if resp.ContentLength > 0 {
		if headSize > 0 && headSize != resp.ContentLength {
			logger.Warn("HEAD and GET disagree on the size, using GET", logger.Fields{
				"url":  u.Host + u.Path,
				"head": headSize,
				"get":  resp.ContentLength,
			})
		}
		total = resp.ContentLength
	}
	return &probeResult{total: total, resp: resp}, nil
}

func headSize(ctx context.Context, client *http.Client, u *url.URL, header http.Header) (int64, error) {
	resp, err := send(ctx, client, http.MethodHead, u, header)
	if err != nil {
		return 0, errors.NewDownloadError(errors.KindTransfer, "head", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("HEAD request failed, size will come from GET", logger.Fields{
			"url":    u.Host + u.Path,
			"status": resp.StatusCode,
		})
		return 0, nil
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	return 0, nil
}

func send(ctx context.Context, client *http.Client, method string, u *url.URL, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header = header.Clone()
	return client.Do(req)
}
