// Package auth builds the authenticated header set used for every request of a download.
//
//go:generate mockgen -destination=./mocks/auth.go . Authenticator
package auth

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/glorpus-work/fetchd/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

const (
	// TokenHeader carries the download token.
	TokenHeader = "X-Auth-Token"
	// TokenQueryParam is the query parameter consulted when no explicit token is given.
	TokenQueryParam = "auth_token"
)

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(header http.Header) error
	Type() Type
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	// NoAuthType means requests are sent unauthenticated.
	NoAuthType Type = "none"
	// TokenAuthType sends the token in the X-Auth-Token header.
	TokenAuthType Type = "token"
)

// TokenAuth authenticates with an X-Auth-Token header.
type TokenAuth struct {
	Token string
}

// Apply sets the X-Auth-Token header after checking the token is a legal header value.
func (t TokenAuth) Apply(header http.Header) error {
	if !httpguts.ValidHeaderFieldValue(t.Token) {
		return errors.NewDownloadError(errors.KindInvalidToken, "header", fmt.Errorf("token contains characters not allowed in a header value"))
	}
	header.Set(TokenHeader, t.Token)
	return nil
}

// Type returns TokenAuthType.
func (t TokenAuth) Type() Type { return TokenAuthType }

// NoAuth leaves the header set untouched.
type NoAuth struct{}

// Apply does nothing.
func (NoAuth) Apply(http.Header) error { return nil }

// Type returns NoAuthType.
func (NoAuth) Type() Type { return NoAuthType }

// ParseURL parses rawURL and requires an absolute http or https URL.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.NewDownloadError(errors.KindInvalidURL, "parse", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewDownloadError(errors.KindInvalidURL, "parse", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, errors.NewDownloadError(errors.KindInvalidURL, "parse", fmt.Errorf("missing host"))
	}
	return u, nil
}

// Select picks the authenticator for a download. An explicit token wins over the
// auth_token query parameter of u; with neither, NoAuth is returned.
func Select(u *url.URL, token string) Authenticator {
	if token != "" {
		return TokenAuth{Token: token}
	}
	if q := u.Query().Get(TokenQueryParam); q != "" {
		return TokenAuth{Token: q}
	}
	return NoAuth{}
}

// Build parses rawURL and returns it with the header set shared by the HEAD and GET
// requests of one download. userAgent is omitted when empty.
func Build(rawURL, token, userAgent string) (*url.URL, http.Header, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, nil, err
	}

	header, err := Headers(Select(u, token), userAgent)
	if err != nil {
		return nil, nil, err
	}
	return u, header, nil
}

// Headers returns a fresh header set carrying userAgent, when not empty, and the
// credentials of a.
func Headers(a Authenticator, userAgent string) (http.Header, error) {
	header := make(http.Header)
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}
	if err := a.Apply(header); err != nil {
		return nil, err
	}
	return header, nil
}
