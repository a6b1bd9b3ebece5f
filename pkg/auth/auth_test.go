package auth_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/glorpus-work/fetchd/pkg/auth"
	"github.com/glorpus-work/fetchd/pkg/auth/mocks"
	"github.com/glorpus-work/fetchd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTokenAuth(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{
			name:  "valid token",
			token: "test-token-123",
		},
		{
			name:  "token with spaces and symbols",
			token: "abc def+/=",
		},
		{
			name:    "newline injection",
			token:   "abc\r\nX-Evil: 1",
			wantErr: true,
		},
		{
			name:    "control character",
			token:   "abc\x00",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := make(http.Header)
			tokenAuth := auth.TokenAuth{Token: tt.token}

			err := tokenAuth.Apply(header)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidToken)
				assert.Empty(t, header.Get(auth.TokenHeader))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, header.Get("X-Auth-Token"))
			assert.Equal(t, auth.TokenAuthType, tokenAuth.Type())
		})
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		token      string
		wantHeader string
		wantKind   errors.Kind
	}{
		{
			name:       "explicit token",
			url:        "https://files.example.com/a.bin",
			token:      "explicit",
			wantHeader: "explicit",
		},
		{
			name:       "explicit token wins over query",
			url:        "https://files.example.com/a.bin?auth_token=fromquery",
			token:      "explicit",
			wantHeader: "explicit",
		},
		{
			name:       "query token",
			url:        "https://files.example.com/a.bin?x=1&auth_token=fromquery",
			wantHeader: "fromquery",
		},
		{
			name: "unauthenticated",
			url:  "http://files.example.com/a.bin",
		},
		{
			name:     "malformed url",
			url:      "http://[::1",
			wantKind: errors.KindInvalidURL,
		},
		{
			name:     "unsupported scheme",
			url:      "ftp://files.example.com/a.bin",
			wantKind: errors.KindInvalidURL,
		},
		{
			name:     "relative url",
			url:      "/a.bin",
			wantKind: errors.KindInvalidURL,
		},
		{
			name:     "invalid query token",
			url:      "https://files.example.com/a.bin?auth_token=%0D%0Ax",
			wantKind: errors.KindInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, header, err := auth.Build(tt.url, tt.token, "fetchd/test")
			if tt.wantKind != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, errors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, u.String())
			assert.Equal(t, tt.wantHeader, header.Get(auth.TokenHeader))
			assert.Equal(t, "fetchd/test", header.Get("User-Agent"))
		})
	}
}

func TestSelect(t *testing.T) {
	u, err := auth.ParseURL("https://files.example.com/a.bin")
	require.NoError(t, err)
	assert.Equal(t, auth.NoAuthType, auth.Select(u, "").Type())
	assert.Equal(t, auth.TokenAuthType, auth.Select(u, "t").Type())
}

func TestHeaders(t *testing.T) {
	t.Run("authenticator sees the user agent header", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		a := mocks.NewMockAuthenticator(ctrl)
		a.EXPECT().Apply(gomock.Any()).DoAndReturn(func(h http.Header) error {
			assert.Equal(t, "fetchd/test", h.Get("User-Agent"))
			h.Set("X-Custom", "v")
			return nil
		})

		header, err := auth.Headers(a, "fetchd/test")
		require.NoError(t, err)
		assert.Equal(t, "v", header.Get("X-Custom"))
	})

	t.Run("empty user agent is omitted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		a := mocks.NewMockAuthenticator(ctrl)
		a.EXPECT().Apply(gomock.Any()).Return(nil)

		header, err := auth.Headers(a, "")
		require.NoError(t, err)
		assert.Empty(t, header)
	})

	t.Run("apply error is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		a := mocks.NewMockAuthenticator(ctrl)
		applyErr := errors.NewDownloadError(errors.KindInvalidToken, "header", fmt.Errorf("bad"))
		a.EXPECT().Apply(gomock.Any()).Return(applyErr)

		header, err := auth.Headers(a, "fetchd/test")
		require.Error(t, err)
		assert.Nil(t, header)
		assert.ErrorIs(t, err, errors.ErrInvalidToken)
	})
}
