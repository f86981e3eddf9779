package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var errNoToken = errors.New("no token")

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, errNoToken }

func TestCheckFlag_Authenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/flag_enabled", r.URL.Path)
		assert.Equal(t, "beta", r.URL.Query().Get("flag_name"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"is_enabled": true}`))
	}))
	defer srv.Close()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-123", TokenType: "Bearer"})
	enabled, err := New().CheckFlag(context.Background(), srv.URL, "beta", ts)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestCheckFlag_Public(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flags/new-ui", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"is_enabled": false}`))
	}))
	defer srv.Close()

	enabled, err := New().CheckFlag(context.Background(), srv.URL+"/", "new-ui", nil)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestCheckFlag_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
				assert.Contains(t, se.Body, "boom")
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to parse response")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New().CheckFlag(context.Background(), srv.URL, "beta", nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDo_TokenSourceFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := New().Do(context.Background(), Request{BaseURL: srv.URL, Path: "/x", TokenSource: failingSource{}})
	require.ErrorIs(t, err, errNoToken)
	assert.Zero(t, hits.Load(), "no request may be sent without a token")
}

func TestDo_JSONBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "v", in["k"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := New().Do(context.Background(), Request{
		BaseURL: srv.URL,
		Path:    "/items",
		Method:  http.MethodPost,
		Headers: http.Header{"X-Test": {"yes"}},
		Body:    map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(WithTimeout(50*time.Millisecond)).Do(context.Background(), Request{BaseURL: srv.URL, Path: "/slow"})
	require.Error(t, err)
}

func TestDo_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := New(WithRateLimit(0.001, 1))
	_, err := c.Do(context.Background(), Request{BaseURL: srv.URL, Path: "/a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Do(ctx, Request{BaseURL: srv.URL, Path: "/b"})
	assert.ErrorContains(t, err, "rate limit")
}

func TestDo_MissingBaseURL(t *testing.T) {
	_, err := New().Do(context.Background(), Request{Path: "/x"})
	assert.ErrorContains(t, err, "missing base URL")
}

func TestTerms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/terms/current_and_next", r.URL.Path)
		_, _ = w.Write([]byte(`[{"uid":202410,"season":"Fall","year":2024},{"uid":202420,"season":"Spring","year":2025}]`))
	}))
	defer srv.Close()

	terms, err := New().Terms(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "Spring", terms[1].Season)
	assert.Equal(t, 2025, terms[1].Year)
}
