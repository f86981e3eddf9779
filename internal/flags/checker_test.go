package flags

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/internal/environment"
	"calsync/internal/gateway"
	"calsync/internal/kvstore"
	"calsync/internal/session"
	"calsync/pkg/logging"
)

// redirect sends every request to target, keeping path and query.
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.target.Scheme
	out.URL.Host = r.target.Host
	out.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func newFlagServer(t *testing.T, wantToken string) (*gateway.Client, *atomic.Int32) {
	t.Helper()
	hits := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var name string
		if wantToken != "" {
			assert.Equal(t, "Bearer "+wantToken, r.Header.Get("Authorization"))
			name = r.URL.Query().Get("flag_name")
		} else {
			name = r.URL.Path[len("/flags/"):]
		}
		if name == string(flagB) {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"is_enabled": true}`))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return gateway.New(gateway.WithTransport(redirect{target: u})), hits
}

func TestGatewayChecker_Authenticated(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(kvstore.NewMemoryStore())
	require.NoError(t, mgr.SetCredential(ctx, "tok-prod", ""))

	gw, _ := newFlagServer(t, "tok-prod")
	svc := New(&GatewayChecker{Gateway: gw, Session: mgr, Authenticated: true},
		WithCatalogue(flagA, flagB), WithSink(&logging.RecordingSink{}))

	assert.Equal(t, State{flagA: true, flagB: false}, svc.AllFlags(ctx))
}

func TestGatewayChecker_TokenReadOncePerLoad(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(kvstore.NewMemoryStore())
	require.NoError(t, mgr.SetCredential(ctx, "tok-1", environment.Prod))

	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"is_enabled": true}`))
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	svc := New(&GatewayChecker{
		Gateway:       gateway.New(gateway.WithTransport(redirect{target: u})),
		Session:       mgr,
		Environment:   environment.Prod,
		Authenticated: true,
	}, WithCatalogue(flagA, flagB), WithSink(&logging.RecordingSink{}))

	_, err = svc.Load(ctx, false)
	require.NoError(t, err)

	require.NoError(t, mgr.SetCredential(ctx, "tok-2", environment.Prod))
	_, err = svc.Reload(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-1", "Bearer tok-2", "Bearer tok-2"}, seen)
}

func TestGatewayChecker_Public(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(kvstore.NewMemoryStore())

	gw, hits := newFlagServer(t, "")
	svc := New(&GatewayChecker{Gateway: gw, Session: mgr},
		WithCatalogue(flagA, flagB), WithSink(&logging.RecordingSink{}))

	state, err := svc.Load(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, State{flagA: true, flagB: false}, state)
	assert.EqualValues(t, 2, hits.Load())
}

func TestGatewayChecker_MissingCredentialDefaultsClosed(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(kvstore.NewMemoryStore())
	_, err := mgr.SwitchEnvironment(ctx, environment.Staging)
	require.NoError(t, err)

	gw, hits := newFlagServer(t, "unused")
	sink := &logging.RecordingSink{}
	svc := New(&GatewayChecker{Gateway: gw, Session: mgr, Authenticated: true},
		WithCatalogue(flagA, flagB), WithSink(sink))

	state, err := svc.Load(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, State{flagA: false, flagB: false}, state)
	assert.Zero(t, hits.Load())

	warnings := sink.Warnings()
	require.Len(t, warnings, 2)
	assert.ErrorIs(t, warnings[0].Err, session.ErrNoCredential)
}

func TestGatewayChecker_StoreFailureFailsLoad(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	outage := assert.AnError
	kv.FailWith("get", outage)

	gw, _ := newFlagServer(t, "")
	svc := New(&GatewayChecker{Gateway: gw, Session: session.NewManager(kv)},
		WithCatalogue(flagA, flagB), WithSink(&logging.RecordingSink{}))

	_, err := svc.Load(context.Background(), false)
	require.ErrorIs(t, err, outage)
	assert.ErrorIs(t, svc.Err().Get(), outage)
}
