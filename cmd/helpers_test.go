package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"calsync/internal/environment"
	"calsync/internal/gateway"
	"calsync/internal/kvstore"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI runs a fresh command tree against the config directory dir.
func runCLI(t *testing.T, dir, stdin string, args ...string) cliResult {
	t.Helper()
	t.Setenv(environment.EnvVar, "")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-path", dir}, args...))

	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// storageOf opens the file store the CLI uses for dir.
func storageOf(t *testing.T, dir string) *kvstore.FileStore {
	t.Helper()
	store, err := kvstore.NewFileStore(filepath.Join(dir, "storage"))
	require.NoError(t, err)
	return store
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func testToken(t *testing.T) string {
	return signedToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"email": "student@example.edu",
		"iat":   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
		"exp":   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Unix(),
	})
}

// redirectTransport sends every request to target, whatever the
// environment's base URL.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// serveGateway routes the CLI's gateway to handler for the test.
func serveGateway(t *testing.T, handler http.Handler) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	prev := extraGatewayOptions
	extraGatewayOptions = []gateway.Option{gateway.WithTransport(redirectTransport{target: target})}
	t.Cleanup(func() { extraGatewayOptions = prev })
}

func fixedNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}
