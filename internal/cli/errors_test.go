package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/internal/environment"
	"calsync/internal/gateway"
	"calsync/internal/session"
)

func TestExplain(t *testing.T) {
	staging, err := environment.Get(environment.Staging)
	require.NoError(t, err)

	t.Run("missing credential", func(t *testing.T) {
		err := Explain(fmt.Errorf("load: %w", session.ErrNoCredential), staging)

		var authErr *AuthRequiredError
		require.ErrorAs(t, err, &authErr)
		assert.False(t, authErr.Rejected)
		assert.ErrorIs(t, err, session.ErrNoCredential)
		assert.Contains(t, err.Error(), "calsync auth login --env staging")
	})

	t.Run("rejected credential", func(t *testing.T) {
		err := Explain(&gateway.StatusError{StatusCode: http.StatusUnauthorized}, staging)

		var authErr *AuthRequiredError
		require.ErrorAs(t, err, &authErr)
		assert.True(t, authErr.Rejected)
	})

	t.Run("other status", func(t *testing.T) {
		in := &gateway.StatusError{StatusCode: http.StatusInternalServerError}
		assert.Same(t, in, Explain(in, staging))
	})

	t.Run("dns", func(t *testing.T) {
		err := Explain(fmt.Errorf("get: %w", &net.DNSError{Err: "no such host", Name: "staging-calendar.witcc.dev"}), staging)

		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, ConnectionErrorDNS, connErr.Type)
		assert.Contains(t, err.Error(), "Staging")
	})

	t.Run("unclassified", func(t *testing.T) {
		in := errors.New("something odd")
		assert.Equal(t, in, Explain(in, staging))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, Explain(nil, staging))
	})
}

func TestClassifyConnectionError(t *testing.T) {
	prod, err := environment.Get(environment.Prod)
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		want ConnectionErrorType
	}{
		{name: "tls", err: errors.New("tls: failed to verify certificate"), want: ConnectionErrorTLS},
		{name: "timeout", err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: ConnectionErrorTimeout},
		{name: "refused", err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), want: ConnectionErrorNetwork},
		{name: "unknown", err: errors.New("weird"), want: ConnectionErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyConnectionError(tt.err, prod)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Type)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, ClassifyConnectionError(nil, prod))
	assert.Nil(t, ClassifyConnectionError(&gateway.StatusError{StatusCode: 500}, prod))
}
