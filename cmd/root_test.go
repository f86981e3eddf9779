package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/internal/cli"
	"calsync/internal/environment"
	"calsync/internal/gateway"
	"calsync/internal/session"
)

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	assert.Equal(t, "calsync", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.True(t, root.SilenceUsage)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"env", "auth", "flags", "data", "config", "version"})
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3-test")
	t.Cleanup(func() { SetVersion("dev") })
	assert.Equal(t, "1.2.3-test", GetVersion())

	res := runCLI(t, t.TempDir(), "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "calsync version 1.2.3-test\n", res.stdout)

	res = runCLI(t, t.TempDir(), "", "--version")
	require.NoError(t, res.err)
	assert.Equal(t, "calsync version 1.2.3-test\n", res.stdout)
}

func TestInvalidEnvironmentOverride(t *testing.T) {
	res := runCLI(t, t.TempDir(), "", "--env", "qa", "env", "current")
	require.Error(t, res.err)

	var unknown *environment.UnknownEnvironmentError
	assert.ErrorAs(t, res.err, &unknown)
}

func TestEnvironmentVariableOverride(t *testing.T) {
	root := newRootCmd()
	t.Setenv(environment.EnvVar, "staging")

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config-path", t.TempDir(), "env", "current"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "staging\n", out.String())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "generic", err: errors.New("boom"), want: ExitCodeError},
		{name: "no credential", err: fmt.Errorf("load: %w", session.ErrNoCredential), want: ExitCodeAuthRequired},
		{name: "auth required", err: &cli.AuthRequiredError{Environment: environment.Prod}, want: ExitCodeAuthRequired},
		{name: "rejected", err: &cli.AuthRequiredError{Environment: environment.Prod, Rejected: true}, want: ExitCodeAuthFailed},
		{name: "server error", err: &gateway.StatusError{StatusCode: 500}, want: ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}
