package flags

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"calsync/internal/environment"
	"calsync/internal/gateway"
	"calsync/internal/session"
)

// CheckFunc checks one flag.
type CheckFunc func(ctx context.Context, name Name) (bool, error)

// Checker prepares a load. Prepare runs once per load and resolves what the
// checks share; its error fails the whole load.
type Checker interface {
	Prepare(ctx context.Context) (CheckFunc, error)
}

// CheckerFunc adapts a CheckFunc that needs no preparation.
type CheckerFunc CheckFunc

func (f CheckerFunc) Prepare(context.Context) (CheckFunc, error) {
	return CheckFunc(f), nil
}

// GatewayChecker checks flags against the current environment's server.
type GatewayChecker struct {
	Gateway *gateway.Client
	Session *session.Manager
	// Environment selects the environment; empty means the current one.
	Environment environment.ID
	// Authenticated selects the per-user bearer endpoint instead of the
	// public per-flag one.
	Authenticated bool
}

func (g *GatewayChecker) Prepare(ctx context.Context) (CheckFunc, error) {
	active, err := g.Session.Resolve(ctx, g.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	base := active.Environment.BaseURL
	if !g.Authenticated {
		return func(ctx context.Context, name Name) (bool, error) {
			return g.Gateway.CheckFlag(ctx, base, string(name), nil)
		}, nil
	}

	if !active.Authenticated() {
		missing := fmt.Errorf("%w: %s", session.ErrNoCredential, active.Environment.Name)
		return func(context.Context, Name) (bool, error) {
			return false, missing
		}, nil
	}

	// One token per load: the first check reads it, the rest reuse it.
	ts := oauth2.ReuseTokenSource(nil, g.Session.TokenSource(ctx, active.Environment.Name))
	return func(ctx context.Context, name Name) (bool, error) {
		return g.Gateway.CheckFlag(ctx, base, string(name), ts)
	}, nil
}
