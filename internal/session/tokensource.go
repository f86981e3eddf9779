package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"calsync/internal/environment"
)

// tokenSource resolves the stored credential on every call, so a token set
// or cleared after the source was created is picked up.
type tokenSource struct {
	ctx     context.Context
	manager *Manager
	env     environment.ID
}

// TokenSource adapts the manager to oauth2.TokenSource for env (the current
// environment when empty). Token returns ErrNoCredential when nothing is
// stored. ctx bounds the store reads.
func (m *Manager) TokenSource(ctx context.Context, env environment.ID) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: m, env: env}
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	active, err := s.manager.Resolve(s.ctx, s.env)
	if err != nil {
		return nil, err
	}
	if !active.Authenticated() {
		return nil, fmt.Errorf("%w: %s", ErrNoCredential, active.Environment.Name)
	}
	return &oauth2.Token{
		AccessToken: active.Token,
		TokenType:   "Bearer",
	}, nil
}
