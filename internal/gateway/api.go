package gateway

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"calsync/internal/schedule"
)

type flagResponse struct {
	IsEnabled bool `json:"is_enabled"`
}

// CheckFlag asks the server whether flag name is enabled. With a token
// source the per-user endpoint is used; without one the public per-flag
// endpoint is used.
func (c *Client) CheckFlag(ctx context.Context, baseURL, name string, ts oauth2.TokenSource) (bool, error) {
	req := Request{BaseURL: baseURL}
	if ts != nil {
		req.Path = "/user/flag_enabled"
		req.Query = url.Values{"flag_name": {name}}
		req.TokenSource = ts
	} else {
		req.Path = "/flags/" + url.PathEscape(name)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("check flag %s: %w", name, err)
	}

	var out flagResponse
	if err := resp.Decode(&out); err != nil {
		return false, fmt.Errorf("check flag %s: %w", name, err)
	}
	return out.IsEnabled, nil
}

// Terms returns the current and next academic terms.
func (c *Client) Terms(ctx context.Context, baseURL string) ([]schedule.Term, error) {
	resp, err := c.Do(ctx, Request{BaseURL: baseURL, Path: "/api/terms/current_and_next"})
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}

	var terms []schedule.Term
	if err := resp.Decode(&terms); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}
