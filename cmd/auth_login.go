package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/environment"
	"calsync/internal/kvstore"
	"calsync/internal/session"
	"calsync/pkg/logging"
)

// Replaced in tests.
var openBrowser = browser.OpenURL

const magicLinkPath = "/magic_link"

func newAuthLoginCmd(a *app) *cobra.Command {
	var noBrowser, wait bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an environment",
		Long: `Open the sign-in page of an environment in a browser.

By default the token shown after signing in is read from standard input.
With --wait the command instead waits until another client (such as the
browser extension sharing this storage) stores a new token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := a.environment(ctx)
			if err != nil {
				return err
			}
			loginURL := strings.TrimRight(env.BaseURL, "/") + magicLinkPath

			// Watch before opening the page so a fast sign-in is not missed.
			var changes <-chan kvstore.Change
			var cancel context.CancelFunc = func() {}
			if wait {
				watcher, ok := a.store.(kvstore.Watcher)
				if !ok {
					return fmt.Errorf("the %s storage backend cannot be watched; run login without --wait", a.cfg.Storage.Backend)
				}
				var watchCtx context.Context
				watchCtx, cancel = context.WithTimeout(ctx, timeout)
				changes, err = watcher.Watch(watchCtx, session.RecordKey)
				if err != nil {
					cancel()
					return fmt.Errorf("failed to watch storage: %w", err)
				}
			}
			defer cancel()

			previous, _, err := a.sessions.Credential(ctx, env.Name)
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}

			a.say(cmd, "Sign in to %s at:\n  %s", env.DisplayName, loginURL)
			if !noBrowser {
				browser.Stdout = cmd.ErrOrStderr()
				if err := openBrowser(loginURL); err != nil {
					logging.Warn("Auth", "Could not open a browser: %v", err)
				}
			}

			if !wait {
				a.say(cmd, "Paste the token shown after signing in:")
				token, err := readToken(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if token == "" {
					return session.ErrEmptyToken
				}
				return a.storeToken(cmd, token)
			}

			a.say(cmd, "Waiting for sign-in (timeout %s)...", timeout)
			token, err := a.waitForToken(ctx, changes, env.Name, previous)
			if err != nil {
				return err
			}
			a.say(cmd, "%s", cli.FormatSuccess(fmt.Sprintf("Signed in to %s", env.DisplayName)))
			if info, err := inspectToken(token, now()); err == nil {
				if subject := tokenSubject(&info); subject != "" {
					a.say(cmd, "  Account: %s", subject)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the sign-in URL without opening a browser")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for another client to store the token")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long --wait waits")
	return cmd
}

// waitForToken returns the credential of env once it differs from previous.
func (a *app) waitForToken(ctx context.Context, changes <-chan kvstore.Change, env environment.ID, previous string) (string, error) {
	for range changes {
		token, ok, err := a.sessions.Credential(ctx, env)
		if err != nil {
			logging.Debug("Auth", "Re-reading session failed: %v", err)
			continue
		}
		if ok && token != previous {
			return token, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", errors.New("timed out waiting for sign-in")
}
