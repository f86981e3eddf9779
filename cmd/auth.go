package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/environment"
	"calsync/pkg/logging"
)

type authStatusView struct {
	Environment   environment.ID `json:"environment"`
	Current       bool           `json:"current"`
	Authenticated bool           `json:"authenticated"`
	Token         *tokenInfo     `json:"token,omitempty"`
}

func newAuthCmd(a *app) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage sign-in tokens",
		Long: `Sign in to calendar server environments and manage the stored tokens.

Tokens are stored per environment; --env selects the environment, otherwise
the current one is used.

Examples:
  calsync auth status --all
  calsync auth login --env staging
  calsync auth set-token "$TOKEN"
  calsync auth logout --all`,
	}

	authCmd.AddCommand(
		newAuthStatusCmd(a),
		newAuthSetTokenCmd(a),
		newAuthLogoutCmd(a),
		newAuthLoginCmd(a),
		newAuthMigrateCmd(a),
	)
	return authCmd
}

func newAuthStatusCmd(a *app) *cobra.Command {
	var all bool
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sign-in status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			record, err := a.sessions.Record(ctx)
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}
			current, err := a.environment(ctx)
			if err != nil {
				return err
			}

			targets := []environment.Config{current}
			if all {
				targets = environment.All()
			}

			views := make([]authStatusView, 0, len(targets))
			for _, env := range targets {
				v := authStatusView{
					Environment:   env.Name,
					Current:       env.Name == current.Name,
					Authenticated: record.HasCredential(env.Name),
				}
				if v.Authenticated {
					if info, err := inspectToken(record.Credentials[env.Name], now()); err == nil {
						v.Token = &info
					} else {
						logging.Debug("Auth", "Stored token for %s is opaque: %v", env.Name, err)
					}
				}
				views = append(views, v)
			}

			p, err := a.printer(cmd, output, false)
			if err != nil {
				return err
			}
			return p.Print(views, func(t table.Writer) {
				t.AppendHeader(table.Row{"Environment", "Status", "Subject", "Expires"})
				for _, v := range views {
					name := string(v.Environment)
					if v.Current {
						name += " *"
					}
					t.AppendRow(table.Row{name, statusText(v), tokenSubject(v.Token), tokenExpiry(v.Token)})
				}
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Show every environment")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, template=...)")
	return cmd
}

func statusText(v authStatusView) string {
	switch {
	case !v.Authenticated:
		return text.FgYellow.Sprint("Not signed in")
	case v.Token != nil && v.Token.Expired:
		return text.FgRed.Sprint("Expired")
	default:
		return text.FgGreen.Sprint("Signed in")
	}
}

func tokenSubject(info *tokenInfo) string {
	if info == nil {
		return ""
	}
	if info.Email != "" {
		return info.Email
	}
	return info.Subject
}

func tokenExpiry(info *tokenInfo) string {
	if info == nil || info.ExpiresAt == nil {
		return ""
	}
	return info.ExpiresAt.Local().Format(time.RFC3339)
}

func newAuthSetTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-token <token|->",
		Short: "Store a token for an environment",
		Long: `Store a sign-in token. Use "-" to read the token from standard input.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if token == "-" {
				read, err := readToken(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = read
			}
			return a.storeToken(cmd, token)
		},
	}
}

func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) storeToken(cmd *cobra.Command, token string) error {
	ctx := cmd.Context()
	env, err := a.environment(ctx)
	if err != nil {
		return err
	}
	if err := a.sessions.SetCredential(ctx, token, env.Name); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	a.say(cmd, "%s", cli.FormatSuccess(fmt.Sprintf("Signed in to %s", env.DisplayName)))
	if info, err := inspectToken(token, now()); err != nil {
		a.warn(cmd, "The token is not a JWT; it was stored as is")
	} else if subject := tokenSubject(&info); subject != "" {
		a.say(cmd, "  Account: %s", subject)
	}
	return nil
}

func newAuthLogoutCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored tokens",
		Long: `Remove the token of one environment, or with --all remove every token
and reset the current environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all {
				if err := a.sessions.ClearAll(ctx); err != nil {
					return fmt.Errorf("failed to sign out: %w", err)
				}
				a.say(cmd, "%s", cli.FormatSuccess("Signed out of all environments"))
				return nil
			}

			env, err := a.environment(ctx)
			if err != nil {
				return err
			}
			if err := a.sessions.ClearCredential(ctx, env.Name); err != nil {
				return fmt.Errorf("failed to sign out: %w", err)
			}
			a.say(cmd, "%s", cli.FormatSuccess(fmt.Sprintf("Signed out of %s", env.DisplayName)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Sign out of every environment")
	return cmd
}

func newAuthMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Import a token stored by older clients",
		Long: `Older clients kept a single token under a global key. migrate moves it
to the development environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			migrated, err := a.sessions.MigrateLegacyToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to migrate token: %w", err)
			}
			if migrated {
				a.say(cmd, "%s", cli.FormatSuccess("Moved the legacy token to dev"))
			} else {
				a.say(cmd, "No legacy token found.")
			}
			return nil
		},
	}
}
