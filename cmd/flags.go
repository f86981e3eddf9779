package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/environment"
	"calsync/internal/flags"
)

type flagView struct {
	Name    flags.Name `json:"name"`
	Enabled bool       `json:"enabled"`
}

func newFlagsCmd(a *app) *cobra.Command {
	flagsCmd := &cobra.Command{
		Use:   "flags",
		Short: "Inspect feature flags",
		Long: `Show the feature flags the server reports for the selected environment.

Flags that cannot be checked read as disabled.`,
	}
	flagsCmd.AddCommand(newFlagsListCmd(a), newFlagsCheckCmd(a))
	return flagsCmd
}

func newFlagsListCmd(a *app) *cobra.Command {
	var output string
	var noHeaders, reload bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every known flag",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.prepareFlags(cmd)
			if err != nil {
				return err
			}

			err = cli.WithSpinner(cmd.ErrOrStderr(), a.quiet, "Checking flags", func() error {
				var loadErr error
				if reload {
					_, loadErr = a.flagService.Reload(cmd.Context())
				} else {
					_, loadErr = a.flagService.Load(cmd.Context(), false)
				}
				return loadErr
			})
			if err != nil {
				return cli.Explain(err, env)
			}
			return printFlags(a, cmd, output, noHeaders, a.flagService.AllFlags(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&reload, "reload", false, "Ignore any cached values")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, template=...)")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers")
	return cmd
}

func newFlagsCheckCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "check <name>...",
		Short: "Check specific flags",
		Long: `Check one or more flags by name. Names outside the known catalogue read as
disabled.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.prepareFlags(cmd)
			if err != nil {
				return err
			}

			names := lo.Map(args, func(n string, _ int) flags.Name { return flags.Name(n) })
			var state flags.State
			err = cli.WithSpinner(cmd.ErrOrStderr(), a.quiet, "Checking flags", func() error {
				state = a.flagService.CheckMultiple(cmd.Context(), names...)
				return a.flagService.Err().Get()
			})
			if err != nil {
				return cli.Explain(err, env)
			}

			for _, n := range names {
				if !lo.Contains(a.flagService.Catalogue(), n) {
					a.warn(cmd, fmt.Sprintf("%s is not a known flag", n))
				}
			}
			return printFlags(a, cmd, output, false, state)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, template=...)")
	return cmd
}

// prepareFlags resolves the environment and warns when authenticated checks
// will all read as disabled for lack of a token.
func (a *app) prepareFlags(cmd *cobra.Command) (environment.Config, error) {
	ctx := cmd.Context()
	env, err := a.environment(ctx)
	if err != nil {
		return environment.Config{}, err
	}
	if !a.cfg.Flags.Authenticated {
		return env, nil
	}
	active, err := a.sessions.Resolve(ctx, env.Name)
	if err != nil {
		return env, fmt.Errorf("failed to read session: %w", err)
	}
	if !active.Authenticated() {
		a.warn(cmd, fmt.Sprintf("Not signed in to %s; every flag reads as disabled", env.DisplayName))
	}
	return env, nil
}

func printFlags(a *app, cmd *cobra.Command, output string, noHeaders bool, state flags.State) error {
	views := lo.MapToSlice(state, func(n flags.Name, enabled bool) flagView {
		return flagView{Name: n, Enabled: enabled}
	})
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })

	p, err := a.printer(cmd, output, noHeaders)
	if err != nil {
		return err
	}
	return p.Print(views, func(t table.Writer) {
		t.AppendHeader(table.Row{"Flag", "State"})
		for _, v := range views {
			t.AppendRow(table.Row{v.Name, cli.FormatEnabled(v.Enabled)})
		}
	})
}
