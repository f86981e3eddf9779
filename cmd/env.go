package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/environment"
)

type envView struct {
	Name          environment.ID `json:"name"`
	DisplayName   string         `json:"displayName"`
	BaseURL       string         `json:"baseUrl"`
	Current       bool           `json:"current"`
	Authenticated bool           `json:"authenticated"`
}

func newEnvCmd(a *app) *cobra.Command {
	var output string
	var noHeaders bool

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Manage server environments",
		Long: `List and switch between the calendar server environments.

Each environment keeps its own sign-in token. Switching does not sign you
out of the previous one.

Examples:
  calsync env                  # List environments
  calsync env use staging      # Make staging the current environment
  calsync env show prod -o json`,
		Args: cobra.NoArgs,
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List environments",
		Long: `List all environments. The current environment is marked with an
asterisk (*).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.envViews(cmd)
			if err != nil {
				return err
			}
			p, err := a.printer(cmd, output, noHeaders)
			if err != nil {
				return err
			}
			return p.Print(views, func(t table.Writer) {
				t.AppendHeader(table.Row{"Current", "Name", "Display Name", "Base URL", "Signed In"})
				for _, v := range views {
					t.AppendRow(table.Row{currentMarker(v.Current), v.Name, v.DisplayName, v.BaseURL, yesNo(v.Authenticated)})
				}
			})
		},
	}
	envCmd.RunE = listCmd.RunE

	currentCmd := &cobra.Command{
		Use:   "current",
		Short: "Print the current environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.environment(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Name)
			return nil
		},
	}

	useCmd := &cobra.Command{
		Use:       "use <name>",
		Aliases:   []string{"switch"},
		Short:     "Switch the current environment",
		Args:      cobra.ExactArgs(1),
		ValidArgs: environment.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := environment.Parse(args[0])
			if err != nil {
				return err
			}
			signedIn, err := a.sessions.SwitchEnvironment(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to switch environment: %w", err)
			}

			cfg, _ := environment.Get(id)
			a.say(cmd, "%s", cli.FormatSuccess(fmt.Sprintf("Switched to %s (%s)", cfg.DisplayName, id)))
			if !signedIn {
				a.say(cmd, "%s", cli.FormatWarning(fmt.Sprintf("Not signed in to %s. Run: calsync auth login", id)))
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:       "show [name]",
		Aliases:   []string{"describe"},
		Short:     "Show one environment",
		Long:      `Show an environment; without a name the current one is shown.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: environment.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target environment.ID
			if len(args) == 1 {
				id, err := environment.Parse(args[0])
				if err != nil {
					return err
				}
				target = id
			} else {
				cfg, err := a.environment(cmd.Context())
				if err != nil {
					return err
				}
				target = cfg.Name
			}

			views, err := a.envViews(cmd)
			if err != nil {
				return err
			}
			var view envView
			for _, v := range views {
				if v.Name == target {
					view = v
				}
			}

			p, err := a.printer(cmd, output, noHeaders)
			if err != nil {
				return err
			}
			return p.Print(view, func(t table.Writer) {
				t.AppendHeader(table.Row{"Field", "Value"})
				t.AppendRows([]table.Row{
					{"Name", view.Name},
					{"Display Name", view.DisplayName},
					{"Base URL", view.BaseURL},
					{"Current", yesNo(view.Current)},
					{"Signed In", yesNo(view.Authenticated)},
				})
			})
		},
	}

	for _, c := range []*cobra.Command{envCmd, listCmd, showCmd} {
		c.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, template=...)")
		c.Flags().BoolVar(&noHeaders, "no-headers", false, "Suppress header row in table output")
	}

	envCmd.AddCommand(listCmd, currentCmd, useCmd, showCmd)
	return envCmd
}

func (a *app) envViews(cmd *cobra.Command) ([]envView, error) {
	record, err := a.sessions.Record(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	current := record.CurrentEnvironment
	if a.env != "" {
		current = a.env
	}

	var views []envView
	for _, cfg := range environment.All() {
		views = append(views, envView{
			Name:          cfg.Name,
			DisplayName:   cfg.DisplayName,
			BaseURL:       cfg.BaseURL,
			Current:       cfg.Name == current,
			Authenticated: record.HasCredential(cfg.Name),
		})
	}
	return views, nil
}

func currentMarker(current bool) string {
	if current {
		return "*"
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

