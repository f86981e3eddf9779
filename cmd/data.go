package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/schedule"
	textutil "calsync/pkg/strings"
)

func newDataCmd(a *app) *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect locally stored schedule data",
		Long: `Inspect and edit the schedule data kept in local storage: the processed
course data per term, the user settings and the calendar (ICS) URL.`,
	}
	dataCmd.AddCommand(
		newDataShowCmd(a),
		newDataSetICSCmd(a),
		newDataClearCmd(a),
		newDataTermsCmd(a),
	)
	return dataCmd
}

type courseView struct {
	Term      string `json:"term"`
	Title     string `json:"title"`
	Number    int    `json:"number"`
	Type      string `json:"type"`
	Professor string `json:"professor"`
	Days      string `json:"days"`
	Time      string `json:"time"`
}

func newDataShowCmd(a *app) *cobra.Command {
	var output string
	var noHeaders bool

	cmd := &cobra.Command{
		Use:       "show [processed|settings|ics]",
		Short:     "Show stored data",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"processed", "settings", "ics"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "processed"
			if len(args) == 1 {
				what = args[0]
			}
			stores := a.appStores(cmd.Context())

			p, err := a.printer(cmd, output, noHeaders)
			if err != nil {
				return err
			}

			switch what {
			case "settings":
				settings, ok := stores.UserSettings.Get()
				if !ok {
					a.say(cmd, "No settings stored.")
					return nil
				}
				return p.Print(settings, func(t table.Writer) {
					t.AppendHeader(table.Row{"Setting", "Value"})
					for k, v := range settings {
						t.AppendRow(table.Row{k, textutil.CellValue(v, textutil.DefaultCellWidth)})
					}
					t.SortBy([]table.SortBy{{Name: "Setting", Mode: table.Asc}})
				})
			case "ics":
				icsURL, ok := stores.ICSURL.Get()
				if !ok {
					a.say(cmd, "No calendar URL stored.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), icsURL)
				return nil
			default:
				terms, _ := stores.ProcessedData.Get()
				views := courseViews(terms)
				return p.Print(terms, func(t table.Writer) {
					t.AppendHeader(table.Row{"Term", "Course", "Title", "Type", "Professor", "Days", "Time"})
					for _, v := range views {
						t.AppendRow(table.Row{v.Term, v.Number, v.Title, v.Type, v.Professor, v.Days, v.Time})
					}
				})
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, template=...)")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers")
	return cmd
}

func courseViews(terms []schedule.TermData) []courseView {
	var views []courseView
	for _, td := range terms {
		for _, c := range td.ResponseData.Classes {
			v := courseView{
				Term:      td.TermID,
				Title:     textutil.Cell(c.Title, textutil.DefaultCellWidth),
				Number:    c.CourseNumber,
				Type:      c.ScheduleType,
				Professor: c.Professor.FullName(),
			}
			if len(c.MeetingTimes) > 0 {
				mt := c.MeetingTimes[0]
				v.Days = strings.Join(mt.Days(), " ")
				if mt.BeginTime != "" {
					v.Time = mt.BeginTime + "-" + mt.EndTime
				}
			}
			views = append(views, v)
		}
	}
	return views
}

func newDataSetICSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-ics <url>",
		Short: "Store the calendar (ICS) URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil || u.Host == "" {
				return fmt.Errorf("invalid calendar URL %q", args[0])
			}
			switch u.Scheme {
			case "http", "https", "webcal":
			default:
				return fmt.Errorf("invalid calendar URL %q: unsupported scheme %q", args[0], u.Scheme)
			}

			stores := a.appStores(cmd.Context())
			stores.ICSURL.Set(u.String())
			if err := stores.ICSURL.LastWriteError(); err != nil {
				return fmt.Errorf("failed to store calendar URL: %w", err)
			}
			a.say(cmd, "%s", cli.FormatSuccess("Calendar URL stored"))
			return nil
		},
	}
}

func newDataClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all stored schedule data",
		Long:  `Remove the stored schedule data. Sign-in tokens are kept; use "auth logout" for those.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.appStores(cmd.Context()).Clear(cmd.Context()); err != nil {
				return err
			}
			a.say(cmd, "%s", cli.FormatSuccess("Schedule data removed"))
			return nil
		},
	}
}

func newDataTermsCmd(a *app) *cobra.Command {
	var output string
	var noHeaders bool

	cmd := &cobra.Command{
		Use:   "terms",
		Short: "List the current and next terms from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.environment(cmd.Context())
			if err != nil {
				return err
			}

			var terms []schedule.Term
			err = cli.WithSpinner(cmd.ErrOrStderr(), a.quiet, "Fetching terms", func() error {
				var fetchErr error
				terms, fetchErr = a.gateway.Terms(cmd.Context(), env.BaseURL)
				return fetchErr
			})
			if err != nil {
				return cli.Explain(err, env)
			}

			stores := a.appStores(cmd.Context())
			p, err := a.printer(cmd, output, noHeaders)
			if err != nil {
				return err
			}
			return p.Print(terms, func(t table.Writer) {
				t.AppendHeader(table.Row{"ID", "Season", "Year", "Stored"})
				for _, term := range terms {
					_, stored := stores.Term(strconv.Itoa(term.UID))
					t.AppendRow(table.Row{term.UID, term.Season, term.Year, yesNo(stored)})
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, template=...)")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers")
	return cmd
}
