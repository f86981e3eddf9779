package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
		Long: `Show the effective configuration or write a config.yaml with the defaults.

Examples:
  calsync config show
  calsync config init --force`,
		Args: cobra.NoArgs,
		// Config commands must work while config.yaml is invalid, so they
		// skip the shared setup.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath == "" {
				return fmt.Errorf("no configuration directory: set --config-path")
			}
			return nil
		},
	}

	configCmd.AddCommand(newConfigShowCmd(opts), newConfigInitCmd(opts))
	return configCmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write config.yaml with the default settings",
		Long: `Write config.yaml with the default settings into the configuration
directory. An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FilePath(opts.configPath)
			_, err := os.Stat(path)
			switch {
			case err == nil && !force:
				return fmt.Errorf("%s already exists; use --force to overwrite it", path)
			case err != nil && !errors.Is(err, os.ErrNotExist):
				return fmt.Errorf("failed to check %s: %w", path, err)
			}

			if err := config.Save(opts.configPath, config.DefaultConfig()); err != nil {
				return err
			}
			if !opts.quiet {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Wrote "+path))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")
	return cmd
}
