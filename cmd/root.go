package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/session"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates no credential is stored for the environment.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the server rejected the stored credential.
	ExitCodeAuthFailed = 3
)

var version = "dev"

// SetVersion sets the version reported by the CLI. It is called from main
// with the value injected at build time.
func SetVersion(v string) {
	version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// rootOptions holds the global flag values.
type rootOptions struct {
	configPath string
	envName    string
	debug      bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "calsync",
		Short: "Manage calsync sessions, feature flags and schedule data",
		Long: `calsync keeps the session state of the calendar sync client: which
server environment is active, the sign-in token for each environment, the
server's feature flags, and the schedule data cached on this machine.`,
		Version: version,
		// SilenceUsage prevents Cobra from printing the usage message on errors
		// that are handled by the application.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, opts)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "calsync version %s\n" .Version}}`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config-path", defaultConfigPath(), "Configuration directory")
	pf.StringVar(&opts.envName, "env", "", "Environment for this command only (env: CALSYNC_ENVIRONMENT)")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(
		newEnvCmd(a),
		newAuthCmd(a),
		newFlagsCmd(a),
		newDataCmd(a),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute is the main entry point for the CLI application. It is called by
// main.main().
func Execute() {
	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var authErr *cli.AuthRequiredError
	if errors.As(err, &authErr) && authErr.Rejected {
		return ExitCodeAuthFailed
	}
	if errors.Is(err, session.ErrNoCredential) {
		return ExitCodeAuthRequired
	}
	return ExitCodeError
}
