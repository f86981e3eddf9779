package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"calsync/internal/cli"
	"calsync/internal/config"
	"calsync/internal/environment"
	"calsync/internal/flags"
	"calsync/internal/gateway"
	"calsync/internal/kvstore"
	"calsync/internal/persist"
	"calsync/internal/schedule"
	"calsync/internal/session"
	"calsync/pkg/logging"
)

// Replaced in tests.
var (
	extraGatewayOptions []gateway.Option
	now                 = time.Now
)

// app holds what commands share once global flags and config are resolved.
type app struct {
	cfg   config.Config
	quiet bool
	// env overrides the current environment for one command; empty means
	// the stored current environment.
	env environment.ID

	store    kvstore.Store
	sessions *session.Manager
	gateway  *gateway.Client

	flagService *flags.Service
	stores      *schedule.Stores
}

func defaultConfigPath() string {
	dir, err := config.DefaultConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

func (a *app) init(cmd *cobra.Command, opts *rootOptions) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if opts.configPath == "" {
		return fmt.Errorf("no configuration directory: set --config-path")
	}
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.quiet = opts.quiet

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	if opts.debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	envName := opts.envName
	if envName == "" {
		envName = os.Getenv(environment.EnvVar)
	}
	if envName != "" {
		id, err := environment.Parse(envName)
		if err != nil {
			return err
		}
		a.env = id
	}

	a.store, err = openStore(cfg.Storage)
	if err != nil {
		return err
	}
	a.sessions = session.NewManager(a.store)

	gwOpts := []gateway.Option{
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithRateLimit(cfg.Gateway.RateLimit, cfg.Gateway.Burst),
	}
	a.gateway = gateway.New(append(gwOpts, extraGatewayOptions...)...)

	flagOpts := []flags.Option{flags.WithConcurrency(cfg.Flags.Concurrency)}
	if len(cfg.Flags.Catalogue) > 0 {
		flagOpts = append(flagOpts, flags.WithCatalogue(lo.Map(cfg.Flags.Catalogue, func(n string, _ int) flags.Name {
			return flags.Name(n)
		})...))
	}
	a.flagService = flags.New(&flags.GatewayChecker{
		Gateway:       a.gateway,
		Session:       a.sessions,
		Environment:   a.env,
		Authenticated: cfg.Flags.Authenticated,
	}, flagOpts...)

	logging.Debug("CLI", "Using %s storage, environment override %q", cfg.Storage.Backend, a.env)
	return nil
}

func openStore(cfg config.StorageConfig) (kvstore.Store, error) {
	switch cfg.Backend {
	case config.BackendKeyring:
		return kvstore.NewKeyringStore(cfg.KeyringService), nil
	case config.BackendMemory:
		return kvstore.NewMemoryStore(), nil
	default:
		store, err := kvstore.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return store, nil
	}
}

// environment returns the environment commands act on.
func (a *app) environment(ctx context.Context) (environment.Config, error) {
	if a.env != "" {
		return environment.Get(a.env)
	}
	return a.sessions.CurrentConfig(ctx)
}

// appStores returns the hydrated schedule stores.
func (a *app) appStores(ctx context.Context) *schedule.Stores {
	if a.stores == nil {
		a.stores = schedule.NewStores(persist.NewKVPersister(a.store), logging.Default(),
			schedule.WithWriteTimeout(a.cfg.Storage.WriteTimeout))
		a.stores.Hydrate(ctx)
	}
	return a.stores
}

func (a *app) printer(cmd *cobra.Command, output string, noHeaders bool) (*cli.Printer, error) {
	out, err := cli.ParseOutput(output)
	if err != nil {
		return nil, err
	}
	return &cli.Printer{Out: cmd.OutOrStdout(), Output: out, NoHeaders: noHeaders}, nil
}

// say prints a status line unless --quiet is set.
func (a *app) say(cmd *cobra.Command, format string, args ...any) {
	if a.quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

// warn prints a warning on stderr unless --quiet is set, keeping stdout
// parseable.
func (a *app) warn(cmd *cobra.Command, msg string) {
	if a.quiet {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(msg))
}
