package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iudanet/authkeeper/internal/config"
)

// NewRootCmd creates the root command of the server binary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authkeeper",
		Short: "AuthKeeper - username/password authentication service",
		Long: `AuthKeeper issues session tokens for registered accounts and runs
the self-service password reset flow.

Settings come from flags, AUTHKEEPER_* environment variables, .env and an
optional YAML file given with --config.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCleanupCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

// loadConfig читает конфигурацию и создает logger.
// full=false проверяет только настройки хранилища.
func loadConfig(cmd *cobra.Command, full bool) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	validate := cfg.ValidateDB
	if full {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger, err := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").With("operation", "create logger").Wrap(err)
	}

	return cfg, logger, nil
}
