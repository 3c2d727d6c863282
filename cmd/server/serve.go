package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/server"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/server/storage/backend"
)

// попыток подключения к postgres при старте
const startupRetries = 5

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. Migrations are applied on startup and
expired reset tokens are swept every --cleanup.interval.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", slog.Any("error", err))
		}
	}()

	srv, err := server.New(server.Options{Config: cfg, Logger: logger, Store: store})
	if err != nil {
		return oops.Code("SERVER_INIT_FAILED").Wrap(err)
	}

	logger.Info("AuthKeeper server starting",
		slog.String("version", Version),
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("driver", cfg.DB.Driver))

	return srv.Run(ctx)
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	store, err := backend.Open(ctx, backend.Options{
		Logger:     logger,
		Driver:     cfg.DB.Driver,
		DSN:        cfg.DB.DSN,
		MaxRetries: startupRetries,
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.DB.Driver).Wrap(err)
	}
	return store, nil
}
