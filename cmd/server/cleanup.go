package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iudanet/authkeeper/internal/server"
)

// NewCleanupCmd creates the cleanup subcommand.
func NewCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired and used password reset tokens once",
		RunE:  runCleanup,
	}
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv, err := server.New(server.Options{Config: cfg, Logger: logger, Store: store})
	if err != nil {
		return oops.Code("SERVER_INIT_FAILED").Wrap(err)
	}

	removed, err := srv.ResetManager().CleanupExpired(ctx)
	if err != nil {
		return oops.Code("CLEANUP_FAILED").Wrap(err)
	}

	cmd.Printf("Removed %d reset tokens\n", removed)
	return nil
}
