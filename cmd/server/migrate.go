package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iudanet/authkeeper/internal/server/storage/backend"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the configured database and print the schema version.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	// миграции применяются при открытии хранилища
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	migrator, ok := store.(backend.Migrator)
	if !ok {
		cmd.Printf("Driver %s has no schema, nothing to migrate\n", cfg.DB.Driver)
		return nil
	}

	version, err := migrator.MigrationVersion(ctx)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read schema version").Wrap(err)
	}

	cmd.Printf("Migrations completed successfully, schema version %d\n", version)
	return nil
}
