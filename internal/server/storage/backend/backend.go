// Package backend opens the storage.Storage selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/server/storage/memory"
	"github.com/iudanet/authkeeper/internal/server/storage/postgres"
	"github.com/iudanet/authkeeper/internal/server/storage/sqlite"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options controls how the backend is opened.
type Options struct {
	Logger     *slog.Logger
	Driver     string
	DSN        string
	RetryBase  time.Duration
	MaxRetries uint64
}

// Open connects to the configured backend. PostgreSQL connection attempts
// are retried with exponential backoff since the database may still be
// starting next to the service.
func Open(ctx context.Context, opts Options) (storage.Storage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverSQLite, "":
		if err := ensureDir(opts.DSN); err != nil {
			return nil, err
		}
		return sqlite.New(ctx, opts.DSN)
	case DriverPostgres:
		return openPostgres(ctx, logger, opts)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// ensureDir создает каталог файла БД, как это делал прежний сервер с data/
func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// Migrator is implemented by backends with a schema.
type Migrator interface {
	MigrationVersion(ctx context.Context) (int64, error)
}

func openPostgres(ctx context.Context, logger *slog.Logger, opts Options) (storage.Storage, error) {
	base := opts.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(opts.MaxRetries, retry.NewExponential(base))

	var (
		s       *postgres.Storage
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		s, err = postgres.New(ctx, opts.DSN)
		if err != nil {
			logger.WarnContext(ctx, "Database not ready",
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres after %d attempts: %w", attempt, err)
	}

	return s, nil
}
