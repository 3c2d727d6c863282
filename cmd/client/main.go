package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/iudanet/authkeeper/internal/client/api"
	"github.com/iudanet/authkeeper/internal/client/auth"
	"github.com/iudanet/authkeeper/internal/client/cli"
	"github.com/iudanet/authkeeper/internal/client/iocli"
	"github.com/iudanet/authkeeper/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], iocli.NewStdio(), os.Stdout, os.Stderr))
}

func run(argv []string, stdio iocli.IO, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Глобальные флаги
	showVersion := fs.Bool("version", false, "Show version information")
	serverURL := fs.String("server", "http://localhost:3000", "Server URL")
	dbPath := fs.String("db", "authctl.db", "Path to local session database")
	passwordFile := fs.String("password-file", "", "Path to file containing the password")

	if err := fs.Parse(argv); err != nil {
		return 2
	}

	// Show version and exit if requested
	if *showVersion {
		printVersion(stdout)
		return 0
	}

	// Получаем команду
	args := fs.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	authService := auth.NewService(api.NewClient(*serverURL), boltStorage)
	app := cli.New(stdio, authService, cli.Passwords{FromFile: *passwordFile})

	if err := app.Run(ctx, args[0], args[1:]); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "AuthKeeper Client\n")
	_, _ = fmt.Fprintf(w, "Version:    %s\n", Version)
	_, _ = fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
}
