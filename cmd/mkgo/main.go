// Package main is the entry point for the mkgo CLI.
//
// This binary builds the targets of the project in the working directory
// (or $MKGO_PROJECT_DIR). It delegates all functionality to the internal/cli
// package.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to "dev",
// "none", and "unknown" respectively.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shinji-kodama/mkgo/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Interrupts cancel the context, which forwards them to a running
	// compiler instead of leaving it orphaned.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cli.ResolveProjectDir(os.Getenv))
	code := app.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
