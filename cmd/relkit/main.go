// Package main is the entry point for the relkit release tool.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"github.com/ziplock/relkit/cmd/relkit/commands"
	"github.com/ziplock/relkit/internal/app"
	"github.com/ziplock/relkit/internal/core/domain"
	_ "github.com/ziplock/relkit/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = components.Telemetry.Close()
	}()

	// 2. Interface - CLI
	cli := commands.New(components.App)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrBuild) || errors.Is(err, domain.ErrVerification) {
			// The per-target summary has already been printed.
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
