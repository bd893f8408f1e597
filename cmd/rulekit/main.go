package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"

	"github.com/macropower/rulekit/internal/cli"
	"github.com/macropower/rulekit/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := cli.SetupTracing(ctx)
	if err != nil {
		slog.Error("set up tracing", slog.Any("error", err))

		return 1
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := shutdown(shutdownCtx) //nolint:contextcheck // Parent context may be done.
		if err != nil {
			slog.Error("shut down tracing", slog.Any("error", err))
		}
	}()

	info := version.Get()

	err = fang.Execute(ctx, cli.NewRootCmd(),
		fang.WithVersion(info.Version),
		fang.WithCommit(info.Revision),
		fang.WithColorSchemeFunc(cli.ColorSchemeFunc),
		fang.WithErrorHandler(cli.ErrorHandler),
	)
	if err != nil {
		return 1
	}

	return 0
}
