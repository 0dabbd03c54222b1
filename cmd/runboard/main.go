package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("runboard stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

// run reads config in order: defaults, '.env', environment, flags.
// Returns nil when stopped by context.
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	c := NewConfig()

	err := c.LoadDotEnv(getwd)
	if err != nil {
		return fmt.Errorf("error while reading .env. Err: %w", err)
	}
	c.LoadEnv(getenv)
	err = c.ParseFlags(args)
	if err != nil {
		return err
	}

	srv, err := NewServerApp(ctx, c)
	if err != nil {
		return fmt.Errorf("can't initialize app. Err: %w", err)
	}

	err = srv.Run(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
