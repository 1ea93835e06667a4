package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fedpipeline/internal/app"
	"fedpipeline/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Startup(ctx); err != nil {
		logger := a.Logger()
		logger.Error().Err(err).Msg("startup failed")
		a.Shutdown(context.Background())
		os.Exit(1)
	}

	<-ctx.Done()
	logger := a.Logger()
	logger.Info().Msg("Shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	a.Shutdown(shutdownCtx)
}
