package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"ai-interview-service/internal/app"
	"ai-interview-service/internal/config"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	errc := application.Start()

	failed := false
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errc:
		log.Error().Err(err).Msg("Server failed")
		failed = true
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	application.Shutdown(shutdownCtx)

	if failed {
		os.Exit(1)
	}
}
