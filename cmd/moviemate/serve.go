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

	"github.com/mmcdole/moviemate/internal/adapter"
	"github.com/mmcdole/moviemate/internal/background"
)

func runServe(cfg *adapter.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := startBackground(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Printf("moviemate background listening on %s\n", cfg.Server.Listen)
	logger.Info("serving", "addr", cfg.Server.Listen)

	if err := svc.Serve(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// startBackground builds the background service and starts rule install
// and cache warm-up
func startBackground(ctx context.Context, cfg *adapter.Config, logger *slog.Logger) (*background.Service, error) {
	if !cfg.IsConfigured() {
		return nil, errors.New("no TMDB API key configured; run `moviemate setup` or set TMDB_API_KEY")
	}

	fetcher, err := background.NewFetcher(cfg.TMDB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create movie API client: %w", err)
	}

	svc, err := background.New(cfg, fetcher, logger)
	if err != nil {
		return nil, err
	}
	svc.Start(ctx)
	return svc, nil
}
