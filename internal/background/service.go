// Package background owns the process-scoped state: the recommendation
// cache, the blocked-request counter, the watchlist and the rule list.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/moviemate/internal/adapter"
	"github.com/mmcdole/moviemate/internal/adapter/tmdb"
	"github.com/mmcdole/moviemate/internal/adblock"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/messaging"
	"github.com/mmcdole/moviemate/internal/recommend"
	"github.com/mmcdole/moviemate/internal/store"
	"github.com/mmcdole/moviemate/internal/watchlist"
	"github.com/sourcegraph/conc"
)

const shutdownTimeout = 5 * time.Second

// Service wires the background components together
type Service struct {
	cfg    *adapter.Config
	logger *slog.Logger

	Store     *store.Store
	Watchlist *watchlist.Service
	Cache     *recommend.Cache
	Counter   *adblock.Counter
	Blocker   *adblock.Blocker
	Router    *messaging.Router
	Hub       *messaging.Hub
	Server    *messaging.Server

	wg conc.WaitGroup
}

// NewFetcher builds the movie API client from configuration
func NewFetcher(cfg adapter.TMDBConfig, logger *slog.Logger) (*tmdb.Client, error) {
	strategy, err := domain.ParseRatingStrategy(cfg.RatingStrategy)
	if err != nil {
		return nil, err
	}
	return tmdb.NewClient(tmdb.Options{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		ImageBaseURL:      cfg.ImageBaseURL,
		RatingStrategy:    strategy,
		Enrich:            cfg.Enrich,
		ReviewLimit:       cfg.ReviewLimit,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.Timeout,
	}, logger), nil
}

// New builds every component. Nothing runs until Start.
func New(cfg *adapter.Config, client domain.RecommendationClient, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.New(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Service{
		cfg:       cfg,
		logger:    logger,
		Store:     st,
		Watchlist: watchlist.NewService(st, logger),
		Cache:     recommend.NewCache(client, logger),
		Counter:   &adblock.Counter{},
	}
	s.Blocker = adblock.NewBlocker(adblock.NewRules(cfg.AdBlock.Domains, cfg.AdBlock.ResourceTypes), s.Counter, logger)
	s.Router = messaging.NewRouter(s.Cache, s.Watchlist, s.Blocker, logger)
	s.Hub = messaging.NewHub(originChecker(cfg.Server.AllowedOrigins), logger)
	s.Blocker.Subscribe(s.Hub)
	s.Server = messaging.NewServer(messaging.ServerOptions{
		Addr:           cfg.Server.Listen,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, s.Router, s.Hub, s.Blocker, s.Cache, logger)

	return s, nil
}

// Start installs the block rules and warms the cache in the background
func (s *Service) Start(ctx context.Context) {
	s.Blocker.Install(s.Blocker.Rules())
	s.wg.Go(func() {
		s.Cache.Warm(ctx)
	})
}

// WaitWarm blocks until the startup warm-up has finished
func (s *Service) WaitWarm() {
	s.wg.Wait()
}

// Serve runs the messaging server until ctx is done
func (s *Service) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down messaging server")
		return s.Server.Shutdown(shutdownCtx)
	}
}

// Close waits for background work and releases the store
func (s *Service) Close() error {
	s.wg.Wait()
	s.Hub.Close()
	return s.Store.Close()
}

// originChecker admits websocket upgrades from the configured CORS origins.
// Non-browser clients send no Origin and are always admitted.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, pattern := range allowed {
			if matchOrigin(pattern, origin) {
				return true
			}
		}
		return false
	}
}

func matchOrigin(pattern, origin string) bool {
	if pattern == "*" || pattern == origin {
		return true
	}
	prefix, suffix, ok := strings.Cut(pattern, "*")
	if !ok {
		return false
	}
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
}
