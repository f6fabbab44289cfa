// Package recommend keeps a per-genre pool of movie recommendations and
// refills it from the movie API on demand.
package recommend

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/metrics"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 30 * time.Second

// Cache maps every genre to its latest fetched batch. An empty batch is
// refilled on the next Get; a failed or empty fetch keeps the old batch.
type Cache struct {
	client domain.RecommendationClient
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[domain.Genre][]domain.Movie

	group        singleflight.Group
	fetchTimeout time.Duration

	randMu sync.Mutex
	rng    *rand.Rand
}

// NewCache creates a cache with an empty entry for every genre
func NewCache(client domain.RecommendationClient, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	entries := make(map[domain.Genre][]domain.Movie, len(domain.Genres))
	for _, g := range domain.Genres {
		entries[g] = nil
	}
	return &Cache{
		client:       client,
		logger:       logger,
		entries:      entries,
		fetchTimeout: defaultFetchTimeout,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Get returns a random movie for genre, refilling first when the genre is
// empty. It returns false for unknown genres or when nothing is available.
func (c *Cache) Get(ctx context.Context, genre domain.Genre) (*domain.Movie, bool) {
	if !genre.Valid() {
		return nil, false
	}

	movies := c.snapshot(genre)
	if len(movies) == 0 {
		var err error
		movies, err = c.refill(ctx, genre, true)
		if err != nil || len(movies) == 0 {
			return nil, false
		}
	}

	movie := movies[c.intn(len(movies))]
	return &movie, true
}

// Has reports whether genre currently holds at least one movie
func (c *Cache) Has(genre domain.Genre) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[genre]) > 0
}

// Sizes returns the number of cached movies per genre
func (c *Cache) Sizes() map[domain.Genre]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sizes := make(map[domain.Genre]int, len(c.entries))
	for g, movies := range c.entries {
		sizes[g] = len(movies)
	}
	return sizes
}

// Warm fetches every genre concurrently, regardless of current contents.
// Failures are logged and leave the affected genre unchanged.
func (c *Cache) Warm(ctx context.Context) {
	start := time.Now()
	var wg conc.WaitGroup
	for _, g := range domain.Genres {
		wg.Go(func() {
			_, _ = c.refill(ctx, g, false)
		})
	}
	wg.Wait()
	c.logger.Info("recommendation cache warmed", "duration", time.Since(start), "sizes", c.Sizes())
}

// Refresh forces a refetch of genre
func (c *Cache) Refresh(ctx context.Context, genre domain.Genre) error {
	if !genre.Valid() {
		return domain.ErrUnknownGenre
	}
	_, err := c.refill(ctx, genre, false)
	return err
}

// refill fetches genre once no matter how many callers ask concurrently.
// The fetch outlives a canceled caller so other waiters still get the result.
// With onlyIfEmpty, a genre filled since the caller looked is returned as is.
func (c *Cache) refill(ctx context.Context, genre domain.Genre, onlyIfEmpty bool) ([]domain.Movie, error) {
	ch := c.group.DoChan(string(genre), func() (any, error) {
		if onlyIfEmpty {
			if movies := c.snapshot(genre); len(movies) > 0 {
				return movies, nil
			}
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		start := time.Now()
		movies, err := c.client.FetchRecommendations(fetchCtx, genre)
		metrics.RecommendationFetchDuration.WithLabelValues(string(genre)).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.RecommendationFetches.WithLabelValues(string(genre), "error").Inc()
			c.logger.Error("failed to fetch recommendations", "error", err, "genre", genre)
			return c.snapshot(genre), err
		}
		if len(movies) == 0 {
			metrics.RecommendationFetches.WithLabelValues(string(genre), "empty").Inc()
			c.logger.Warn("empty recommendation batch, keeping previous", "genre", genre)
			return c.snapshot(genre), nil
		}
		metrics.RecommendationFetches.WithLabelValues(string(genre), "success").Inc()

		c.mu.Lock()
		c.entries[genre] = movies
		c.mu.Unlock()

		c.logger.Debug("recommendations refilled", "genre", genre, "count", len(movies))
		return movies, nil
	})

	select {
	case res := <-ch:
		movies, _ := res.Val.([]domain.Movie)
		return movies, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) snapshot(genre domain.Genre) []domain.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[genre]
}

func (c *Cache) intn(n int) int {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return c.rng.IntN(n)
}
