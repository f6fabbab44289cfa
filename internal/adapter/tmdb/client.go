package tmdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/sourcegraph/conc/iter"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultEnrichWorker = 4
	userAgent           = "MovieMate/1.0"
)

// Options configures a Client
type Options struct {
	APIKey            string
	BaseURL           string
	ImageBaseURL      string
	RatingStrategy    domain.RatingStrategy
	Enrich            bool // fetch reviews + trailer for every movie
	ReviewLimit       int
	RequestsPerSecond float64 // <= 0 disables limiting
	Timeout           time.Duration
}

// Client implements domain.RecommendationClient against the TMDB v3 API
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new TMDB API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatingStrategy == "" {
		opts.RatingStrategy = domain.RatingContent
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// doRequest performs an authenticated GET and returns the body
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.opts.APIKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.opts.BaseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("tmdb request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("tmdb request failed", "error", err, "path", path)
		return nil, fmt.Errorf("%w: %v", domain.ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrAuthFailed
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		_ = json.Unmarshal(body, &apiErr)
		c.logger.Error("tmdb request error", "status", resp.StatusCode, "message", apiErr.StatusMessage)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// FetchRecommendations returns the first page of popular movies for genre
func (c *Client) FetchRecommendations(ctx context.Context, genre domain.Genre) ([]domain.Movie, error) {
	genreID, ok := genre.TMDBID()
	if !ok {
		return nil, domain.ErrUnknownGenre
	}

	query := url.Values{}
	query.Set("with_genres", strconv.Itoa(genreID))
	query.Set("sort_by", "popularity.desc")
	query.Set("page", "1")

	body, err := c.doRequest(ctx, "/discover/movie", query)
	if err != nil {
		return nil, err
	}

	var resp DiscoverResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	movies := MapMovies(resp.Results, c.opts.ImageBaseURL, c.opts.RatingStrategy)
	if !c.opts.Enrich {
		return movies, nil
	}
	return c.enrich(ctx, movies), nil
}

// enrich attaches reviews and a trailer to each movie concurrently.
// Movies whose reviews fail to load or are empty are dropped; order is kept.
func (c *Client) enrich(ctx context.Context, movies []domain.Movie) []domain.Movie {
	type enriched struct {
		movie domain.Movie
		ok    bool
	}

	mapper := iter.Mapper[domain.Movie, enriched]{MaxGoroutines: defaultEnrichWorker}
	results := mapper.Map(movies, func(m *domain.Movie) enriched {
		movie := *m

		reviews, err := c.FetchReviews(ctx, movie.ID)
		if err != nil {
			c.logger.Warn("failed to fetch reviews", "error", err, "movieID", movie.ID)
			return enriched{}
		}
		if len(reviews) == 0 {
			return enriched{}
		}
		movie.Reviews = reviews

		// The trailer is optional; a failed lookup leaves TrailerKey empty
		key, err := c.FetchTrailerKey(ctx, movie.ID)
		if err != nil {
			c.logger.Warn("failed to fetch videos", "error", err, "movieID", movie.ID)
		}
		movie.TrailerKey = key
		return enriched{movie: movie, ok: true}
	})

	out := make([]domain.Movie, 0, len(results))
	for _, r := range results {
		if r.ok {
			out = append(out, r.movie)
		}
	}
	c.logger.Debug("enriched recommendations", "in", len(movies), "out", len(out))
	return out
}

// FetchReviews returns up to the configured number of reviews for a movie
func (c *Client) FetchReviews(ctx context.Context, movieID int) ([]domain.Review, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/movie/%d/reviews", movieID), nil)
	if err != nil {
		return nil, err
	}

	var resp ReviewsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse reviews: %w", err)
	}
	return MapReviews(resp.Results, c.opts.ReviewLimit), nil
}

// FetchTrailerKey returns the YouTube key of the movie's trailer, or ""
func (c *Client) FetchTrailerKey(ctx context.Context, movieID int) (string, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/movie/%d/videos", movieID), nil)
	if err != nil {
		return "", err
	}

	var resp VideosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse videos: %w", err)
	}
	return PickTrailer(resp.Results), nil
}
