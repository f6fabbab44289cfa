package domain

import "context"

// RecommendationClient fetches a fresh batch of movies for a genre
// (implemented by the TMDB adapter).
type RecommendationClient interface {
	FetchRecommendations(ctx context.Context, genre Genre) ([]Movie, error)
}

// RecommendationQueries: synchronous reads over the in-memory cache.
// Never blocks on network.
type RecommendationQueries interface {
	Has(genre Genre) bool
	Sizes() map[Genre]int
}

// WatchlistCommands: read-modify-write operations over the persisted watchlist.
type WatchlistCommands interface {
	Add(ctx context.Context, movie Movie) error
	Remove(ctx context.Context, movieID int) error
	Clear(ctx context.Context) error
	List(ctx context.Context) ([]Movie, error)
}
