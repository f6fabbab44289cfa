package domain

// WatchlistStore persists the watchlist (BoltDB + memory).
// Values are canonical lists; legacy object-keyed values are normalized on read.
type WatchlistStore interface {
	// GetWatchlist returns the stored list. A missing key yields an empty list.
	GetWatchlist() ([]Movie, error)

	// SaveWatchlist replaces the stored list.
	SaveWatchlist(movies []Movie) error

	Close() error
}
