package watchlist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/moviemate/internal/domain"
)

// Service orchestrates read-modify-write operations over the watchlist store.
// Implements domain.WatchlistCommands.
type Service struct {
	store  domain.WatchlistStore
	logger *slog.Logger

	// mu serializes load/modify/persist so a caller always observes
	// its own write (and every earlier one from this process).
	mu sync.Mutex
}

// NewService creates a new watchlist service.
func NewService(store domain.WatchlistStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Add appends movie unless a movie with the same id is already saved,
// in which case it returns domain.ErrDuplicateMovie and writes nothing.
func (s *Service) Add(ctx context.Context, movie domain.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	movies, err := s.store.GetWatchlist()
	if err != nil {
		s.logger.Error("failed to load watchlist", "error", err)
		return err
	}

	if indexOf(movies, movie.ID) >= 0 {
		s.logger.Debug("movie already in watchlist", "movieID", movie.ID)
		return domain.ErrDuplicateMovie
	}

	movies = append(movies, movie)
	if err := s.store.SaveWatchlist(movies); err != nil {
		s.logger.Error("failed to save watchlist", "error", err, "movieID", movie.ID)
		return err
	}

	s.logger.Info("added to watchlist", "movieID", movie.ID, "title", movie.Title, "count", len(movies))
	return nil
}

// Remove drops the movie with the given id. It persists only when something
// was removed and returns domain.ErrMovieNotFound otherwise.
func (s *Service) Remove(ctx context.Context, movieID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	movies, err := s.store.GetWatchlist()
	if err != nil {
		s.logger.Error("failed to load watchlist", "error", err)
		return err
	}

	kept := make([]domain.Movie, 0, len(movies))
	for _, m := range movies {
		if m.ID != movieID {
			kept = append(kept, m)
		}
	}

	if len(kept) == len(movies) {
		s.logger.Debug("movie not in watchlist", "movieID", movieID)
		return domain.ErrMovieNotFound
	}

	if err := s.store.SaveWatchlist(kept); err != nil {
		s.logger.Error("failed to save watchlist", "error", err, "movieID", movieID)
		return err
	}

	s.logger.Info("removed from watchlist", "movieID", movieID, "count", len(kept))
	return nil
}

// Clear persists an empty watchlist.
func (s *Service) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveWatchlist([]domain.Movie{}); err != nil {
		s.logger.Error("failed to clear watchlist", "error", err)
		return err
	}
	s.logger.Info("cleared watchlist")
	return nil
}

// List returns the persisted watchlist in insertion order.
func (s *Service) List(ctx context.Context) ([]domain.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	movies, err := s.store.GetWatchlist()
	if err != nil {
		s.logger.Error("failed to load watchlist", "error", err)
		return nil, err
	}
	return movies, nil
}

func indexOf(movies []domain.Movie, id int) int {
	for i, m := range movies {
		if m.ID == id {
			return i
		}
	}
	return -1
}
