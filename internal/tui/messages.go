package tui

import (
	"github.com/mmcdole/moviemate/internal/domain"
)

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// RecommendationMsg carries a pick for Genre. Movie is nil when the
// background had nothing cached.
type RecommendationMsg struct {
	Genre domain.Genre
	Movie *domain.Movie
}

// WatchlistLoadedMsg signals that the watchlist has been loaded
type WatchlistLoadedMsg struct {
	Movies []domain.Movie
}

// WatchlistChangedMsg signals a successful add, remove or clear
type WatchlistChangedMsg struct {
	Status string
}

// BlockedCountMsg carries the blocked-request total
type BlockedCountMsg struct {
	Count int64
}

// PushMsg carries a blocked-count push from the background
type PushMsg struct {
	Count int64
}

// PushClosedMsg signals that the push channel closed
type PushClosedMsg struct{}

// LinkOpenedMsg signals that a link was handed to the browser
type LinkOpenedMsg struct {
	Link string
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// TickMsg advances the loading spinner
type TickMsg struct{}
