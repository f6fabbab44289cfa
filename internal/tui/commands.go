package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/messaging"
)

// Command factories for async operations

const requestTimeout = 30 * time.Second

// Opener hands a link to the browser
type Opener interface {
	Open(link string) error
}

// GetRecommendationCmd asks the background for a pick in genre
func GetRecommendationCmd(client *messaging.Client, genre domain.Genre) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		movie, err := client.GetRecommendation(ctx, string(genre))
		if err != nil {
			return ErrMsg{Err: err, Context: "loading recommendation"}
		}
		return RecommendationMsg{Genre: genre, Movie: movie}
	}
}

// LoadWatchlistCmd loads the persisted watchlist
func LoadWatchlistCmd(client *messaging.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		movies, err := client.Watchlist(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading watchlist"}
		}
		return WatchlistLoadedMsg{Movies: movies}
	}
}

// AddToWatchlistCmd adds movie to the watchlist
func AddToWatchlistCmd(client *messaging.Client, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := client.AddToWatchlist(ctx, movie); err != nil {
			return ErrMsg{Err: err, Context: "adding " + movie.Title}
		}
		return WatchlistChangedMsg{Status: fmt.Sprintf("Added %s to watchlist", movie.Title)}
	}
}

// RemoveFromWatchlistCmd removes movie from the watchlist
func RemoveFromWatchlistCmd(client *messaging.Client, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := client.RemoveFromWatchlist(ctx, movie.ID); err != nil {
			return ErrMsg{Err: err, Context: "removing " + movie.Title}
		}
		return WatchlistChangedMsg{Status: fmt.Sprintf("Removed %s", movie.Title)}
	}
}

// ClearWatchlistCmd empties the watchlist
func ClearWatchlistCmd(client *messaging.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := client.ClearWatchlist(ctx); err != nil {
			return ErrMsg{Err: err, Context: "clearing watchlist"}
		}
		return WatchlistChangedMsg{Status: "Watchlist cleared"}
	}
}

// LoadBlockedCountCmd fetches the blocked-request total
func LoadBlockedCountCmd(client *messaging.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		count, err := client.BlockedCount(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading blocked count"}
		}
		return BlockedCountMsg{Count: count}
	}
}

// OpenLinkCmd opens the trailer, or the TMDB page, for movie
func OpenLinkCmd(opener Opener, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		link := movie.LinkURL()
		if err := opener.Open(link); err != nil {
			return ErrMsg{Err: err, Context: "opening " + movie.Title}
		}
		return LinkOpenedMsg{Link: link}
	}
}

// WaitForPushCmd waits for the next blocked-count push. The model re-issues
// it after every delivery.
func WaitForPushCmd(pushes <-chan messaging.Push) tea.Cmd {
	if pushes == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-pushes
		if !ok {
			return PushClosedMsg{}
		}
		return PushMsg{Count: p.Count}
	}
}

// ClearStatusCmd clears the status line after d
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// TickCmd drives the loading spinner
func TickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
