package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviemate/internal/adapter"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/messaging"
	"github.com/mmcdole/moviemate/internal/search"
	"github.com/mmcdole/moviemate/internal/tui"
	"golang.org/x/term"
)

func runPopup(cfg *adapter.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("popup", flag.ContinueOnError)
	local := fs.Bool("local", false, "run the background in-process instead of dialing server.url")
	genreFlag := fs.String("genre", "", "starting genre (fuzzy matched)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	genre := domain.DefaultGenre
	if *genreFlag != "" {
		g, err := search.MatchGenre(*genreFlag)
		if err != nil {
			return fmt.Errorf("genre %q: %w", *genreFlag, err)
		}
		genre = g
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sender messaging.Sender
	var pushes <-chan messaging.Push
	if *local {
		svc, err := startBackground(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()
		sender = svc.Router
	} else {
		remote := messaging.NewRemote(cfg.Server.URL, logger)
		observer := tui.NewPushObserver()
		if err := remote.Subscribe(ctx, observer.OnPush); err != nil {
			logger.Warn("push stream unavailable", "error", err)
		} else {
			pushes = observer.Pushes()
		}
		sender = remote
	}
	client := messaging.NewClient(sender)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return printSummary(ctx, os.Stdout, client, genre)
	}

	launcher := adapter.NewLauncher(cfg.Browser.Command, cfg.Browser.Args, logger)
	model := tui.NewModel(client, launcher, pushes, genre, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// printSummary is the popup for pipes: one pick, the count and the watchlist
func printSummary(ctx context.Context, w io.Writer, client *messaging.Client, genre domain.Genre) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	movie, err := client.GetRecommendation(ctx, string(genre))
	if err != nil {
		return fmt.Errorf("failed to get recommendation: %w", err)
	}
	count, err := client.BlockedCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to get blocked count: %w", err)
	}
	list, err := client.Watchlist(ctx)
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	if movie != nil {
		fmt.Fprintf(w, "%s pick: %s\n", genre.DisplayName(), movie)
		fmt.Fprintf(w, "  %s\n", movie.LinkURL())
	} else {
		fmt.Fprintf(w, "%s pick: none available yet\n", genre.DisplayName())
	}
	fmt.Fprintf(w, "Ads blocked: %d\n", count)
	fmt.Fprintf(w, "Watchlist (%d):\n", len(list))
	for _, m := range list {
		fmt.Fprintf(w, "  %s\n", m)
	}
	return nil
}
