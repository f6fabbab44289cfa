package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mmcdole/moviemate/internal/adapter"
	"github.com/mmcdole/moviemate/internal/background"
	"github.com/mmcdole/moviemate/internal/detector"
	"github.com/mmcdole/moviemate/internal/htmldoc"
	"github.com/mmcdole/moviemate/internal/messaging"
	"github.com/mmcdole/moviemate/internal/search"
	"github.com/mmcdole/moviemate/internal/widget"
)

var pageClient = &http.Client{Timeout: 30 * time.Second}

// scanBackend is what a page scan needs from the background
type scanBackend interface {
	messaging.Sender
	CheckRequest(ctx context.Context, rawURL, resourceType string) (bool, error)
	Subscribe(ctx context.Context, fn func(messaging.Push)) error
}

// remoteBackend reaches a running `moviemate serve`
type remoteBackend struct {
	*messaging.Remote
}

func (b remoteBackend) CheckRequest(ctx context.Context, rawURL, resourceType string) (bool, error) {
	result, err := b.ReportBlocked(ctx, rawURL, resourceType)
	return result.Blocked, err
}

// localBackend runs the background in-process
type localBackend struct {
	svc *background.Service
}

func (b localBackend) Send(ctx context.Context, req messaging.Request) (messaging.Response, error) {
	return b.svc.Router.Send(ctx, req)
}

func (b localBackend) CheckRequest(_ context.Context, rawURL, resourceType string) (bool, error) {
	return b.svc.Blocker.Check(rawURL, resourceType), nil
}

func (b localBackend) Subscribe(ctx context.Context, fn func(messaging.Push)) error {
	b.svc.Blocker.Subscribe(blockNotifier(func(count int64) {
		if ctx.Err() == nil {
			fn(messaging.Push{Type: messaging.AdBlocked, Count: count})
		}
	}))
	return nil
}

// blockNotifier adapts a func to adblock.Notifier
type blockNotifier func(count int64)

func (f blockNotifier) NotifyBlocked(count int64) { f(count) }

// scanReport summarizes one scan run
type scanReport struct {
	Requests int // subresources checked against the block rules
	Blocked  int
	Passes   int // detection passes, including rescans and mutation passes
	Replaced int
}

func runScan(cfg *adapter.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	local := fs.Bool("local", false, "run the background in-process instead of dialing server.url")
	out := fs.String("out", "", "write the rewritten page to this file (default stdout)")
	follow := fs.Duration("follow", 0, "keep rescanning on ad-blocked pushes for this long")
	category := fs.String("category", cfg.Detector.Category, "recommendation genre (fuzzy matched)")
	widgetKind := fs.String("widget", cfg.Detector.Widget, "replacement: movie, quote, reminder or custom")
	message := fs.String("message", cfg.Detector.CustomMessage, "text for the custom widget")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: moviemate scan [flags] <file|url>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("scan needs exactly one page")
	}

	opts := detector.Options{
		Selectors:     cfg.Detector.Selectors,
		MinWidth:      cfg.Detector.MinWidth,
		MinHeight:     cfg.Detector.MinHeight,
		Concurrency:   cfg.Detector.Concurrency,
		Widget:        *widgetKind,
		CustomMessage: *message,
	}
	if opts.Widget != detector.WidgetMovie && !widget.IsMessageKind(opts.Widget) {
		return fmt.Errorf("unknown widget %q", opts.Widget)
	}
	if *category != "" {
		genre, err := search.MatchGenre(*category)
		if err != nil {
			return fmt.Errorf("category %q: %w", *category, err)
		}
		opts.Category = string(genre)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, base, err := loadPage(ctx, fs.Arg(0), logger)
	if err != nil {
		return err
	}

	var backend scanBackend
	if *local {
		// A scan never touches the watchlist; keep it off disk so a running
		// background's database lock is not contended
		localCfg := *cfg
		localCfg.Storage.Dir = ""
		svc, err := startBackground(ctx, &localCfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()
		svc.WaitWarm()
		backend = localBackend{svc: svc}
	} else {
		backend = remoteBackend{messaging.NewRemote(cfg.Server.URL, logger)}
	}

	report, err := scanPage(ctx, doc, base, backend, opts, *follow, logger)
	if err != nil {
		return err
	}

	if err := writePage(doc, *out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d of %d requests blocked, %d ad slots replaced in %d passes\n",
		report.Blocked, report.Requests, report.Replaced, report.Passes)
	return nil
}

// scanPage applies the block rules to the page's subresources, then
// replaces qualifying ad slots. Every blocked request pushed by the
// background triggers a rescan, and elements inserted into doc while the
// scan runs are evaluated as they arrive.
func scanPage(ctx context.Context, doc *htmldoc.Document, base *url.URL, backend scanBackend, opts detector.Options, follow time.Duration, logger *slog.Logger) (scanReport, error) {
	det := detector.New(doc, messaging.NewClient(backend), opts, logger)

	var (
		mu      sync.Mutex
		report  scanReport
		closed  bool
		rescans sync.WaitGroup
	)
	record := func(r detector.Result) {
		mu.Lock()
		report.Passes++
		report.Replaced += r.Replaced
		mu.Unlock()
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	err := backend.Subscribe(subCtx, func(p messaging.Push) {
		if p.Type != messaging.AdBlocked {
			return
		}
		mu.Lock()
		if closed {
			mu.Unlock()
			return
		}
		rescans.Add(1)
		mu.Unlock()
		defer rescans.Done()
		record(det.OnAdBlocked(subCtx, p.Count))
	})
	if err != nil {
		logger.Warn("push stream unavailable, rescans disabled", "error", err)
	}

	stopWatch := det.Watch(subCtx, func(r detector.Result) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			report.Passes++
			report.Replaced += r.Replaced
		}
	})
	defer stopWatch()

	var requests, blocked int
	for _, res := range doc.Resources(base) {
		requests++
		ok, err := backend.CheckRequest(ctx, res.URL, res.Type)
		if err != nil {
			return scanReport{}, fmt.Errorf("failed to check %s: %w", res.URL, err)
		}
		if ok {
			blocked++
			logger.Debug("request blocked", "url", res.URL, "type", res.Type)
		}
	}

	record(det.Scan(ctx))

	if follow > 0 {
		select {
		case <-time.After(follow):
		case <-ctx.Done():
		}
	}

	// Let rescans already under way finish before reporting
	mu.Lock()
	closed = true
	mu.Unlock()
	rescans.Wait()
	cancel()

	mu.Lock()
	defer mu.Unlock()
	report.Requests = requests
	report.Blocked = blocked
	return report, nil
}

// loadPage parses an HTML file, or fetches and parses an http(s) URL.
// base is nil for files.
func loadPage(ctx context.Context, src string, logger *slog.Logger) (*htmldoc.Document, *url.URL, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		doc, err := htmldoc.Parse(f, logger)
		return doc, nil, err
	}

	base, err := url.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid page url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "moviemate/"+Version)

	resp, err := pageClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("failed to fetch page: status %d", resp.StatusCode)
	}
	doc, err := htmldoc.Parse(resp.Body, logger)
	return doc, base, err
}

func writePage(doc *htmldoc.Document, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return doc.Render(w)
}
