package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/moviemate/internal/adapter"
	"github.com/mmcdole/moviemate/internal/background"
	"github.com/mmcdole/moviemate/internal/detector"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/htmldoc"
	"github.com/mmcdole/moviemate/internal/messaging"
	"github.com/mmcdole/moviemate/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adPage = `<!DOCTYPE html>
<html><head><title>News</title>
<script src="https://www.google-analytics.com/analytics.js"></script>
</head><body>
  <article><img src="/photo.jpg" width="600" height="400"></article>
  <div id="ad-banner-1" style="width:300px;height:250px"></div>
  <div id="ad-banner-2" style="width:50px;height:50px"></div>
  <iframe src="https://ad.doubleclick.net/slot" width="300" height="600"></iframe>
</body></html>`

type stubFetcher struct{}

func (stubFetcher) FetchRecommendations(_ context.Context, g domain.Genre) ([]domain.Movie, error) {
	id, _ := g.TMDBID()
	return []domain.Movie{{
		ID:       id,
		Title:    g.DisplayName() + " Night",
		Year:     2001,
		Rating:   "PG-13",
		ImageURL: "https://image.tmdb.org/t/p/w500/p.jpg",
	}}, nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocalBackend(t *testing.T) (localBackend, *background.Service) {
	t.Helper()
	cfg := adapter.DefaultConfig()
	cfg.Storage.Dir = ""

	svc, err := background.New(cfg, stubFetcher{}, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	svc.Start(context.Background())
	svc.WaitWarm()
	return localBackend{svc: svc}, svc
}

func defaultOptions() detector.Options {
	cfg := adapter.DefaultConfig()
	return detector.Options{
		Selectors:   cfg.Detector.Selectors,
		MinWidth:    cfg.Detector.MinWidth,
		MinHeight:   cfg.Detector.MinHeight,
		Concurrency: cfg.Detector.Concurrency,
	}
}

func TestScanPageLocal(t *testing.T) {
	backend, svc := newLocalBackend(t)

	doc, err := htmldoc.ParseString(adPage, quiet())
	require.NoError(t, err)
	base, _ := url.Parse("https://news.example/today")

	report, err := scanPage(context.Background(), doc, base, backend, defaultOptions(), 0, quiet())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Requests)
	assert.Equal(t, 2, report.Blocked, "analytics script and doubleclick frame")
	assert.EqualValues(t, 2, svc.Counter.Load())
	assert.Equal(t, 2, report.Replaced, "300x250 banner and 300x600 frame")
	assert.Equal(t, 3, report.Passes, "one rescan per block plus the initial scan")

	out := doc.String()
	assert.Equal(t, 2, strings.Count(out, `class="`+widget.ClassRecommendation+`"`))
	assert.Contains(t, out, "Action Night")
	assert.Contains(t, out, `id="ad-banner-2"`, "small slot kept")
	assert.Equal(t, 1, strings.Count(out, `id="`+widget.StyleID+`"`))
}

func TestScanPageEvaluatesInsertedAds(t *testing.T) {
	backend, _ := newLocalBackend(t)

	doc, err := htmldoc.ParseString(adPage, quiet())
	require.NoError(t, err)

	done := make(chan scanReport, 1)
	go func() {
		report, err := scanPage(context.Background(), doc, nil, backend, defaultOptions(), time.Second, quiet())
		assert.NoError(t, err)
		done <- report
	}()

	require.Eventually(t, func() bool {
		return strings.Count(doc.String(), `class="`+widget.ClassRecommendation+`"`) == 2
	}, 2*time.Second, 10*time.Millisecond)

	_, err = doc.Insert(doc.Body(), `<div class="ad-container" style="width:728px;height:120px"></div>`)
	require.NoError(t, err)

	var report scanReport
	select {
	case report = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not finish")
	}
	assert.Equal(t, 3, report.Replaced)
	assert.NotContains(t, doc.String(), "ad-container")
}

func TestScanPageMessageWidget(t *testing.T) {
	backend, _ := newLocalBackend(t)

	doc, err := htmldoc.ParseString(adPage, quiet())
	require.NoError(t, err)

	opts := defaultOptions()
	opts.Widget = string(widget.MessageCustom)
	opts.CustomMessage = "Drink some water"

	report, err := scanPage(context.Background(), doc, nil, backend, opts, 0, quiet())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Replaced)
	assert.Contains(t, doc.String(), "Drink some water")
}

func TestScanPageRemote(t *testing.T) {
	_, svc := newLocalBackend(t)
	ts := httptest.NewServer(svc.Server.Handler())
	defer ts.Close()

	doc, err := htmldoc.ParseString(adPage, quiet())
	require.NoError(t, err)

	backend := remoteBackend{messaging.NewRemote(ts.URL, quiet())}
	report, err := scanPage(context.Background(), doc, nil, backend, defaultOptions(), 0, quiet())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Requests, "relative photo skipped without a base")
	assert.Equal(t, 2, report.Blocked)
	assert.Equal(t, 2, report.Replaced)
}

func TestLoadPageFromURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(adPage))
	}))
	defer ts.Close()

	doc, base, err := loadPage(context.Background(), ts.URL+"/today", quiet())
	require.NoError(t, err)
	require.NotNil(t, base)
	assert.Len(t, doc.Resources(base), 3)
}

func TestPrintSummary(t *testing.T) {
	_, svc := newLocalBackend(t)
	client := messaging.NewClient(svc.Router)
	require.NoError(t, client.AddToWatchlist(context.Background(), domain.Movie{ID: 1, Title: "Heat", Year: 1995, Rating: "R"}))

	var buf bytes.Buffer
	require.NoError(t, printSummary(context.Background(), &buf, client, domain.GenreCrime))

	out := buf.String()
	assert.Contains(t, out, "Crime pick: Crime Night (2001) [PG-13]")
	assert.Contains(t, out, "Ads blocked: 0")
	assert.Contains(t, out, "Heat (1995) [R]")
}
