package background

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/moviemate/internal/adapter"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct{}

func (stubClient) FetchRecommendations(_ context.Context, g domain.Genre) ([]domain.Movie, error) {
	id, _ := g.TMDBID()
	return []domain.Movie{{ID: id, Title: g.DisplayName()}}, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := adapter.DefaultConfig()
	cfg.Storage.Dir = t.TempDir()

	svc, err := New(cfg, stubClient{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestStartWarmsEveryGenreAndInstallsRules(t *testing.T) {
	svc := newTestService(t)

	assert.False(t, svc.Blocker.Check("https://doubleclick.net/x.js", "script"), "no rules before start")

	svc.Start(context.Background())
	svc.WaitWarm()

	for g, n := range svc.Cache.Sizes() {
		assert.Equal(t, 1, n, g)
	}
	assert.True(t, svc.Blocker.Check("https://doubleclick.net/x.js", "script"))
	assert.EqualValues(t, 1, svc.Counter.Load())
}

func TestEndToEndOverHTTP(t *testing.T) {
	svc := newTestService(t)
	svc.Start(context.Background())
	svc.WaitWarm()

	ts := httptest.NewServer(svc.Server.Handler())
	defer ts.Close()

	c := messaging.NewClient(messaging.NewRemote(ts.URL, nil))
	movie, err := c.GetRecommendation(context.Background(), "scifi")
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, "Sci-Fi", movie.Title)

	require.NoError(t, c.AddToWatchlist(context.Background(), *movie))
	list, err := svc.Watchlist.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMatchOrigin(t *testing.T) {
	assert.True(t, matchOrigin("chrome-extension://*", "chrome-extension://abcdef"))
	assert.True(t, matchOrigin("http://localhost:*", "http://localhost:3000"))
	assert.False(t, matchOrigin("chrome-extension://*", "https://evil.example"))
	assert.True(t, matchOrigin("*", "anything"))
}
