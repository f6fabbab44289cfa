package messaging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviemate/internal/adblock"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (fixture, *Hub, *httptest.Server) {
	t.Helper()
	f := newFixture(t)
	hub := NewHub(nil, quiet())
	f.blocker.Subscribe(hub)

	srv := NewServer(ServerOptions{AllowedOrigins: []string{"chrome-extension://*"}}, f.router, hub, f.blocker, f.recs, quiet())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return f, hub, ts
}

func TestRemoteRoundTrip(t *testing.T) {
	f, _, ts := newTestServer(t)
	f.recs.entries[domain.GenreDrama] = []domain.Movie{{ID: 3, Title: "Ran", ImageURL: "https://img/r.jpg"}}

	c := NewClient(NewRemote(ts.URL, quiet()))
	ctx := context.Background()

	movie, err := c.GetRecommendation(ctx, "drama")
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, "Ran", movie.Title)
	assert.Equal(t, "https://img/r.jpg", movie.ImageURL)

	require.NoError(t, c.AddToWatchlist(ctx, *movie))
	assert.ErrorIs(t, c.AddToWatchlist(ctx, *movie), domain.ErrDuplicateMovie)

	list, err := c.Watchlist(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	count, err := c.BlockedCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRemoteUnknownRequest(t *testing.T) {
	_, _, ts := newTestServer(t)
	_, err := NewRemote(ts.URL, quiet()).Send(context.Background(), Request{Type: "NOPE"})
	assert.ErrorIs(t, err, domain.ErrUnknownRequest)
}

func TestMessageWireShape(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/message", "application/json", strings.NewReader(`{"type":"GET_BLOCKED_COUNT"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"count":0}`, string(body))

	resp2, err := http.Post(ts.URL+"/message", "application/json", strings.NewReader(`{"type":"ADD_TO_WATCHLIST","movie":{"id":7,"title":"Alien","year":1979,"rating":"R","imageUrl":"x","description":""}}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, _ = io.ReadAll(resp2.Body)
	assert.JSONEq(t, `{"success":true}`, string(body))
}

func TestRulesEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/rules")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rules []adblock.DeclarativeRule
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rules))
	require.Len(t, rules, 1)
	assert.Equal(t, "block", rules[0].Action.Type)
	assert.Equal(t, "*", rules[0].Condition.URLFilter)
}

func TestBlockReportPushesToSubscribers(t *testing.T) {
	_, hub, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pushes := make(chan Push, 4)
	require.NoError(t, NewRemote(ts.URL, quiet()).Subscribe(ctx, func(p Push) { pushes <- p }))
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/block", "application/json",
		strings.NewReader(`{"url":"https://securepubads.doubleclick.net/tag.js","resourceType":"script"}`))
	require.NoError(t, err)
	var result BlockResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.True(t, result.Blocked)
	assert.EqualValues(t, 1, result.Count)

	select {
	case p := <-pushes:
		assert.Equal(t, AdBlocked, p.Type)
		assert.EqualValues(t, 1, p.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("no push received")
	}
}

func TestSubscribeEndsWhenServerDisconnects(t *testing.T) {
	_, hub, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped, err := NewRemote(ts.URL, quiet()).subscribe(ctx, func(Push) {})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stream goroutines still running after disconnect")
	}
	assert.NoError(t, ctx.Err())
}

func TestRemoteReportBlocked(t *testing.T) {
	_, _, ts := newTestServer(t)
	remote := NewRemote(ts.URL, quiet())
	ctx := context.Background()

	result, err := remote.ReportBlocked(ctx, "https://example.com/logo.png", "image")
	require.NoError(t, err)
	assert.False(t, result.Blocked)
	assert.Zero(t, result.Count)

	result, err = remote.ReportBlocked(ctx, "https://stats.adnxs.com/px.gif", "image")
	require.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.EqualValues(t, 1, result.Count)
}

func TestHealth(t *testing.T) {
	f, _, ts := newTestServer(t)
	f.recs.entries[domain.GenreCrime] = []domain.Movie{{ID: 1}}

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var h Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 1, h.Cache["crime"])
}

func TestInvalidBody(t *testing.T) {
	_, _, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/message", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
