package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviemate/internal/adblock"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/messaging"
	"github.com/mmcdole/moviemate/internal/store"
	"github.com/mmcdole/moviemate/internal/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecs map[domain.Genre]domain.Movie

func (s stubRecs) Has(g domain.Genre) bool {
	_, ok := s[g]
	return ok
}

func (s stubRecs) Get(_ context.Context, g domain.Genre) (*domain.Movie, bool) {
	m, ok := s[g]
	if !ok {
		return nil, false
	}
	return &m, true
}

type recordingOpener struct {
	links []string
	err   error
}

func (o *recordingOpener) Open(link string) error {
	o.links = append(o.links, link)
	return o.err
}

var (
	heat  = domain.Movie{ID: 949, Title: "Heat", Year: 1995, Rating: "R", TrailerKey: "abc"}
	alien = domain.Movie{ID: 348, Title: "Alien", Year: 1979, Rating: "R"}
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModel(t *testing.T, recs stubRecs) (Model, *recordingOpener) {
	t.Helper()
	s, err := store.New("")
	require.NoError(t, err)

	blocker := adblock.NewBlocker(adblock.NewRules(nil, nil), nil, quiet())
	router := messaging.NewRouter(recs, watchlist.NewService(s, quiet()), blocker, quiet())
	opener := &recordingOpener{}

	m := NewModel(messaging.NewClient(router), opener, nil, domain.GenreAction, quiet())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), opener
}

// step runs msg through Update and feeds the resulting command's message
// back in, for commands that produce a single message.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m, nil
	}
	out := cmd()
	next, _ = m.Update(out)
	return next.(Model), out
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestRecommendationFlow(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{domain.GenreAction: heat})

	m, out := step(t, m, GetRecommendationCmd(m.Client, m.Genre())())
	assert.Nil(t, out, "recommendation updates state without a follow-up")
	require.NotNil(t, m.Current)
	assert.Equal(t, "Heat", m.Current.Title)
	assert.False(t, m.Loading)
	assert.Contains(t, m.View(), "Heat")
}

func TestStaleRecommendationIgnored(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{domain.GenreAction: heat})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(Model)
	assert.Equal(t, domain.GenreComedy, m.Genre())

	next, _ = m.Update(RecommendationMsg{Genre: domain.GenreAction, Movie: &heat})
	m = next.(Model)
	assert.Nil(t, m.Current)
	assert.True(t, m.Loading)
}

func TestGenreWraps(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(Model)
	assert.Equal(t, domain.Genres[len(domain.Genres)-1], m.Genre())
}

func TestEmptyRecommendationShowsStatus(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})

	next, _ := m.Update(RecommendationMsg{Genre: domain.GenreAction})
	m = next.(Model)
	assert.Nil(t, m.Current)
	assert.Contains(t, m.StatusMsg, "No Action picks")
}

func TestAddThenDuplicate(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{domain.GenreAction: heat})
	m, _ = step(t, m, GetRecommendationCmd(m.Client, m.Genre())())

	m, out := step(t, m, keyRune('a'))
	require.IsType(t, WatchlistChangedMsg{}, out)
	assert.Contains(t, m.StatusMsg, "Added Heat")

	m, _ = step(t, m, LoadWatchlistCmd(m.Client)())
	require.Len(t, m.Watchlist, 1)

	m, out = step(t, m, keyRune('a'))
	errMsg, ok := out.(ErrMsg)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.Err, domain.ErrDuplicateMovie)
	assert.True(t, m.StatusIsErr)
}

func TestRemoveSelected(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})
	ctx := context.Background()
	require.NoError(t, m.Client.AddToWatchlist(ctx, heat))
	require.NoError(t, m.Client.AddToWatchlist(ctx, alien))
	m, _ = step(t, m, LoadWatchlistCmd(m.Client)())

	m.Tab = TabWatchlist
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.Cursor)

	m, out := step(t, m, keyRune('d'))
	require.IsType(t, WatchlistChangedMsg{}, out)

	m, _ = step(t, m, LoadWatchlistCmd(m.Client)())
	require.Len(t, m.Watchlist, 1)
	assert.Equal(t, "Heat", m.Watchlist[0].Title)
	assert.Equal(t, 0, m.Cursor, "cursor clamped after removal")
}

func TestFilterNarrowsWatchlist(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})
	next, _ := m.Update(WatchlistLoadedMsg{Movies: []domain.Movie{heat, alien}})
	m = next.(Model)
	require.Len(t, m.Filtered, 2)

	next, _ = m.Update(keyRune('/'))
	m = next.(Model)
	assert.Equal(t, StateFiltering, m.State)
	assert.Equal(t, TabWatchlist, m.Tab)

	for _, r := range "aln" {
		next, _ = m.Update(keyRune(r))
		m = next.(Model)
	}
	require.Len(t, m.Filtered, 1)
	assert.Equal(t, "Alien", m.Filtered[0].Movie.Title)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Equal(t, StateBrowsing, m.State)
	assert.Len(t, m.Filtered, 2)
}

func TestClearNeedsConfirmation(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})
	require.NoError(t, m.Client.AddToWatchlist(context.Background(), heat))
	m, _ = step(t, m, LoadWatchlistCmd(m.Client)())

	next, cmd := m.Update(keyRune('C'))
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, StateConfirmClear, m.State)

	next, _ = m.Update(keyRune('n'))
	m = next.(Model)
	assert.Equal(t, StateBrowsing, m.State)

	m, _ = step(t, m, keyRune('C'))
	m, out := step(t, m, keyRune('y'))
	require.IsType(t, WatchlistChangedMsg{}, out)

	m, _ = step(t, m, LoadWatchlistCmd(m.Client)())
	assert.Empty(t, m.Watchlist)
}

func TestOpenPrefersTrailer(t *testing.T) {
	m, opener := newTestModel(t, stubRecs{domain.GenreAction: heat})
	m, _ = step(t, m, GetRecommendationCmd(m.Client, m.Genre())())

	_, out := step(t, m, keyRune('o'))
	require.IsType(t, LinkOpenedMsg{}, out)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc"}, opener.links)
}

func TestOpenFailureIsReported(t *testing.T) {
	m, opener := newTestModel(t, stubRecs{domain.GenreAction: alien})
	opener.err = errors.New("no browser")
	m, _ = step(t, m, GetRecommendationCmd(m.Client, m.Genre())())

	m, _ = step(t, m, keyRune('o'))
	assert.True(t, m.StatusIsErr)
	assert.Equal(t, []string{alien.PageURL()}, opener.links)
}

func TestPushesRaiseBlockedCount(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})
	obs := NewPushObserver()
	m.pushes = obs.Pushes()

	obs.OnPush(messaging.Push{Type: messaging.AdBlocked, Count: 7})
	obs.OnPush(messaging.Push{Type: messaging.GetWatchlist, Count: 99})

	next, cmd := m.Update(WaitForPushCmd(m.pushes)())
	m = next.(Model)
	assert.NotNil(t, cmd, "keeps listening")
	assert.EqualValues(t, 7, m.Blocked)
	assert.Contains(t, m.View(), "7")

	// A late startup read never lowers the count
	next, _ = m.Update(BlockedCountMsg{Count: 3})
	assert.EqualValues(t, 7, next.(Model).Blocked)
}

func TestHelpListsBindings(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})

	next, _ := m.Update(keyRune('?'))
	m = next.(Model)
	require.Equal(t, StateHelp, m.State)

	view := m.View()
	for _, b := range []string{Keys.Add.Help().Desc, Keys.Clear.Help().Desc, Keys.New.Help().Desc, Keys.Quit.Help().Desc} {
		assert.Contains(t, view, b)
	}

	next, _ = m.Update(keyRune('x'))
	assert.Equal(t, StateBrowsing, next.(Model).State)
}

func TestFooterFitsWidth(t *testing.T) {
	m, _ := newTestModel(t, stubRecs{})
	m.Blocked = 12

	footer := m.renderFooter()
	assert.Contains(t, footer, "12")
	assert.Contains(t, footer, "ads blocked")
	assert.Equal(t, m.Width, lipgloss.Width(footer))
}
