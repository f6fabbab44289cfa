package watchlist_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/store"
	"github.com/mmcdole/moviemate/internal/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	movies  []domain.Movie
	saveErr error
	saves   int
}

func (f *failingStore) GetWatchlist() ([]domain.Movie, error) {
	return append([]domain.Movie(nil), f.movies...), nil
}

func (f *failingStore) SaveWatchlist(movies []domain.Movie) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.movies = movies
	return nil
}

func (f *failingStore) Close() error { return nil }

func newService(t *testing.T) *watchlist.Service {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return watchlist.NewService(s, nil)
}

func TestAddIsIdempotentOnID(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	movie := domain.Movie{ID: 42, Title: "Heat"}
	require.NoError(t, svc.Add(ctx, movie))

	err := svc.Add(ctx, domain.Movie{ID: 42, Title: "Heat (again)"})
	assert.ErrorIs(t, err, domain.ErrDuplicateMovie)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Heat", list[0].Title)
}

func TestDuplicateDoesNotWrite(t *testing.T) {
	fs := &failingStore{movies: []domain.Movie{{ID: 1}}}
	svc := watchlist.NewService(fs, nil)

	err := svc.Add(context.Background(), domain.Movie{ID: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateMovie)
	assert.Zero(t, fs.saves)
}

func TestRemoveMissingLeavesListUnchanged(t *testing.T) {
	fs := &failingStore{movies: []domain.Movie{{ID: 1}, {ID: 2}}}
	svc := watchlist.NewService(fs, nil)

	err := svc.Remove(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrMovieNotFound)
	assert.Zero(t, fs.saves, "no write when nothing was removed")
	assert.Len(t, fs.movies, 2)
}

func TestRemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	for _, id := range []int{1, 2, 3} {
		require.NoError(t, svc.Add(ctx, domain.Movie{ID: id}))
	}
	require.NoError(t, svc.Remove(ctx, 2))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 3, list[1].ID)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.Add(ctx, domain.Movie{ID: 5}))
	require.NoError(t, svc.Clear(ctx))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStorageFailureIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	fs := &failingStore{saveErr: boom}
	svc := watchlist.NewService(fs, nil)

	err := svc.Add(context.Background(), domain.Movie{ID: 9})
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, svc.Add(ctx, domain.Movie{ID: id}))
		}(i)
	}
	wg.Wait()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newService(t)
	assert.ErrorIs(t, svc.Add(ctx, domain.Movie{ID: 1}), context.Canceled)
}
