package search

import (
	"testing"

	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var watchlist = []domain.Movie{
	{ID: 1, Title: "The Matrix"},
	{ID: 2, Title: "Mad Max: Fury Road"},
	{ID: 3, Title: "Heat"},
}

func TestFilterEmptyQueryKeepsOrder(t *testing.T) {
	results := Filter("  ", watchlist)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Movie.ID)
	assert.Equal(t, 3, results[2].Movie.ID)
}

func TestFilterFuzzy(t *testing.T) {
	results := Filter("mtrx", watchlist)
	require.Len(t, results, 1)
	assert.Equal(t, "The Matrix", results[0].Movie.Title)
	assert.NotEmpty(t, results[0].MatchedIndexes)

	assert.Empty(t, Filter("zzz", watchlist))
}

func TestMatchGenre(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Genre
	}{
		{"", domain.GenreAction},
		{"horror", domain.GenreHorror},
		{"Sci-Fi", domain.GenreSciFi},
		{"SCIFI", domain.GenreSciFi},
		{"thrill", domain.GenreThriller},
		{"anim", domain.GenreAnimation},
	}
	for _, tt := range tests {
		got, err := MatchGenre(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := MatchGenre("xyzzy")
	assert.ErrorIs(t, err, domain.ErrUnknownGenre)
}
