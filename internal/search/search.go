// Package search filters the watchlist and resolves loosely typed genre names.
package search

import (
	"strings"

	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/sahilm/fuzzy"
)

// FilterResult is a watchlist entry matching a query
type FilterResult struct {
	Movie          domain.Movie
	MatchedIndexes []int // rune positions in Movie.Title, for highlighting
	Score          int   // higher = better
}

// movieSource adapts a movie slice to fuzzy.Source
type movieSource []domain.Movie

func (s movieSource) String(i int) string { return s[i].Title }
func (s movieSource) Len() int            { return len(s) }

// Filter returns movies whose titles fuzzy-match query, best first.
// An empty query returns every movie in its original order.
func Filter(query string, movies []domain.Movie) []FilterResult {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]FilterResult, len(movies))
		for i, m := range movies {
			out[i] = FilterResult{Movie: m}
		}
		return out
	}

	matches := fuzzy.FindFrom(query, movieSource(movies))
	out := make([]FilterResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, FilterResult{
			Movie:          movies[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}
	return out
}
