package domain

import (
	"fmt"
	"strconv"
)

// RatingStrategy selects how a movie's Rating field is derived.
// Two variants exist in the wild and both are kept selectable.
type RatingStrategy string

const (
	// RatingContent maps the API's adult flag to "R", everything else to "PG-13".
	RatingContent RatingStrategy = "content"

	// RatingVote uses the API's vote average with one decimal.
	RatingVote RatingStrategy = "vote"
)

// ParseRatingStrategy validates a configured strategy name. Empty means RatingContent.
func ParseRatingStrategy(s string) (RatingStrategy, error) {
	switch RatingStrategy(s) {
	case "", RatingContent:
		return RatingContent, nil
	case RatingVote:
		return RatingVote, nil
	default:
		return "", fmt.Errorf("unknown rating strategy %q", s)
	}
}

// Rate derives the display rating for one movie.
func (s RatingStrategy) Rate(adult bool, voteAverage float64) string {
	if s == RatingVote {
		return strconv.FormatFloat(voteAverage, 'f', 1, 64)
	}
	if adult {
		return "R"
	}
	return "PG-13"
}
