package tmdb

import (
	"strings"
	"time"

	"github.com/mmcdole/moviemate/internal/domain"
)

// MapMovies converts discovery results to domain movies in listing order.
// Entries without a title or poster cannot be shown in a widget and are dropped.
func MapMovies(results []MovieResult, imageBaseURL string, strategy domain.RatingStrategy) []domain.Movie {
	movies := make([]domain.Movie, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Title) == "" || r.PosterPath == "" {
			continue
		}
		movies = append(movies, mapMovie(r, imageBaseURL, strategy))
	}
	return movies
}

func mapMovie(r MovieResult, imageBaseURL string, strategy domain.RatingStrategy) domain.Movie {
	return domain.Movie{
		ID:          r.ID,
		Title:       r.Title,
		Year:        parseYear(r.ReleaseDate),
		Rating:      strategy.Rate(r.Adult, r.VoteAverage),
		ImageURL:    strings.TrimSuffix(imageBaseURL, "/") + "/" + strings.TrimPrefix(r.PosterPath, "/"),
		Description: r.Overview,
		VoteAverage: r.VoteAverage,
		Popularity:  r.Popularity,
	}
}

// parseYear extracts the year from a YYYY-MM-DD date, or 0 when absent/invalid
func parseYear(date string) int {
	if date == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// MapReviews converts up to limit reviews. limit <= 0 keeps all.
func MapReviews(results []ReviewResult, limit int) []domain.Review {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	reviews := make([]domain.Review, 0, len(results))
	for _, r := range results {
		created, _ := time.Parse(time.RFC3339, r.CreatedAt)
		reviews = append(reviews, domain.Review{
			Author:       r.Author,
			AuthorRating: r.AuthorDetails.Rating,
			Content:      r.Content,
			CreatedAt:    created,
		})
	}
	return reviews
}

// PickTrailer returns the YouTube key of the best trailer, or "".
// Official trailers win over fan uploads; otherwise listing order decides.
func PickTrailer(videos []VideoResult) string {
	var fallback string
	for _, v := range videos {
		if v.Site != "YouTube" || v.Type != "Trailer" || v.Key == "" {
			continue
		}
		if v.Official {
			return v.Key
		}
		if fallback == "" {
			fallback = v.Key
		}
	}
	return fallback
}
