package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Movie is the normalized recommendation record used throughout the app.
// Records are immutable once fetched; the cache replaces whole batches instead
// of editing entries in place.
type Movie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Rating      string   `json:"rating"` // "R"/"PG-13" or a vote average like "7.4"
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
	Runtime     string   `json:"runtime,omitempty"`
	Reviews     []Review `json:"reviews,omitempty"`
	TrailerKey  string   `json:"trailerKey,omitempty"` // YouTube video key

	// Score fields from the discovery listing
	VoteAverage float64 `json:"voteAverage,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
}

// Review is a user review sourced verbatim from the movie API.
type Review struct {
	Author       string    `json:"author"`
	AuthorRating *float64  `json:"authorRating,omitempty"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasTrailer reports whether a trailer key was resolved during enrichment.
func (m Movie) HasTrailer() bool {
	return m.TrailerKey != ""
}

// TrailerURL returns the YouTube watch URL, or "" without a trailer.
func (m Movie) TrailerURL() string {
	if m.TrailerKey == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + m.TrailerKey
}

// PageURL returns the public TMDB page for the movie.
func (m Movie) PageURL() string {
	return "https://www.themoviedb.org/movie/" + strconv.Itoa(m.ID)
}

// LinkURL prefers the trailer and falls back to the TMDB page.
func (m Movie) LinkURL() string {
	if u := m.TrailerURL(); u != "" {
		return u
	}
	return m.PageURL()
}

// YearLabel returns the year for display, or "—" when unknown.
func (m Movie) YearLabel() string {
	if m.Year <= 0 {
		return "—"
	}
	return strconv.Itoa(m.Year)
}

// String implements fmt.Stringer for log lines and plain output.
func (m Movie) String() string {
	return fmt.Sprintf("%s (%s) [%s]", m.Title, m.YearLabel(), m.Rating)
}

// FormattedAuthorRating returns "8/10" style text, or "" when the author gave none.
func (r Review) FormattedAuthorRating() string {
	if r.AuthorRating == nil {
		return ""
	}
	return strconv.FormatFloat(*r.AuthorRating, 'f', -1, 64) + "/10"
}
