package domain

import "strings"

// Genre is a recommendation category. The set is fixed.
type Genre string

const (
	GenreAction    Genre = "action"
	GenreComedy    Genre = "comedy"
	GenreDrama     Genre = "drama"
	GenreSciFi     Genre = "scifi"
	GenreHorror    Genre = "horror"
	GenreRomance   Genre = "romance"
	GenreThriller  Genre = "thriller"
	GenreFantasy   Genre = "fantasy"
	GenreMystery   Genre = "mystery"
	GenreAnimation Genre = "animation"
	GenreAdventure Genre = "adventure"
	GenreCrime     Genre = "crime"
)

// DefaultGenre is used when a request names no category.
const DefaultGenre = GenreAction

// Genres lists every genre in display order.
var Genres = []Genre{
	GenreAction,
	GenreComedy,
	GenreDrama,
	GenreSciFi,
	GenreHorror,
	GenreRomance,
	GenreThriller,
	GenreFantasy,
	GenreMystery,
	GenreAnimation,
	GenreAdventure,
	GenreCrime,
}

// tmdbGenreIDs maps genres to TMDB's numeric genre ids
var tmdbGenreIDs = map[Genre]int{
	GenreAction:    28,
	GenreComedy:    35,
	GenreDrama:     18,
	GenreSciFi:     878,
	GenreHorror:    27,
	GenreRomance:   10749,
	GenreThriller:  53,
	GenreFantasy:   14,
	GenreMystery:   9648,
	GenreAnimation: 16,
	GenreAdventure: 12,
	GenreCrime:     80,
}

var genreNames = map[Genre]string{
	GenreAction:    "Action",
	GenreComedy:    "Comedy",
	GenreDrama:     "Drama",
	GenreSciFi:     "Sci-Fi",
	GenreHorror:    "Horror",
	GenreRomance:   "Romance",
	GenreThriller:  "Thriller",
	GenreFantasy:   "Fantasy",
	GenreMystery:   "Mystery",
	GenreAnimation: "Animation",
	GenreAdventure: "Adventure",
	GenreCrime:     "Crime",
}

// TMDBID returns the TMDB genre id and whether the genre is known.
func (g Genre) TMDBID() (int, bool) {
	id, ok := tmdbGenreIDs[g]
	return id, ok
}

// Valid reports whether g belongs to the fixed genre set.
func (g Genre) Valid() bool {
	_, ok := tmdbGenreIDs[g]
	return ok
}

// DisplayName returns the human label ("Sci-Fi" for scifi).
func (g Genre) DisplayName() string {
	if name, ok := genreNames[g]; ok {
		return name
	}
	return string(g)
}

// ParseGenre validates a genre key. An empty string yields DefaultGenre.
func ParseGenre(s string) (Genre, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultGenre, nil
	}
	g := Genre(s)
	if !g.Valid() {
		return "", ErrUnknownGenre
	}
	return g, nil
}
