package tmdb

// DiscoverResponse is the /discover/movie envelope
type DiscoverResponse struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieResult is one entry of a discovery listing
type MovieResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Adult       bool    `json:"adult"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

// ReviewsResponse is the /movie/{id}/reviews envelope
type ReviewsResponse struct {
	ID      int            `json:"id"`
	Page    int            `json:"page"`
	Results []ReviewResult `json:"results"`
}

// ReviewResult is a single user review
type ReviewResult struct {
	ID            string        `json:"id"`
	Author        string        `json:"author"`
	AuthorDetails AuthorDetails `json:"author_details"`
	Content       string        `json:"content"`
	CreatedAt     string        `json:"created_at"`
	URL           string        `json:"url"`
}

// AuthorDetails carries the reviewer's own score, when given
type AuthorDetails struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Rating   *float64 `json:"rating"`
}

// VideosResponse is the /movie/{id}/videos envelope
type VideosResponse struct {
	ID      int           `json:"id"`
	Results []VideoResult `json:"results"`
}

// VideoResult describes a hosted video (trailer, teaser, clip...)
type VideoResult struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// ErrorResponse is TMDB's error body
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
