package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrDuplicateMovie indicates the movie is already in the watchlist
	ErrDuplicateMovie = errors.New("movie already in watchlist")

	// ErrMovieNotFound indicates the movie is not in the watchlist
	ErrMovieNotFound = errors.New("movie not found in watchlist")

	// ErrUnknownGenre indicates a category outside the fixed genre set
	ErrUnknownGenre = errors.New("unknown genre")

	// ErrNoRecommendation indicates the cache has nothing to offer for a genre
	ErrNoRecommendation = errors.New("no recommendation available")

	// ErrUnknownRequest indicates a message type the router does not handle
	ErrUnknownRequest = errors.New("unknown request type")

	// ErrAPIUnavailable indicates the movie API is unreachable
	ErrAPIUnavailable = errors.New("movie API is unreachable")

	// ErrAuthFailed indicates the movie API rejected the credential
	ErrAuthFailed = errors.New("movie API key is invalid")
)
