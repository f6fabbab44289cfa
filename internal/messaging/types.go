// Package messaging routes typed requests between the detector, the popup
// and the background state, and carries push notifications.
package messaging

import "github.com/mmcdole/moviemate/internal/domain"

// RequestType names a request or push message
type RequestType string

const (
	GetBlockedCount     RequestType = "GET_BLOCKED_COUNT"
	GetRecommendation   RequestType = "GET_RECOMMENDATION"
	AddToWatchlist      RequestType = "ADD_TO_WATCHLIST"
	RemoveFromWatchlist RequestType = "REMOVE_FROM_WATCHLIST"
	GetWatchlist        RequestType = "GET_WATCHLIST"
	ClearWatchlist      RequestType = "CLEAR_WATCHLIST"

	// AdBlocked is pushed from the background to content and popup
	AdBlocked RequestType = "AD_BLOCKED"
)

// Request is a message sent to the background
type Request struct {
	Type     RequestType   `json:"type"`
	Category string        `json:"category,omitempty"`
	Movie    *domain.Movie `json:"movie,omitempty"`
	MovieID  int           `json:"movieId,omitempty"`
}

// Response carries the fields relevant to the request type; the rest are omitted
type Response struct {
	Count          *int64         `json:"count,omitempty"`
	Recommendation *domain.Movie  `json:"recommendation,omitempty"`
	Success        *bool          `json:"success,omitempty"`
	Message        string         `json:"message,omitempty"`
	Watchlist      []domain.Movie `json:"watchlist,omitempty"`
}

// Push is a notification sent from the background to subscribers
type Push struct {
	Type  RequestType `json:"type"`
	Count int64       `json:"count"`
}

// BlockedCount returns the count, or 0 when absent
func (r Response) BlockedCount() int64 {
	if r.Count == nil {
		return 0
	}
	return *r.Count
}

// OK reports whether a watchlist mutation succeeded
func (r Response) OK() bool {
	return r.Success != nil && *r.Success
}

// Outcome messages surfaced to callers
const (
	msgDuplicate    = "Movie already in watchlist"
	msgNotFound     = "Movie not found in watchlist"
	msgMissingMovie = "Movie is required"
)

func countResponse(n int64) Response {
	return Response{Count: &n}
}

func successResponse() Response {
	ok := true
	return Response{Success: &ok}
}

func failureResponse(msg string) Response {
	ok := false
	return Response{Success: &ok, Message: msg}
}
