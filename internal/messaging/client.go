package messaging

import (
	"context"
	"errors"

	"github.com/mmcdole/moviemate/internal/domain"
)

// Sender delivers a request and returns its reply. *Router and *Remote implement it.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Client offers typed helpers over a Sender
type Client struct {
	sender Sender
}

// NewClient wraps sender
func NewClient(sender Sender) *Client {
	return &Client{sender: sender}
}

// GetRecommendation returns a movie for category ("" for the default), or
// nil when none is available.
func (c *Client) GetRecommendation(ctx context.Context, category string) (*domain.Movie, error) {
	resp, err := c.sender.Send(ctx, Request{Type: GetRecommendation, Category: category})
	if err != nil {
		return nil, err
	}
	return resp.Recommendation, nil
}

// BlockedCount returns the blocked-request total
func (c *Client) BlockedCount(ctx context.Context) (int64, error) {
	resp, err := c.sender.Send(ctx, Request{Type: GetBlockedCount})
	if err != nil {
		return 0, err
	}
	return resp.BlockedCount(), nil
}

// AddToWatchlist adds movie, mapping a failure outcome to an error
func (c *Client) AddToWatchlist(ctx context.Context, movie domain.Movie) error {
	resp, err := c.sender.Send(ctx, Request{Type: AddToWatchlist, Movie: &movie})
	if err != nil {
		return err
	}
	return outcomeError(resp)
}

// RemoveFromWatchlist removes the movie with id
func (c *Client) RemoveFromWatchlist(ctx context.Context, id int) error {
	resp, err := c.sender.Send(ctx, Request{Type: RemoveFromWatchlist, MovieID: id})
	if err != nil {
		return err
	}
	return outcomeError(resp)
}

// Watchlist returns the persisted watchlist
func (c *Client) Watchlist(ctx context.Context) ([]domain.Movie, error) {
	resp, err := c.sender.Send(ctx, Request{Type: GetWatchlist})
	if err != nil {
		return nil, err
	}
	if err := outcomeError(resp); err != nil {
		return nil, err
	}
	if resp.Watchlist == nil {
		return []domain.Movie{}, nil
	}
	return resp.Watchlist, nil
}

// ClearWatchlist empties the watchlist
func (c *Client) ClearWatchlist(ctx context.Context) error {
	resp, err := c.sender.Send(ctx, Request{Type: ClearWatchlist})
	if err != nil {
		return err
	}
	return outcomeError(resp)
}

// outcomeError restores the domain sentinel for known failure messages
func outcomeError(resp Response) error {
	if resp.OK() {
		return nil
	}
	switch resp.Message {
	case msgDuplicate:
		return domain.ErrDuplicateMovie
	case msgNotFound:
		return domain.ErrMovieNotFound
	case "":
		return errors.New("request failed")
	default:
		return errors.New(resp.Message)
	}
}
