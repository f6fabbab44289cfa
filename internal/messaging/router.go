package messaging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/metrics"
)

// Recommendations is the cache view the router needs
type Recommendations interface {
	Get(ctx context.Context, genre domain.Genre) (*domain.Movie, bool)
	Has(genre domain.Genre) bool
}

// BlockCounter reports the blocked-request total
type BlockCounter interface {
	Count() int64
}

// Router dispatches requests to the background state
type Router struct {
	recs      Recommendations
	watchlist domain.WatchlistCommands
	blocked   BlockCounter
	logger    *slog.Logger
}

// NewRouter creates a Router
func NewRouter(recs Recommendations, watchlist domain.WatchlistCommands, blocked BlockCounter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		recs:      recs,
		watchlist: watchlist,
		blocked:   blocked,
		logger:    logger,
	}
}

// Dispatch handles req and calls reply exactly once. Requests answerable
// from memory reply before Dispatch returns false; the rest reply later from
// a goroutine and Dispatch returns true.
func (r *Router) Dispatch(ctx context.Context, req Request, reply func(Response, error)) (async bool) {
	r.logger.Debug("received message", "type", req.Type)

	switch req.Type {
	case GetBlockedCount:
		return r.sync(req, reply, countResponse(r.blocked.Count()))

	case GetRecommendation:
		genre, err := domain.ParseGenre(req.Category)
		if err != nil {
			// Unknown category: nothing to recommend
			return r.sync(req, reply, countResponse(r.blocked.Count()))
		}
		if r.recs.Has(genre) {
			return r.sync(req, reply, r.recommend(ctx, genre))
		}
		return r.async(req, reply, func() Response {
			return r.recommend(ctx, genre)
		})

	case AddToWatchlist:
		if req.Movie == nil {
			return r.sync(req, reply, failureResponse(msgMissingMovie))
		}
		movie := *req.Movie
		return r.async(req, reply, func() Response {
			return r.outcome(r.watchlist.Add(ctx, movie))
		})

	case RemoveFromWatchlist:
		return r.async(req, reply, func() Response {
			return r.outcome(r.watchlist.Remove(ctx, req.MovieID))
		})

	case GetWatchlist:
		return r.async(req, reply, func() Response {
			movies, err := r.watchlist.List(ctx)
			if err != nil {
				return failureResponse(err.Error())
			}
			resp := successResponse()
			resp.Watchlist = movies
			return resp
		})

	case ClearWatchlist:
		return r.async(req, reply, func() Response {
			return r.outcome(r.watchlist.Clear(ctx))
		})

	default:
		metrics.MessagesHandled.WithLabelValues(string(req.Type), "error").Inc()
		r.logger.Warn("unknown message type", "type", req.Type)
		reply(Response{}, domain.ErrUnknownRequest)
		return false
	}
}

// Send dispatches req and waits for the reply
func (r *Router) Send(ctx context.Context, req Request) (Response, error) {
	type result struct {
		resp Response
		err  error
	}
	ch := make(chan result, 1)
	r.Dispatch(ctx, req, func(resp Response, err error) {
		ch <- result{resp, err}
	})

	select {
	case res := <-ch:
		return res.resp, res.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (r *Router) sync(req Request, reply func(Response, error), resp Response) bool {
	metrics.MessagesHandled.WithLabelValues(string(req.Type), "sync").Inc()
	reply(resp, nil)
	return false
}

func (r *Router) async(req Request, reply func(Response, error), fn func() Response) bool {
	metrics.MessagesHandled.WithLabelValues(string(req.Type), "async").Inc()
	go func() {
		reply(fn(), nil)
	}()
	return true
}

func (r *Router) recommend(ctx context.Context, genre domain.Genre) Response {
	resp := countResponse(r.blocked.Count())
	if movie, ok := r.recs.Get(ctx, genre); ok {
		resp.Recommendation = movie
	}
	return resp
}

// outcome maps a watchlist result onto the wire
func (r *Router) outcome(err error) Response {
	switch {
	case err == nil:
		return successResponse()
	case errors.Is(err, domain.ErrDuplicateMovie):
		return failureResponse(msgDuplicate)
	case errors.Is(err, domain.ErrMovieNotFound):
		return failureResponse(msgNotFound)
	default:
		r.logger.Error("watchlist operation failed", "error", err)
		return failureResponse(err.Error())
	}
}
