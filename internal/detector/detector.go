// Package detector finds ad-like elements in a document and swaps them for
// recommendation widgets.
package detector

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/metrics"
	"github.com/mmcdole/moviemate/internal/widget"
	"github.com/sourcegraph/conc/pool"
)

// Recommender supplies the movie shown in a replacement widget
type Recommender interface {
	GetRecommendation(ctx context.Context, category string) (*domain.Movie, error)
}

// WidgetMovie renders recommendations; the message kinds render static text
const WidgetMovie = "movie"

// Options configures detection
type Options struct {
	Selectors     []string
	MinWidth      float64
	MinHeight     float64
	Category      string // empty lets the background pick its default
	Concurrency   int
	Widget        string // WidgetMovie or a widget.MessageKind
	CustomMessage string
}

type state int

const (
	stateEvaluated state = iota + 1 // claimed by a pass, decision pending
	stateSkipped
	stateReplaced
)

// Result summarizes one pass
type Result struct {
	Candidates int
	Replaced   int
	Skipped    int
}

// Detector tracks per-element state across scans of one document
type Detector struct {
	doc    Document
	rec    Recommender
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	state map[Element]state

	replaceMu sync.Mutex // serializes document mutation
}

// New creates a Detector over doc
func New(doc Document, rec Recommender, opts Options, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MinWidth <= 0 {
		opts.MinWidth = 100
	}
	if opts.MinHeight <= 0 {
		opts.MinHeight = 100
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Widget == "" {
		opts.Widget = WidgetMovie
	}
	return &Detector{
		doc:    doc,
		rec:    rec,
		opts:   opts,
		logger: logger,
		state:  make(map[Element]state),
	}
}

// Scan evaluates every matching element in the document
func (d *Detector) Scan(ctx context.Context) Result {
	return d.process(ctx, d.doc.QueryAll(nil, d.opts.Selectors))
}

// OnAdBlocked rescans after the background reports a blocked request
func (d *Detector) OnAdBlocked(ctx context.Context, count int64) Result {
	d.logger.Debug("ad blocked, rescanning", "count", count)
	return d.Scan(ctx)
}

// Watch evaluates elements added to the document until ctx is done or the
// returned func is called. onPass, when set, receives each pass's result.
func (d *Detector) Watch(ctx context.Context, onPass func(Result)) (stop func()) {
	cancel := d.doc.Observe(func(added []Element) {
		if ctx.Err() != nil {
			return
		}
		var candidates []Element
		for _, root := range added {
			candidates = append(candidates, d.doc.QueryAll(root, d.opts.Selectors)...)
		}
		if len(candidates) > 0 {
			res := d.process(ctx, candidates)
			if onPass != nil {
				onPass(res)
			}
		}
	})

	var once sync.Once
	stop = func() { once.Do(cancel) }
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop
}

// process runs one pass over candidates with bounded concurrency. Nested
// candidates are evaluated after the candidates that contain them.
func (d *Detector) process(ctx context.Context, candidates []Element) Result {
	var replaced, skipped atomic.Int64

	for wave := dedupe(candidates); len(wave) > 0; {
		outer, nested := d.splitNested(wave)
		p := pool.New().WithMaxGoroutines(d.opts.Concurrency)
		for _, el := range outer {
			p.Go(func() {
				switch d.evaluate(ctx, el) {
				case stateReplaced:
					replaced.Add(1)
				case stateSkipped:
					skipped.Add(1)
				}
			})
		}
		p.Wait()
		wave = nested
	}

	res := Result{
		Candidates: len(candidates),
		Replaced:   int(replaced.Load()),
		Skipped:    int(skipped.Load()),
	}
	if res.Replaced > 0 {
		d.logger.Info("ads replaced", "replaced", res.Replaced, "skipped", res.Skipped, "candidates", res.Candidates)
	}
	return res
}

// evaluate moves el through the state machine. It returns the terminal state
// reached by this call, or 0 when another pass owns or finished el.
func (d *Detector) evaluate(ctx context.Context, el Element) state {
	if !d.doc.Contains(nil, el) {
		return 0
	}
	if !d.claim(el) {
		return 0
	}

	box := el.ContentBox()
	if box.Width < d.opts.MinWidth || box.Height < d.opts.MinHeight {
		d.logger.Debug("ad too small, skipping", "width", box.Width, "height", box.Height)
		return d.set(el, stateSkipped)
	}

	node, ok := d.render(ctx)
	if !ok {
		return d.set(el, stateSkipped)
	}

	d.replaceMu.Lock()
	replacement, err := d.doc.Replace(el, node)
	d.replaceMu.Unlock()
	if err != nil {
		d.logger.Debug("failed to replace ad", "error", err)
		return d.set(el, stateSkipped)
	}

	metrics.AdsReplaced.Inc()
	d.mu.Lock()
	d.state[el] = stateReplaced
	d.state[replacement] = stateReplaced
	d.mu.Unlock()
	return stateReplaced
}

func (d *Detector) render(ctx context.Context) (*widget.Node, bool) {
	if widget.IsMessageKind(d.opts.Widget) {
		return widget.RenderMessage(widget.MessageKind(d.opts.Widget), d.opts.CustomMessage), true
	}

	movie, err := d.rec.GetRecommendation(ctx, d.opts.Category)
	if err != nil {
		d.logger.Warn("failed to get recommendation", "error", err)
		return nil, false
	}
	if movie == nil {
		d.logger.Debug("no recommendation received, not replacing ad")
		return nil, false
	}
	return widget.Render(*movie), true
}

// claim marks el evaluated unless it is in flight or already replaced
func (d *Detector) claim(el Element) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state[el] {
	case stateEvaluated, stateReplaced:
		return false
	}
	d.state[el] = stateEvaluated
	return true
}

func (d *Detector) set(el Element, s state) state {
	d.mu.Lock()
	d.state[el] = s
	d.mu.Unlock()
	return s
}

// IsReplaced reports whether el is a replaced ad or a widget put in its place
func (d *Detector) IsReplaced(el Element) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state[el] == stateReplaced
}

// splitNested separates elements with no ancestor among elems from those
// nested inside another one
func (d *Detector) splitNested(elems []Element) (outer, nested []Element) {
	for _, el := range elems {
		inside := false
		for _, other := range elems {
			if other != el && d.doc.Contains(other, el) {
				inside = true
				break
			}
		}
		if inside {
			nested = append(nested, el)
		} else {
			outer = append(outer, el)
		}
	}
	return outer, nested
}

func dedupe(elems []Element) []Element {
	seen := make(map[Element]struct{}, len(elems))
	out := elems[:0:0]
	for _, el := range elems {
		if _, ok := seen[el]; ok {
			continue
		}
		seen[el] = struct{}{}
		out = append(out, el)
	}
	return out
}
