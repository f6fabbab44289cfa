// Package htmldoc implements the detector's document over a parsed HTML tree.
package htmldoc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/mmcdole/moviemate/internal/detector"
	"github.com/mmcdole/moviemate/internal/widget"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrDetached is returned when an element is no longer part of the document
var ErrDetached = errors.New("element is not attached to the document")

// Element is a comparable handle to an element node
type Element struct {
	n *html.Node
}

// ContentBox returns the element's content size derived from its markup
func (e Element) ContentBox() detector.Box {
	return measure(e.n)
}

// Node exposes the underlying node
func (e Element) Node() *html.Node {
	return e.n
}

// Document is a mutable HTML document safe for concurrent use
type Document struct {
	logger *slog.Logger

	mu        sync.RWMutex
	root      *html.Node
	selectors map[string]cascadia.SelectorGroup

	obsMu     sync.Mutex
	observers map[int]func([]detector.Element)
	nextObs   int
}

// Parse reads an HTML document
func Parse(r io.Reader, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{
		logger:    logger,
		root:      root,
		selectors: make(map[string]cascadia.SelectorGroup),
		observers: make(map[int]func([]detector.Element)),
	}, nil
}

// ParseString is Parse over a string
func ParseString(s string, logger *slog.Logger) (*Document, error) {
	return Parse(strings.NewReader(s), logger)
}

// QueryAll implements detector.Document
func (d *Document) QueryAll(root detector.Element, selectors []string) []detector.Element {
	sel := d.compile(selectors)
	if len(sel) == 0 {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	start := d.root
	if root != nil {
		e, ok := root.(Element)
		if !ok || !d.attached(e.n) {
			return nil
		}
		start = e.n
	}

	var out []detector.Element
	walk(start, func(n *html.Node) {
		if n.Type == html.ElementNode && sel.Match(n) {
			out = append(out, Element{n: n})
		}
	})
	return out
}

// compile parses selectors once per distinct list. Invalid selectors are
// dropped so one typo in config does not disable detection.
func (d *Document) compile(selectors []string) cascadia.SelectorGroup {
	key := strings.Join(selectors, "\x00")

	d.mu.RLock()
	sel, ok := d.selectors[key]
	d.mu.RUnlock()
	if ok {
		return sel
	}

	sel = make(cascadia.SelectorGroup, 0, len(selectors))
	for _, s := range selectors {
		group, err := cascadia.ParseGroup(s)
		if err != nil {
			d.logger.Warn("invalid selector ignored", "selector", s, "error", err)
			continue
		}
		sel = append(sel, group...)
	}

	d.mu.Lock()
	d.selectors[key] = sel
	d.mu.Unlock()
	return sel
}

// Replace implements detector.Document. The widget stylesheet is added to
// the document head the first time a widget is inserted.
func (d *Document) Replace(old detector.Element, w *widget.Node) (detector.Element, error) {
	e, ok := old.(Element)
	if !ok {
		return nil, fmt.Errorf("foreign element %T", old)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.attached(e.n) {
		return nil, ErrDetached
	}

	repl := build(w)
	parent := e.n.Parent
	parent.InsertBefore(repl, e.n)
	parent.RemoveChild(e.n)

	d.ensureStyle()
	return Element{n: repl}, nil
}

// Contains implements detector.Document
func (d *Document) Contains(ancestor, el detector.Element) bool {
	e, ok := el.(Element)
	if !ok {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if ancestor == nil {
		return d.attached(e.n)
	}
	a, ok := ancestor.(Element)
	if !ok {
		return false
	}
	for p := e.n.Parent; p != nil; p = p.Parent {
		if p == a.n {
			return true
		}
	}
	return false
}

// Observe implements detector.Document
func (d *Document) Observe(fn func(added []detector.Element)) (cancel func()) {
	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.obsMu.Unlock()

	return func() {
		d.obsMu.Lock()
		delete(d.observers, id)
		d.obsMu.Unlock()
	}
}

// Insert parses fragment in the context of parent, appends the result and
// notifies observers with the inserted elements.
func (d *Document) Insert(parent Element, fragment string) ([]Element, error) {
	d.mu.Lock()
	if !d.attached(parent.n) {
		d.mu.Unlock()
		return nil, ErrDetached
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent.n)
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	var added []Element
	for _, n := range nodes {
		parent.n.AppendChild(n)
		if n.Type == html.ElementNode {
			added = append(added, Element{n: n})
		}
	}
	d.mu.Unlock()

	// Observers run without the document lock so they can query and replace
	if len(added) > 0 {
		d.notify(added)
	}
	return added, nil
}

func (d *Document) notify(added []Element) {
	elems := make([]detector.Element, len(added))
	for i, e := range added {
		elems[i] = e
	}

	d.obsMu.Lock()
	fns := make([]func([]detector.Element), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.obsMu.Unlock()

	for _, fn := range fns {
		fn(elems)
	}
}

// Body returns the body element
func (d *Document) Body() Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Element{n: findAtom(d.root, atom.Body)}
}

// QuerySelector returns the first element matching selector
func (d *Document) QuerySelector(selector string) (Element, bool) {
	found := d.QueryAll(nil, []string{selector})
	if len(found) == 0 {
		return Element{}, false
	}
	return found[0].(Element), true
}

// Render writes the document as HTML
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// String renders the document, for logs and tests
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// ensureStyle adds the widget stylesheet to head once. Callers hold mu.
func (d *Document) ensureStyle() {
	var exists bool
	walk(d.root, func(n *html.Node) {
		if n.DataAtom == atom.Style && attr(n, "id") == widget.StyleID {
			exists = true
		}
	})
	if exists {
		return
	}

	head := findAtom(d.root, atom.Head)
	if head == nil {
		return
	}
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: widget.StyleID}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: widget.Stylesheet})
	head.AppendChild(style)
}

// attached reports whether n is reachable from the document root. Callers hold mu.
func (d *Document) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func build(w *widget.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     w.Tag,
		DataAtom: atom.Lookup([]byte(w.Tag)),
	}
	for _, a := range w.Attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	if w.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: w.Text})
	}
	for _, c := range w.Children {
		n.AppendChild(build(c))
	}
	return n
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findAtom(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findAtom(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
