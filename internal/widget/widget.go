// Package widget builds the recommendation markup that replaces ad elements.
package widget

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mmcdole/moviemate/internal/domain"
)

// Class names used by the rendered markup and Stylesheet
const (
	ClassRecommendation = "movie-mate-recommendation"
	ClassMessage        = "adfriend-widget"
	StyleID             = "movie-mate-styles"
)

// Attr is one attribute; order is preserved when rendered
type Attr struct {
	Key, Val string
}

// Node is a document-independent element tree. Text is rendered escaped.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// Attr returns the value of key, or "" when absent
func (n *Node) Attr(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether class is in the node's class list
func (n *Node) HasClass(class string) bool {
	return slices.Contains(strings.Fields(n.Attr("class")), class)
}

// Find returns the first node (depth-first, n included) carrying class
func (n *Node) Find(class string) *Node {
	if n.HasClass(class) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(class); found != nil {
			return found
		}
	}
	return nil
}

// TextContent concatenates the text of n and its descendants
func (n *Node) TextContent() string {
	var b strings.Builder
	n.walk(func(x *Node) { b.WriteString(x.Text) })
	return b.String()
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func el(tag string, attrs []Attr, children ...*Node) *Node {
	return &Node{Tag: tag, Attrs: attrs, Children: children}
}

func text(tag, class, s string) *Node {
	n := &Node{Tag: tag, Text: s}
	if class != "" {
		n.Attrs = []Attr{{"class", class}}
	}
	return n
}

// Render builds the poster widget for movie
func Render(movie domain.Movie) *Node {
	img := el("img", []Attr{
		{"src", safeURL(movie.ImageURL)},
		{"alt", movie.Title},
		{"class", "movie-poster"},
	})

	meta := el("div", []Attr{{"class", "movie-meta"}},
		text("span", "", movie.YearLabel()),
		text("span", "", movie.Rating),
	)

	link := &Node{
		Tag: "a",
		Attrs: []Attr{
			{"class", "more-info-btn"},
			{"href", movie.LinkURL()},
			{"target", "_blank"},
			{"rel", "noopener noreferrer"},
		},
		Text: "Learn More",
	}

	info := el("div", []Attr{{"class", "movie-info"}},
		text("h3", "", movie.Title),
		meta,
		link,
	)

	return el("div", []Attr{
		{"class", ClassRecommendation},
		{"data-movie-id", strconv.Itoa(movie.ID)},
	},
		el("div", []Attr{{"class", "movie-poster-container"}}, img, info),
	)
}

// MessageKind selects a static message widget
type MessageKind string

const (
	MessageQuote    MessageKind = "quote"
	MessageReminder MessageKind = "reminder"
	MessageCustom   MessageKind = "custom"
)

var messages = map[MessageKind]string{
	MessageQuote:    "🌟 Stay Positive! Keep pushing forward! 💪",
	MessageReminder: "⏳ Time for a quick stretch! Move around! 🏃",
	MessageCustom:   "✨ Your custom message here! ✨",
}

// IsMessageKind reports whether s names a static message widget
func IsMessageKind(s string) bool {
	_, ok := messages[MessageKind(s)]
	return ok
}

// RenderMessage builds a static message widget. Unknown kinds render the quote.
// A non-empty custom text overrides the built-in text for MessageCustom.
func RenderMessage(kind MessageKind, custom string) *Node {
	msg, ok := messages[kind]
	if !ok {
		kind, msg = MessageQuote, messages[MessageQuote]
	}
	if kind == MessageCustom && strings.TrimSpace(custom) != "" {
		msg = custom
	}
	return &Node{
		Tag:   "div",
		Attrs: []Attr{{"class", ClassMessage}, {"data-kind", string(kind)}},
		Text:  msg,
	}
}

// safeURL drops anything that is not an http(s) URL
func safeURL(u string) string {
	lower := strings.ToLower(strings.TrimSpace(u))
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return u
	}
	return ""
}
