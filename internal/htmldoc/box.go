package htmldoc

import (
	"strconv"
	"strings"

	"github.com/mmcdole/moviemate/internal/detector"
	"golang.org/x/net/html"
)

// edges holds top, right, bottom, left lengths
type edges [4]float64

func (e edges) horizontal() float64 { return e[1] + e[3] }
func (e edges) vertical() float64   { return e[0] + e[2] }

// measure derives the content box of n from its width/height attributes and
// inline style. Sizes that cannot be resolved to pixels count as zero.
func measure(n *html.Node) detector.Box {
	decls := parseStyle(attr(n, "style"))

	width, _ := pixels(attr(n, "width"))
	height, _ := pixels(attr(n, "height"))
	if v, ok := decls["width"]; ok {
		width, _ = pixels(v)
	}
	if v, ok := decls["height"]; ok {
		height, _ = pixels(v)
	}

	// With content-box sizing the declared size already is the content box
	if decls["box-sizing"] != "border-box" {
		return detector.Box{Width: width, Height: height}
	}

	padding := boxEdges(decls, edges{}, "padding", "padding-%s")

	var border edges
	if w, ok := firstLength(decls["border"]); ok {
		border = edges{w, w, w, w}
	}
	border = boxEdges(decls, border, "border-width", "border-%s-width")

	return detector.Box{
		Width:  clamp(width - padding.horizontal() - border.horizontal()),
		Height: clamp(height - padding.vertical() - border.vertical()),
	}
}

// parseStyle splits an inline style attribute into lowercased declarations
func parseStyle(style string) map[string]string {
	decls := make(map[string]string)
	for _, part := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important")))
		if key != "" {
			decls[key] = val
		}
	}
	return decls
}

// boxEdges resolves a shorthand property and its per-side longhands
func boxEdges(decls map[string]string, e edges, shorthand, longhand string) edges {
	if v, ok := decls[shorthand]; ok {
		e = expandShorthand(v)
	}
	for i, side := range []string{"top", "right", "bottom", "left"} {
		if v, ok := decls[strings.Replace(longhand, "%s", side, 1)]; ok {
			e[i], _ = pixels(v)
		}
	}
	return e
}

// expandShorthand applies the CSS 1-4 value rule
func expandShorthand(v string) edges {
	var vals []float64
	for _, f := range strings.Fields(v) {
		px, _ := pixels(f)
		vals = append(vals, px)
	}
	switch len(vals) {
	case 1:
		return edges{vals[0], vals[0], vals[0], vals[0]}
	case 2:
		return edges{vals[0], vals[1], vals[0], vals[1]}
	case 3:
		return edges{vals[0], vals[1], vals[2], vals[1]}
	case 4:
		return edges{vals[0], vals[1], vals[2], vals[3]}
	}
	return edges{}
}

// pixels parses "300", "300px" or "0". Other units do not resolve.
func pixels(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func firstLength(v string) (float64, bool) {
	for _, f := range strings.Fields(v) {
		if px, ok := pixels(f); ok {
			return px, true
		}
	}
	return 0, false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
