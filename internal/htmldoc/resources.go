package htmldoc

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Resource is a subresource fetch the page would issue
type Resource struct {
	Element Element
	URL     string
	Type    string // declarativeNetRequest resource type
}

var resourceTypes = map[atom.Atom]string{
	atom.Img:    "image",
	atom.Script: "script",
	atom.Iframe: "sub_frame",
	atom.Frame:  "sub_frame",
	atom.Video:  "media",
	atom.Audio:  "media",
	atom.Source: "media",
	atom.Object: "object",
	atom.Embed:  "object",
}

// Resources lists elements that load a URL, in document order. Relative
// URLs are resolved against base when it is non-nil; unresolvable ones are
// skipped.
func (d *Document) Resources(base *url.URL) []Resource {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Resource
	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}

		typ, key := resourceType(n)
		if typ == "" {
			return
		}
		raw := strings.TrimSpace(attr(n, key))
		if raw == "" {
			return
		}

		u, err := url.Parse(raw)
		if err != nil {
			d.logger.Debug("skipping unparseable resource url", "url", raw, "error", err)
			return
		}
		if base != nil {
			u = base.ResolveReference(u)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		out = append(out, Resource{Element: Element{n: n}, URL: u.String(), Type: typ})
	})
	return out
}

// resourceType returns the request type and the attribute holding the URL
func resourceType(n *html.Node) (string, string) {
	switch n.DataAtom {
	case atom.Link:
		if strings.EqualFold(attr(n, "rel"), "stylesheet") {
			return "stylesheet", "href"
		}
		return "", ""
	case atom.Object:
		return resourceTypes[n.DataAtom], "data"
	}
	return resourceTypes[n.DataAtom], "src"
}
