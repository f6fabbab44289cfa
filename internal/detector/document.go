package detector

import "github.com/mmcdole/moviemate/internal/widget"

// Box is an element's rendered content size in CSS pixels
type Box struct {
	Width  float64
	Height float64
}

// Element is a handle to a document element. Handles must be comparable and
// stable: the same underlying element always yields an equal handle.
type Element interface {
	ContentBox() Box
}

// Document is the mutable page the detector works on
type Document interface {
	// QueryAll returns elements under root matching any selector, root
	// included. A nil root searches the whole document.
	QueryAll(root Element, selectors []string) []Element

	// Replace swaps old for the rendered widget and returns the new element.
	Replace(old Element, w *widget.Node) (Element, error)

	// Contains reports whether el is a descendant of ancestor. A nil
	// ancestor asks whether el is still attached to the document.
	Contains(ancestor, el Element) bool

	// Observe registers fn for elements added to the document later.
	// The returned func unsubscribes.
	Observe(fn func(added []Element)) (cancel func())
}
