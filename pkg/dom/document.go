// Package dom provides the in-memory element tree the layout engine
// operates on.
//
// A Document is an arena of elements addressed by Handle (a structural
// index, not a string key), loaded from a scene file. The document plays
// the role of the live element tree: the style applier mutates it in
// place during a layout pass, and measurements taken afterwards reflect
// those writes, because offsets are recomputed from current styles on
// every measurement.
//
// # Handles
//
// Handles are stable for the lifetime of a Document. Handle 0 is always
// the root (the page/viewport box). All traversal and lookup methods are
// read-only; the only mutating operation is [Document.Apply].
package dom

import (
	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/geometry"
)

// Handle identifies one element within a Document.
type Handle int

// InvalidHandle is returned by lookups that fail.
const InvalidHandle Handle = -1

// Style holds the mutable style values the layout engine reads and writes.
type Style struct {
	Margin     geometry.Margins
	PaddingTop float64
	TextAlign  geometry.Align
}

// Element is one node of the element tree.
type Element struct {
	ID     string
	Width  float64
	Height float64

	// Style is the element's current style. It starts as a copy of
	// Authored and is mutated by Apply during layout passes.
	Style Style

	// Authored is the immutable author-specified style. The force model
	// uses authored margins as its base multiplier, and the alignment
	// heuristic only fires when the authored alignment is the start
	// sentinel.
	Authored Style

	// Gravitate flags the element as a layout child; its parent becomes
	// a group container during discovery.
	Gravitate bool

	// Hidden marks the element as not rendered. Measuring a hidden
	// element, or any of its descendants, fails.
	Hidden bool

	parent   Handle
	children []Handle
}

// Document is an arena-backed element tree.
type Document struct {
	elems []Element
	byID  map[string]Handle
}

// Root returns the handle of the document root.
func (d *Document) Root() Handle { return 0 }

// Len returns the number of elements in the document, including the root.
func (d *Document) Len() int { return len(d.elems) }

// Valid reports whether h addresses an element of this document.
func (d *Document) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(d.elems)
}

// Element returns the element addressed by h.
// The returned pointer stays valid for the document's lifetime.
func (d *Document) Element(h Handle) (*Element, error) {
	if !d.Valid(h) {
		return nil, errors.New(errors.ErrCodeElementNotRendered, "invalid element handle %d", h)
	}
	return &d.elems[h], nil
}

// ByID looks up an element handle by its scene identifier.
func (d *Document) ByID(id string) (Handle, bool) {
	h, ok := d.byID[id]
	if !ok {
		return InvalidHandle, false
	}
	return h, true
}

// ID returns the scene identifier of h, or "" for an invalid handle.
func (d *Document) ID(h Handle) string {
	if !d.Valid(h) {
		return ""
	}
	return d.elems[h].ID
}

// Parent returns the parent handle of h. The root's parent is InvalidHandle.
func (d *Document) Parent(h Handle) Handle {
	if !d.Valid(h) || h == d.Root() {
		return InvalidHandle
	}
	return d.elems[h].parent
}

// Children returns the child handles of h in document order.
// The returned slice must not be modified.
func (d *Document) Children(h Handle) []Handle {
	if !d.Valid(h) {
		return nil
	}
	return d.elems[h].children
}

// Walk visits every element in document order (depth-first, children in
// order), starting at the root. The visit function returning false stops
// the walk.
func (d *Document) Walk(visit func(Handle, *Element) bool) {
	var rec func(Handle) bool
	rec = func(h Handle) bool {
		if !visit(h, &d.elems[h]) {
			return false
		}
		for _, c := range d.elems[h].children {
			if !rec(c) {
				return false
			}
		}
		return true
	}
	if len(d.elems) > 0 {
		rec(d.Root())
	}
}

// AuthoredStyle returns the immutable author-specified style of h.
func (d *Document) AuthoredStyle(h Handle) (Style, error) {
	el, err := d.Element(h)
	if err != nil {
		return Style{}, err
	}
	return el.Authored, nil
}

// StyleDelta is a partial style write. Nil fields are left untouched;
// when the same property is written twice in one pass, the last write wins.
type StyleDelta struct {
	MarginTop    *float64
	MarginRight  *float64
	MarginBottom *float64
	MarginLeft   *float64
	PaddingTop   *float64
	TextAlign    *geometry.Align
}

// Apply writes the non-nil fields of delta onto the element's current style.
func (d *Document) Apply(h Handle, delta StyleDelta) error {
	el, err := d.Element(h)
	if err != nil {
		return err
	}
	if delta.MarginTop != nil {
		el.Style.Margin.Top = *delta.MarginTop
	}
	if delta.MarginRight != nil {
		el.Style.Margin.Right = *delta.MarginRight
	}
	if delta.MarginBottom != nil {
		el.Style.Margin.Bottom = *delta.MarginBottom
	}
	if delta.MarginLeft != nil {
		el.Style.Margin.Left = *delta.MarginLeft
	}
	if delta.PaddingTop != nil {
		el.Style.PaddingTop = *delta.PaddingTop
	}
	if delta.TextAlign != nil {
		el.Style.TextAlign = *delta.TextAlign
	}
	return nil
}

// SnapshotStyle returns a copy of the element's current style, taken
// before a pass writes to it. Teardown uses these snapshots to restore
// prior values.
func (d *Document) SnapshotStyle(h Handle) (Style, error) {
	el, err := d.Element(h)
	if err != nil {
		return Style{}, err
	}
	return el.Style, nil
}

// RestoreStyle replaces the element's current style wholesale.
func (d *Document) RestoreStyle(h Handle, s Style) error {
	el, err := d.Element(h)
	if err != nil {
		return err
	}
	el.Style = s
	return nil
}
