package dom

import (
	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/geometry"
)

// Measure returns a read-only snapshot of the element's rendered geometry.
//
// Offsets are derived from the block flow model on every call: children
// stack vertically inside their parent's content box, each child's top
// edge sitting below the parent's top padding, the accumulated
// margin+height+margin of its preceding siblings, and its own top margin.
// The left edge is the parent's content left plus the child's left margin.
// Because offsets are recomputed from current styles, a measurement taken
// after a style write in the same pass reflects that write.
//
// Measuring fails with an ELEMENT_NOT_RENDERED error when the handle is
// invalid or when the element, or any of its ancestors, is hidden.
func (d *Document) Measure(h Handle) (geometry.Geometry, error) {
	el, err := d.Element(h)
	if err != nil {
		return geometry.Geometry{}, err
	}
	if err := d.checkRendered(h); err != nil {
		return geometry.Geometry{}, err
	}

	return geometry.Geometry{
		OuterWidth:  el.Width,
		OuterHeight: el.Height,
		Offset:      d.offset(h),
		Margin:      el.Style.Margin,
		TextAlign:   el.Style.TextAlign,
	}, nil
}

// checkRendered fails if h or any ancestor is hidden.
func (d *Document) checkRendered(h Handle) error {
	for cur := h; cur != InvalidHandle; cur = d.Parent(cur) {
		if d.elems[cur].Hidden {
			return errors.New(errors.ErrCodeElementNotRendered,
				"element %q is not rendered", d.elems[h].ID)
		}
	}
	return nil
}

// offset computes the absolute page position of h under the block flow
// model. The root sits at the page origin.
func (d *Document) offset(h Handle) geometry.Point {
	if h == d.Root() {
		return geometry.Point{}
	}

	el := &d.elems[h]
	parent := el.parent
	base := d.offset(parent)

	top := base.Top + d.elems[parent].Style.PaddingTop
	for _, sib := range d.elems[parent].children {
		if sib == h {
			break
		}
		s := &d.elems[sib]
		top += s.Style.Margin.Top + s.Height + s.Style.Margin.Bottom
	}
	top += el.Style.Margin.Top

	left := base.Left + el.Style.Margin.Left

	return geometry.Point{Top: top, Left: left}
}
