// Package geometry defines the measured-geometry value types shared by the
// geometry reader, the force model, and the layout engine.
//
// All coordinates are absolute page coordinates in user units (pixels).
// The vertical axis grows downward, matching rendered-document convention.
package geometry

// Align is a text-alignment value. The zero value AlignStart is the
// "inherit/start" sentinel: it marks elements whose authors specified no
// explicit alignment, which the layout engine may override.
type Align string

// Text alignment values.
const (
	AlignStart  Align = ""
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// IsStart reports whether the alignment is the inherit/start sentinel.
// Only elements with a start alignment are eligible for the engine's
// alignment heuristic; explicit author alignment is never overridden.
func (a Align) IsStart() bool { return a == AlignStart }

// Point is an absolute page position.
type Point struct {
	Top  float64 `json:"top" bson:"top"`
	Left float64 `json:"left" bson:"left"`
}

// Add returns the point translated by p2.
func (p Point) Add(p2 Point) Point {
	return Point{Top: p.Top + p2.Top, Left: p.Left + p2.Left}
}

// Sub returns the signed per-axis delta p - p2.
func (p Point) Sub(p2 Point) Point {
	return Point{Top: p.Top - p2.Top, Left: p.Left - p2.Left}
}

// Margins holds the four directional margin values of an element.
type Margins struct {
	Top    float64 `json:"top" bson:"top"`
	Right  float64 `json:"right" bson:"right"`
	Bottom float64 `json:"bottom" bson:"bottom"`
	Left   float64 `json:"left" bson:"left"`
}

// Geometry is a read-only snapshot of an element's rendered geometry,
// taken at measurement time. It reflects any style writes applied earlier
// in the same layout pass.
type Geometry struct {
	OuterWidth  float64 `json:"outer_width" bson:"outer_width"`
	OuterHeight float64 `json:"outer_height" bson:"outer_height"`
	Offset      Point   `json:"offset" bson:"offset"`
	Margin      Margins `json:"margin" bson:"margin"`
	TextAlign   Align   `json:"text_align,omitempty" bson:"text_align,omitempty"`
}

// Center returns the visual center of the element: offset plus half its size.
func (g Geometry) Center() Point {
	return Point{
		Top:  g.Offset.Top + g.OuterHeight/2,
		Left: g.Offset.Left + g.OuterWidth/2,
	}
}
