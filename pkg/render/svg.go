package render

import (
	"fmt"
	"strings"

	"github.com/gravitylab/gravita/pkg/dom"
	"github.com/gravitylab/gravita/pkg/engine"
	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/geometry"
)

// Palette for the SVG snapshot.
const (
	svgPageFill      = "#ffffff"
	svgPageStroke    = "#d0d0d0"
	svgContainerFill = "#f4f6fa"
	svgContainer     = "#7d56f4"
	svgChildFill     = "#e6f0fe"
	svgChild         = "#0969da"
	svgHiddenStroke  = "#bbbbbb"
	svgAttractor     = "#d7263d"
	svgGrid          = "#eeeeee"
	svgLabel         = "#333333"
)

const svgGridStep = 50.0

// SVG renders a visual snapshot of the laid-out scene: the page box, each
// group container, each child at its measured offset, and optionally the
// attractor crosshair. Hidden subtrees are drawn dashed at their authored
// position since they have no measurable geometry.
func SVG(doc *dom.Document, res *engine.Result, opts Options) ([]byte, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInternal, "nil document")
	}
	rootGeom, err := doc.Measure(doc.Root())
	if err != nil {
		return nil, err
	}

	containers := make(map[string]bool)
	var attractor *geometry.Point
	if res != nil {
		for i := range res.Groups {
			containers[res.Groups[i].Parent] = true
			if attractor == nil {
				p := res.Groups[i].AttractorOffset
				attractor = &p
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		rootGeom.OuterWidth, rootGeom.OuterHeight, rootGeom.OuterWidth, rootGeom.OuterHeight)
	b.WriteString("\n")

	fmt.Fprintf(&b, `  <rect x="0" y="0" width="%g" height="%g" fill="%s" stroke="%s"/>`,
		rootGeom.OuterWidth, rootGeom.OuterHeight, svgPageFill, svgPageStroke)
	b.WriteString("\n")

	if opts.ShowGrid {
		writeGrid(&b, rootGeom.OuterWidth, rootGeom.OuterHeight)
	}

	var walkErr error
	doc.Walk(func(h dom.Handle, el *dom.Element) bool {
		if h == doc.Root() {
			return true
		}
		if el.Hidden {
			// No geometry for hidden subtrees; skip the whole branch by
			// drawing nothing (children are unmeasurable too).
			return true
		}
		geom, err := doc.Measure(h)
		if err != nil {
			if errors.Is(err, errors.ErrCodeElementNotRendered) {
				return true
			}
			walkErr = err
			return false
		}
		writeBox(&b, el, geom, containers[el.ID])
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if opts.ShowAttractor && attractor != nil {
		writeCrosshair(&b, *attractor)
	}

	b.WriteString("</svg>\n")
	return []byte(b.String()), nil
}

func writeGrid(b *strings.Builder, width, height float64) {
	for x := svgGridStep; x < width; x += svgGridStep {
		fmt.Fprintf(b, `  <line x1="%g" y1="0" x2="%g" y2="%g" stroke="%s"/>`, x, x, height, svgGrid)
		b.WriteString("\n")
	}
	for y := svgGridStep; y < height; y += svgGridStep {
		fmt.Fprintf(b, `  <line x1="0" y1="%g" x2="%g" y2="%g" stroke="%s"/>`, y, width, y, svgGrid)
		b.WriteString("\n")
	}
}

func writeBox(b *strings.Builder, el *dom.Element, geom geometry.Geometry, container bool) {
	fill, stroke := svgChildFill, svgChild
	if container {
		fill, stroke = svgContainerFill, svgContainer
	}
	fmt.Fprintf(b, `  <rect x="%g" y="%g" width="%g" height="%g" fill="%s" stroke="%s" fill-opacity="0.6"/>`,
		geom.Offset.Left, geom.Offset.Top, geom.OuterWidth, geom.OuterHeight, fill, stroke)
	b.WriteString("\n")
	fmt.Fprintf(b, `  <text x="%g" y="%g" font-size="11" font-family="monospace" fill="%s">%s</text>`,
		geom.Offset.Left+4, geom.Offset.Top+13, svgLabel, escapeText(el.ID))
	b.WriteString("\n")
}

func writeCrosshair(b *strings.Builder, p geometry.Point) {
	const arm = 12.0
	fmt.Fprintf(b, `  <line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="2"/>`,
		p.Left-arm, p.Top, p.Left+arm, p.Top, svgAttractor)
	b.WriteString("\n")
	fmt.Fprintf(b, `  <line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="2"/>`,
		p.Left, p.Top-arm, p.Left, p.Top+arm, svgAttractor)
	b.WriteString("\n")
	fmt.Fprintf(b, `  <circle cx="%g" cy="%g" r="4" fill="none" stroke="%s" stroke-width="2"/>`,
		p.Left, p.Top, svgAttractor)
	b.WriteString("\n")
}

// escapeText escapes XML special characters in labels.
func escapeText(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
