package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gravitylab/gravita/pkg/dom"
	"github.com/gravitylab/gravita/pkg/engine"
)

// ToDOT converts the document's containment tree to Graphviz DOT format.
// Group containers are rendered with a filled accent, hidden elements with
// dashed grey outlines. The resulting DOT string can be rendered with
// [DOTToSVG].
func ToDOT(doc *dom.Document, res *engine.Result) string {
	containers := make(map[string]bool)
	if res != nil {
		for i := range res.Groups {
			containers[res.Groups[i].Parent] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	doc.Walk(func(h dom.Handle, el *dom.Element) bool {
		attrs := dotAttrs(el, containers[el.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", el.ID, strings.Join(attrs, ", "))
		return true
	})

	buf.WriteString("\n")
	doc.Walk(func(h dom.Handle, el *dom.Element) bool {
		for _, c := range doc.Children(h) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", el.ID, doc.ID(c))
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

func dotAttrs(el *dom.Element, container bool) []string {
	label := fmt.Sprintf("%s\n%gx%g", el.ID, el.Width, el.Height)
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case el.Hidden:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=grey")
	case container:
		attrs = append(attrs, "fillcolor=\"#ece4ff\"", "color=\"#7d56f4\"")
	}
	return attrs
}

// DOTToSVG renders a DOT graph to SVG using Graphviz.
func DOTToSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG root tag so the viewBox
// starts at the origin and the pixel size matches it. Graphviz emits
// point-based sizes with a translated viewBox, which breaks embedding.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
