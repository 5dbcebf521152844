package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gravitylab/gravita/pkg/config"
	"github.com/gravitylab/gravita/pkg/dom"
	"github.com/gravitylab/gravita/pkg/engine"
	"github.com/gravitylab/gravita/pkg/geometry"
)

func laidOutScene(t *testing.T) (*dom.Document, *engine.Result) {
	t.Helper()
	d, err := dom.BuildDocument(dom.Scene{
		Width: 800, Height: 600,
		Elements: []dom.SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []dom.SceneElement{
					{ID: "title", Width: 400, Height: 60, Gravitate: true,
						Margin: geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8}},
					{ID: "hint", Width: 200, Height: 20, Hidden: true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("BuildDocument() error = %v", err)
	}
	res, err := engine.Layout(context.Background(), d, config.Default())
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	return d, res
}

func TestJSON(t *testing.T) {
	_, res := laidOutScene(t)

	data, err := JSON(res)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var decoded engine.Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Groups) != 1 || decoded.Groups[0].Parent != "hero" {
		t.Errorf("decoded groups = %+v, want one hero group", decoded.Groups)
	}
}

func TestJSONNilResult(t *testing.T) {
	if _, err := JSON(nil); err == nil {
		t.Fatal("JSON(nil) should fail")
	}
}

func TestSVG(t *testing.T) {
	d, res := laidOutScene(t)

	out, err := SVG(d, res, Options{ShowAttractor: true})
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	svg := string(out)

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("output does not start with an svg tag: %.60s", svg)
	}
	if !strings.Contains(svg, `viewBox="0 0 800 600"`) {
		t.Error("viewBox should match the scene size")
	}
	for _, want := range []string{">hero</text>", ">title</text>"} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing label %q", want)
		}
	}
	if strings.Contains(svg, ">hint</text>") {
		t.Error("hidden elements must not be drawn")
	}
	if !strings.Contains(svg, svgContainer) {
		t.Error("group container should use the container stroke color")
	}
	if !strings.Contains(svg, "<circle") {
		t.Error("ShowAttractor should draw the crosshair circle")
	}
}

func TestSVGGridAndCrosshairToggles(t *testing.T) {
	d, res := laidOutScene(t)

	plain, err := SVG(d, res, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(plain), svgGrid) {
		t.Error("grid drawn without ShowGrid")
	}
	if strings.Contains(string(plain), "<circle") {
		t.Error("crosshair drawn without ShowAttractor")
	}

	grid, err := SVG(d, res, Options{ShowGrid: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(grid), svgGrid) {
		t.Error("ShowGrid should draw grid lines")
	}
}

func TestSVGEscapesLabels(t *testing.T) {
	if got := escapeText(`a<b>&"c"`); got != `a&lt;b&gt;&amp;&quot;c&quot;` {
		t.Errorf("escapeText() = %q", got)
	}
}

func TestToDOT(t *testing.T) {
	d, res := laidOutScene(t)

	dot := ToDOT(d, res)

	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("malformed digraph:\n%s", dot)
	}
	for _, want := range []string{
		`"hero" -> "title";`,
		`"hero" -> "hint";`,
		`fillcolor="#ece4ff"`, // hero is a group container
		"dashed",              // hint is hidden
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTWithoutResult(t *testing.T) {
	d, _ := laidOutScene(t)

	dot := ToDOT(d, nil)
	if strings.Contains(dot, "#ece4ff") {
		t.Error("no result means no container styling")
	}
	if !strings.Contains(dot, `"hero"`) {
		t.Error("nodes should still be emitted")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>
<svg width="134pt" height="116pt" viewBox="0.00 0.00 133.68 116.00" xmlns="http://www.w3.org/2000/svg">
<g></g>
</svg>`)

	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 133.68 116.00"`) {
		t.Errorf("viewBox not normalized:\n%s", out)
	}
	if !strings.Contains(out, `width="134" height="116"`) {
		t.Errorf("pixel size not derived from viewBox:\n%s", out)
	}
	if strings.Contains(out, "pt") {
		t.Error("point-based sizes should be gone")
	}
}

func TestNormalizeViewBoxPassthrough(t *testing.T) {
	in := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(in); string(got) != string(in) {
		t.Error("SVG without a viewBox should pass through untouched")
	}
}
