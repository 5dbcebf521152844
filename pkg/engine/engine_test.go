package engine

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/gravitylab/gravita/pkg/config"
	"github.com/gravitylab/gravita/pkg/discovery"
	"github.com/gravitylab/gravita/pkg/dom"
	"github.com/gravitylab/gravita/pkg/geometry"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// buildDoc is a test helper around dom.BuildDocument.
func buildDoc(t *testing.T, s dom.Scene) *dom.Document {
	t.Helper()
	d, err := dom.BuildDocument(s)
	if err != nil {
		t.Fatalf("BuildDocument() error = %v", err)
	}
	return d
}

// singleChildScene is an 800x600 page with one 800x400 container holding
// one 400x60 child with authored margin 8 on all sides.
func singleChildScene(t *testing.T) *dom.Document {
	t.Helper()
	return buildDoc(t, dom.Scene{
		Width: 800, Height: 600,
		Elements: []dom.SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []dom.SceneElement{
					{ID: "title", Width: 400, Height: 60,
						Margin: geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8}, Gravitate: true},
				},
			},
		},
	})
}

func TestLayoutSingleChild(t *testing.T) {
	d := singleChildScene(t)
	cfg := config.Default()

	res, err := Layout(context.Background(), d, cfg)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("Layout() failures = %+v", res.Failures)
	}
	if res.Attractor != "core" {
		t.Errorf("Attractor = %q, want core", res.Attractor)
	}
	if len(res.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(res.Groups))
	}

	// force = 60 * 0.618, each margin = (8/10) * force.
	wantForce := 60 * 0.618
	wantMargin := (8.0 / 10.0) * wantForce

	g := res.Groups[0]
	if g.Parent != "hero" {
		t.Errorf("group parent = %q, want hero", g.Parent)
	}
	if len(g.Children) != 1 {
		t.Fatalf("got %d child metrics, want 1", len(g.Children))
	}
	ch := g.Children[0]
	if !almostEqual(ch.Force, wantForce) {
		t.Errorf("force = %v, want %v", ch.Force, wantForce)
	}
	if !almostEqual(ch.Margin.Top, wantMargin) {
		t.Errorf("margin top = %v, want %v", ch.Margin.Top, wantMargin)
	}

	// Content size accumulates margin + size + margin per child.
	wantHeight := wantMargin + 60 + wantMargin
	wantWidth := wantMargin + 400 + wantMargin
	if !almostEqual(g.ContentHeight, wantHeight) {
		t.Errorf("content height = %v, want %v", g.ContentHeight, wantHeight)
	}
	if !almostEqual(g.ContentWidth, wantWidth) {
		t.Errorf("content width = %v, want %v", g.ContentWidth, wantWidth)
	}

	// The attractor is the page center; the container starts at the
	// origin, so the full delta fits and becomes the top padding.
	if g.AttractorOffset != (geometry.Point{Top: 300, Left: 400}) {
		t.Errorf("attractor = %+v, want {300 400}", g.AttractorOffset)
	}
	wantPadding := 300 - wantHeight/2
	if !almostEqual(g.PaddingTop, wantPadding) {
		t.Errorf("padding top = %v, want %v", g.PaddingTop, wantPadding)
	}

	// Writes landed on the document.
	hero, _ := d.ByID("hero")
	heroEl, _ := d.Element(hero)
	if !almostEqual(heroEl.Style.PaddingTop, wantPadding) {
		t.Errorf("hero padding = %v, want %v", heroEl.Style.PaddingTop, wantPadding)
	}
	title, _ := d.ByID("title")
	titleEl, _ := d.Element(title)
	if !almostEqual(titleEl.Style.Margin.Top, wantMargin) {
		t.Errorf("title margin top = %v, want %v", titleEl.Style.Margin.Top, wantMargin)
	}
	if ch.Clamped {
		t.Error("a 60-tall child in a 400-tall container must not clamp")
	}
}

func TestLayoutPaddingZeroWhenContentFills(t *testing.T) {
	// A 300-tall child with margin 8 accumulates more content height
	// than the 400-tall container: padding collapses to zero.
	d := buildDoc(t, dom.Scene{
		Width: 800, Height: 600,
		Elements: []dom.SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []dom.SceneElement{
					{ID: "big", Width: 400, Height: 300,
						Margin: geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8}, Gravitate: true},
				},
			},
		},
	})

	res, err := Layout(context.Background(), d, config.Default())
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	g := res.Groups[0]
	if g.PaddingTop != 0 {
		t.Errorf("padding top = %v, want 0", g.PaddingTop)
	}

	// The same child also trips the overflow guard: 300 + 2*185.4 > 400.
	ch := g.Children[0]
	if !ch.Clamped {
		t.Fatal("child should be clamped")
	}
	wantHalf := (400.0 - 300.0) / 2
	if !almostEqual(ch.Margin.Top, wantHalf) || !almostEqual(ch.Margin.Bottom, wantHalf) {
		t.Errorf("clamped margins = %v/%v, want %v both", ch.Margin.Top, ch.Margin.Bottom, wantHalf)
	}

	big, _ := d.ByID("big")
	el, _ := d.Element(big)
	if !almostEqual(el.Style.Margin.Top, wantHalf) {
		t.Errorf("written margin top = %v, want %v", el.Style.Margin.Top, wantHalf)
	}
	// Horizontal margins keep their force-derived values.
	wantSide := (8.0 / 10.0) * 300 * 0.618
	if !almostEqual(el.Style.Margin.Left, wantSide) {
		t.Errorf("written margin left = %v, want %v", el.Style.Margin.Left, wantSide)
	}
}

func TestLayoutPaddingClampsToSlack(t *testing.T) {
	// An attractor at the page bottom asks for more padding than the
	// container can give: padding clamps to the remaining slack.
	d := buildDoc(t, dom.Scene{
		Width: 800, Height: 600,
		Elements: []dom.SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []dom.SceneElement{
					{ID: "block", Width: 400, Height: 200,
						Margin: geometry.Margins{Top: 2, Right: 2, Bottom: 2, Left: 2}, Gravitate: true},
				},
			},
		},
	})
	cfg := config.Configuration{
		Gravitation: []config.GravitationNode{{Name: "bottom", Top: "100%", Left: "50%"}},
		K:           config.DefaultK,
		Density:     config.DefaultDensity,
	}

	res, err := Layout(context.Background(), d, cfg)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	g := res.Groups[0]

	wantMargin := (2.0 / 10.0) * 200 * 0.618
	wantContent := wantMargin + 200 + wantMargin
	wantPadding := 400 - wantContent
	if !almostEqual(g.PaddingTop, wantPadding) {
		t.Errorf("padding top = %v, want slack %v", g.PaddingTop, wantPadding)
	}
}

func TestAlignFor(t *testing.T) {
	tests := []struct {
		name string
		c    float64
		g    float64
		want geometry.Align
	}{
		{"center left of half attractor", 40, 100, geometry.AlignLeft},
		{"attractor within 1.5 centers", 80, 100, geometry.AlignCenter},
		{"neither branch", 60, 100, geometry.AlignRight},
		{"boundary c equals g/2", 50, 100, geometry.AlignRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := alignFor(tt.c, tt.g); got != tt.want {
				t.Errorf("alignFor(%v, %v) = %q, want %q", tt.c, tt.g, got, tt.want)
			}
		})
	}
}

func TestLayoutAlignmentOnlyOverridesStart(t *testing.T) {
	d := buildDoc(t, dom.Scene{
		Width: 800, Height: 600,
		Elements: []dom.SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []dom.SceneElement{
					{ID: "auto", Width: 400, Height: 60,
						Margin: geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8}, Gravitate: true},
					{ID: "explicit", Width: 400, Height: 60,
						Margin:    geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8},
						TextAlign: geometry.AlignLeft, Gravitate: true},
				},
			},
		},
	})

	res, err := Layout(context.Background(), d, config.Default())
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	g := res.Groups[0]

	if g.Children[0].Align == geometry.AlignStart {
		t.Error("start-aligned child should receive a computed alignment")
	}
	if g.Children[1].Align != geometry.AlignStart {
		t.Errorf("explicitly aligned child got %q, want no heuristic write", g.Children[1].Align)
	}

	explicit, _ := d.ByID("explicit")
	el, _ := d.Element(explicit)
	if el.Style.TextAlign != geometry.AlignLeft {
		t.Errorf("explicit alignment = %q, want untouched left", el.Style.TextAlign)
	}
}

func TestLayoutIdempotent(t *testing.T) {
	d := singleChildScene(t)
	cfg := config.Default()

	if _, err := Layout(context.Background(), d, cfg); err != nil {
		t.Fatalf("first pass error = %v", err)
	}

	var first []dom.Style
	d.Walk(func(h dom.Handle, el *dom.Element) bool {
		first = append(first, el.Style)
		return true
	})

	if _, err := Layout(context.Background(), d, cfg); err != nil {
		t.Fatalf("second pass error = %v", err)
	}

	i := 0
	d.Walk(func(h dom.Handle, el *dom.Element) bool {
		if el.Style != first[i] {
			t.Errorf("element %q style changed on second pass: %+v vs %+v", el.ID, el.Style, first[i])
		}
		i++
		return true
	})
}

func TestLayoutGroupFailureIsolation(t *testing.T) {
	// The footer group contains a hidden child: its pass fails at the
	// child measurement step while the hero group completes normally.
	d := buildDoc(t, dom.Scene{
		Width: 800, Height: 600,
		Elements: []dom.SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []dom.SceneElement{
					{ID: "title", Width: 400, Height: 60,
						Margin: geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8}, Gravitate: true},
				},
			},
			{
				ID: "footer", Width: 800, Height: 200,
				Children: []dom.SceneElement{
					{ID: "ghost", Width: 100, Height: 20, Hidden: true,
						Margin: geometry.Margins{Top: 4, Right: 4, Bottom: 4, Left: 4}, Gravitate: true},
				},
			},
		},
	})

	res, err := Layout(context.Background(), d, config.Default())
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	if res.OK() {
		t.Fatal("pass with a hidden child should report a failure")
	}
	if res.Err() == nil {
		t.Error("Err() should aggregate the failure")
	}
	if len(res.Groups) != 1 || res.Groups[0].Parent != "hero" {
		t.Errorf("completed groups = %+v, want hero only", res.Groups)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("failures = %+v, want exactly one", res.Failures)
	}
	f := res.Failures[0]
	if f.Parent != "footer" {
		t.Errorf("failed parent = %q, want footer", f.Parent)
	}
	if f.Step != StepMeasureChildren {
		t.Errorf("failed step = %d, want %d", f.Step, StepMeasureChildren)
	}
	if !strings.Contains(f.Message, "not rendered") {
		t.Errorf("failure message = %q, want a not-rendered cause", f.Message)
	}

	// The failed group keeps its pre-pass styles.
	footer, _ := d.ByID("footer")
	footerEl, _ := d.Element(footer)
	if footerEl.Style.PaddingTop != 0 {
		t.Errorf("failed group's container padding = %v, want 0", footerEl.Style.PaddingTop)
	}
	ghost, _ := d.ByID("ghost")
	ghostEl, _ := d.Element(ghost)
	if ghostEl.Style.Margin.Top != 4 {
		t.Errorf("failed group's child margin = %v, want authored 4", ghostEl.Style.Margin.Top)
	}
}

// failingApplier refuses alignment writes for one element, forcing a
// late-stage failure after the group's margins were already written.
type failingApplier struct {
	*dom.Document
	refuseAlignID string
}

func (f *failingApplier) Apply(h dom.Handle, delta dom.StyleDelta) error {
	if delta.TextAlign != nil && f.Document.ID(h) == f.refuseAlignID {
		return stderrors.New("align write refused")
	}
	return f.Document.Apply(h, delta)
}

func TestLayoutRollsBackOnLateFailure(t *testing.T) {
	d := buildDoc(t, dom.Scene{
		Width: 800, Height: 600,
		Elements: []dom.SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []dom.SceneElement{
					{ID: "title", Width: 400, Height: 60,
						Margin: geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8}, Gravitate: true},
					{ID: "cta", Width: 160, Height: 48,
						Margin: geometry.Margins{Top: 6, Right: 6, Bottom: 6, Left: 6}, Gravitate: true},
				},
			},
		},
	})

	e := New(d, &failingApplier{Document: d, refuseAlignID: "cta"}, nil)
	res, err := e.Run(context.Background(), d.Root(), discovery.Discover(d), config.Default())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.OK() {
		t.Fatal("pass should report the alignment failure")
	}
	if res.Failures[0].Step != StepAlignment {
		t.Errorf("failed step = %d, want %d", res.Failures[0].Step, StepAlignment)
	}

	// Every write of the failed group was rolled back, including the
	// sibling processed before the failure and the container padding.
	for id, wantMarginTop := range map[string]float64{"title": 8, "cta": 6} {
		h, _ := d.ByID(id)
		el, _ := d.Element(h)
		if el.Style.Margin.Top != wantMarginTop {
			t.Errorf("%s margin top = %v, want authored %v", id, el.Style.Margin.Top, wantMarginTop)
		}
		if el.Style.TextAlign != geometry.AlignStart {
			t.Errorf("%s text align = %q, want start", id, el.Style.TextAlign)
		}
	}
	hero, _ := d.ByID("hero")
	heroEl, _ := d.Element(hero)
	if heroEl.Style.PaddingTop != 0 {
		t.Errorf("hero padding = %v, want 0 after rollback", heroEl.Style.PaddingTop)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	d := singleChildScene(t)
	cfg := config.Configuration{K: -1, Density: 10, Gravitation: config.Default().Gravitation}

	if _, err := Layout(context.Background(), d, cfg); err == nil {
		t.Fatal("Layout() with negative k should fail")
	}
}

func TestResolveAttractorFallsBack(t *testing.T) {
	root := geometry.Geometry{OuterWidth: 800, OuterHeight: 600}
	cfg := config.Configuration{
		Gravitation: []config.GravitationNode{
			{Name: "broken", Top: "oops", Left: "50%"},
			{Name: "good", Top: "50%", Left: "50%"},
		},
	}

	p, name, err := resolveAttractor(cfg, root)
	if err != nil {
		t.Fatalf("resolveAttractor() error = %v", err)
	}
	if name != "good" {
		t.Errorf("attractor name = %q, want good", name)
	}
	if p != (geometry.Point{Top: 300, Left: 400}) {
		t.Errorf("attractor point = %+v", p)
	}
}

func TestResolveAttractorAllFail(t *testing.T) {
	root := geometry.Geometry{OuterWidth: 800, OuterHeight: 600}
	cfg := config.Configuration{
		Gravitation: []config.GravitationNode{{Name: "broken", Top: "oops", Left: "50%"}},
	}

	if _, _, err := resolveAttractor(cfg, root); err == nil {
		t.Fatal("resolveAttractor() should fail when no node resolves")
	}
}
