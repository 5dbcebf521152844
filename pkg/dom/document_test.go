package dom

import (
	"testing"

	"github.com/gravitylab/gravita/pkg/geometry"
)

// testScene builds a small two-container document used across the dom tests.
//
//	__root__ (800x600)
//	├── hero (800x400)
//	│   ├── title (400x60)
//	│   └── cta (160x48)
//	└── footer (800x200)
//	    └── legal (600x20)
func testScene(t *testing.T) *Document {
	t.Helper()
	d, err := BuildDocument(Scene{
		Width:  800,
		Height: 600,
		Elements: []SceneElement{
			{
				ID: "hero", Width: 800, Height: 400,
				Children: []SceneElement{
					{ID: "title", Width: 400, Height: 60,
						Margin: geometry.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8}, Gravitate: true},
					{ID: "cta", Width: 160, Height: 48,
						Margin: geometry.Margins{Top: 6, Right: 6, Bottom: 6, Left: 6}, Gravitate: true},
				},
			},
			{
				ID: "footer", Width: 800, Height: 200,
				Children: []SceneElement{
					{ID: "legal", Width: 600, Height: 20, Gravitate: true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("BuildDocument() error = %v", err)
	}
	return d
}

func TestDocumentLookups(t *testing.T) {
	d := testScene(t)

	if d.Len() != 6 {
		t.Errorf("Len() = %d, want 6 (root plus five elements)", d.Len())
	}
	if d.ID(d.Root()) != "__root__" {
		t.Errorf("root ID = %q", d.ID(d.Root()))
	}

	hero, ok := d.ByID("hero")
	if !ok {
		t.Fatal("ByID(hero) not found")
	}
	if d.Parent(hero) != d.Root() {
		t.Errorf("Parent(hero) = %d, want root", d.Parent(hero))
	}

	title, _ := d.ByID("title")
	if d.Parent(title) != hero {
		t.Errorf("Parent(title) = %d, want hero", d.Parent(title))
	}

	if _, ok := d.ByID("missing"); ok {
		t.Error("ByID(missing) should not be found")
	}
	if _, err := d.Element(Handle(99)); err == nil {
		t.Error("Element() with an out-of-range handle should fail")
	}
	if _, err := d.Element(InvalidHandle); err == nil {
		t.Error("Element(InvalidHandle) should fail")
	}
}

func TestWalkDocumentOrder(t *testing.T) {
	d := testScene(t)

	var order []string
	d.Walk(func(h Handle, el *Element) bool {
		order = append(order, el.ID)
		return true
	})

	want := []string{"__root__", "hero", "title", "cta", "footer", "legal"}
	if len(order) != len(want) {
		t.Fatalf("Walk visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Walk order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestWalkEarlyStop(t *testing.T) {
	d := testScene(t)

	var visited int
	d.Walk(func(h Handle, el *Element) bool {
		visited++
		return el.ID != "title"
	})

	if visited != 3 {
		t.Errorf("Walk visited %d elements, want 3 (stop at title)", visited)
	}
}

func TestApplyDelta(t *testing.T) {
	d := testScene(t)
	title, _ := d.ByID("title")

	mt := 20.0
	align := geometry.AlignCenter
	if err := d.Apply(title, StyleDelta{MarginTop: &mt, TextAlign: &align}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	el, _ := d.Element(title)
	if el.Style.Margin.Top != 20 {
		t.Errorf("Margin.Top = %v, want 20", el.Style.Margin.Top)
	}
	if el.Style.TextAlign != geometry.AlignCenter {
		t.Errorf("TextAlign = %q, want center", el.Style.TextAlign)
	}
	// Untouched properties keep their values.
	if el.Style.Margin.Bottom != 8 {
		t.Errorf("Margin.Bottom = %v, want authored 8", el.Style.Margin.Bottom)
	}
	// Authored style is immutable.
	if el.Authored.Margin.Top != 8 {
		t.Errorf("Authored.Margin.Top = %v, want 8", el.Authored.Margin.Top)
	}
}

func TestApplyLastWriteWins(t *testing.T) {
	d := testScene(t)
	title, _ := d.ByID("title")

	first, second := 10.0, 30.0
	_ = d.Apply(title, StyleDelta{MarginTop: &first})
	_ = d.Apply(title, StyleDelta{MarginTop: &second})

	el, _ := d.Element(title)
	if el.Style.Margin.Top != 30 {
		t.Errorf("Margin.Top = %v, want 30 (last write wins)", el.Style.Margin.Top)
	}
}

func TestSnapshotAndRestore(t *testing.T) {
	d := testScene(t)
	title, _ := d.ByID("title")

	before, err := d.SnapshotStyle(title)
	if err != nil {
		t.Fatal(err)
	}

	mt := 99.0
	_ = d.Apply(title, StyleDelta{MarginTop: &mt})

	if err := d.RestoreStyle(title, before); err != nil {
		t.Fatal(err)
	}
	el, _ := d.Element(title)
	if el.Style != before {
		t.Errorf("restored style = %+v, want %+v", el.Style, before)
	}
}

func TestAuthoredStyle(t *testing.T) {
	d := testScene(t)
	title, _ := d.ByID("title")

	mt := 55.0
	_ = d.Apply(title, StyleDelta{MarginTop: &mt})

	authored, err := d.AuthoredStyle(title)
	if err != nil {
		t.Fatal(err)
	}
	if authored.Margin.Top != 8 {
		t.Errorf("AuthoredStyle().Margin.Top = %v, want 8", authored.Margin.Top)
	}
}
