package dom

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/geometry"
)

// SceneElement is the serialized form of one element in a scene file.
type SceneElement struct {
	ID         string           `json:"id"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Margin     geometry.Margins `json:"margin,omitempty"`
	PaddingTop float64          `json:"padding_top,omitempty"`
	TextAlign  geometry.Align   `json:"text_align,omitempty"`
	Gravitate  bool             `json:"gravitate,omitempty"`
	Hidden     bool             `json:"hidden,omitempty"`
	Children   []SceneElement   `json:"children,omitempty"`
}

// Scene is the serialized form of a document: the page box plus its
// top-level elements.
type Scene struct {
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Elements []SceneElement `json:"elements"`
}

// ParseScene deserializes scene JSON into a Document.
// Element identifiers must be unique across the whole scene.
func ParseScene(data []byte) (*Document, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "unmarshal scene")
	}
	return BuildDocument(s)
}

// ReadSceneFile reads and parses a scene file.
func ReadSceneFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseScene(data)
}

// BuildDocument converts a Scene value into an arena-backed Document.
// Elements are appended depth-first so that arena order is document order.
func BuildDocument(s Scene) (*Document, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidScene,
			"scene must have positive dimensions, got %gx%g", s.Width, s.Height)
	}

	d := &Document{byID: make(map[string]Handle)}
	root := Element{
		ID:     "__root__",
		Width:  s.Width,
		Height: s.Height,
		parent: InvalidHandle,
	}
	d.elems = append(d.elems, root)
	d.byID[root.ID] = 0

	for i := range s.Elements {
		if _, err := d.insert(&s.Elements[i], 0); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// insert appends one scene element and its subtree under parent.
func (d *Document) insert(se *SceneElement, parent Handle) (Handle, error) {
	if err := errors.ValidateElementID(se.ID); err != nil {
		return InvalidHandle, err
	}
	if _, dup := d.byID[se.ID]; dup {
		return InvalidHandle, errors.New(errors.ErrCodeInvalidScene, "duplicate element id %q", se.ID)
	}
	if se.Width < 0 || se.Height < 0 {
		return InvalidHandle, errors.New(errors.ErrCodeInvalidScene,
			"element %q has negative dimensions", se.ID)
	}

	style := Style{
		Margin:     se.Margin,
		PaddingTop: se.PaddingTop,
		TextAlign:  se.TextAlign,
	}
	h := Handle(len(d.elems))
	d.elems = append(d.elems, Element{
		ID:        se.ID,
		Width:     se.Width,
		Height:    se.Height,
		Style:     style,
		Authored:  style,
		Gravitate: se.Gravitate,
		Hidden:    se.Hidden,
		parent:    parent,
	})
	d.byID[se.ID] = h
	d.elems[parent].children = append(d.elems[parent].children, h)

	for i := range se.Children {
		if _, err := d.insert(&se.Children[i], h); err != nil {
			return InvalidHandle, err
		}
	}
	return h, nil
}

// Export serializes the document back into a Scene reflecting current
// styles. Useful for inspecting the effect of a layout pass.
func (d *Document) Export() Scene {
	s := Scene{
		Width:  d.elems[0].Width,
		Height: d.elems[0].Height,
	}
	for _, c := range d.elems[0].children {
		s.Elements = append(s.Elements, d.export(c))
	}
	return s
}

func (d *Document) export(h Handle) SceneElement {
	el := &d.elems[h]
	se := SceneElement{
		ID:         el.ID,
		Width:      el.Width,
		Height:     el.Height,
		Margin:     el.Style.Margin,
		PaddingTop: el.Style.PaddingTop,
		TextAlign:  el.Style.TextAlign,
		Gravitate:  el.Gravitate,
		Hidden:     el.Hidden,
	}
	for _, c := range el.children {
		se.Children = append(se.Children, d.export(c))
	}
	return se
}

// MarshalScene serializes a Scene to pretty-printed JSON bytes.
func MarshalScene(s Scene) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
