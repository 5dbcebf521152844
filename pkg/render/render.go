// Package render turns a laid-out document and its pass result into
// output artifacts.
//
// Three renderers are provided:
//   - JSON: the raw pass result, for tooling and the HTTP API
//   - SVG: a visual snapshot of the laid-out scene
//   - DOT: the containment tree as a Graphviz graph, optionally rendered
//     to SVG or PNG through the Graphviz engine
package render

import (
	"github.com/gravitylab/gravita/pkg/engine"
	"github.com/gravitylab/gravita/pkg/errors"
)

// Options controls renderer behavior.
type Options struct {
	// ShowGrid draws a light reference grid behind the scene (SVG only).
	ShowGrid bool

	// ShowAttractor draws a crosshair at the attractor point (SVG only).
	ShowAttractor bool
}

// JSON serializes the pass result as pretty-printed JSON.
func JSON(res *engine.Result) ([]byte, error) {
	if res == nil {
		return nil, errors.New(errors.ErrCodeInternal, "nil layout result")
	}
	return engine.MarshalResult(res)
}
