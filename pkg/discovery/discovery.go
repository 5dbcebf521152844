// Package discovery builds the parent/children grouping structure the
// layout engine consumes.
//
// A single walk over the document collects every element flagged for
// layout and groups it under its direct parent. Both the group list and
// each group's child list preserve document order, and a parent seen more
// than once never yields a duplicate group. The engine's accumulation
// passes depend on both guarantees.
package discovery

import (
	"github.com/gravitylab/gravita/pkg/dom"
)

// Group is one parent container and its ordered list of flagged children.
// Handles are stable across the engine's two measurement passes within a
// layout invocation.
type Group struct {
	Parent   dom.Handle
	Children []dom.Handle
}

// Discover scans the document once and returns all groups in document
// order. Calling it twice on an unchanged document yields identical
// groups: same parents, same child ordering.
func Discover(d *dom.Document) []Group {
	var groups []Group
	index := make(map[dom.Handle]int)

	d.Walk(func(h dom.Handle, el *dom.Element) bool {
		if !el.Gravitate || h == d.Root() {
			return true
		}
		parent := d.Parent(h)
		i, seen := index[parent]
		if !seen {
			i = len(groups)
			index[parent] = i
			groups = append(groups, Group{Parent: parent})
		}
		groups[i].Children = append(groups[i].Children, h)
		return true
	})

	return groups
}
