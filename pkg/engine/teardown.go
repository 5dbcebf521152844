package engine

import (
	"github.com/gravitylab/gravita/pkg/dom"
)

// Receipt records the pre-pass style of every element a pass wrote to.
// Reverting a receipt restores those styles, supporting removal and
// re-initialization without leaking style overrides.
type Receipt struct {
	order []dom.Handle
	prior map[dom.Handle]dom.Style
}

func newReceipt() *Receipt {
	return &Receipt{prior: make(map[dom.Handle]dom.Style)}
}

// Len returns the number of elements the receipt covers.
func (r *Receipt) Len() int { return len(r.order) }

// record snapshots the element's current style, once per handle.
// Later writes to the same handle keep the first snapshot, so revert
// always restores the true pre-pass value.
func (r *Receipt) record(a Applier, h dom.Handle) error {
	if _, done := r.prior[h]; done {
		return nil
	}
	s, err := a.SnapshotStyle(h)
	if err != nil {
		return err
	}
	r.order = append(r.order, h)
	r.prior[h] = s
	return nil
}

// merge absorbs a group-scoped receipt into the pass receipt.
// Snapshots already present win; they are older.
func (r *Receipt) merge(other *Receipt) {
	for _, h := range other.order {
		if _, done := r.prior[h]; done {
			continue
		}
		r.order = append(r.order, h)
		r.prior[h] = other.prior[h]
	}
}

// revert restores every recorded style in reverse write order.
func (r *Receipt) revert(a Applier) error {
	for i := len(r.order) - 1; i >= 0; i-- {
		h := r.order[i]
		if err := a.RestoreStyle(h, r.prior[h]); err != nil {
			return err
		}
	}
	return nil
}

// Revert undoes every style mutation recorded in the receipt of a prior
// pass. After reverting, the document is byte-for-byte back at its
// pre-pass styles.
func Revert(a Applier, r *Receipt) error {
	if r == nil {
		return nil
	}
	return r.revert(a)
}
