package engine

import (
	"encoding/json"
	"fmt"

	"github.com/gravitylab/gravita/pkg/geometry"
)

// =============================================================================
// Result - Serializable Layout Outcome
// =============================================================================

// ChildMetrics captures the values computed for one child during a pass.
type ChildMetrics struct {
	ID      string           `json:"id" bson:"id"`
	Width   float64          `json:"width" bson:"width"`
	Height  float64          `json:"height" bson:"height"`
	Force   float64          `json:"force" bson:"force"`
	Center  geometry.Point   `json:"center" bson:"center"`
	Margin  geometry.Margins `json:"margin" bson:"margin"`
	Clamped bool             `json:"clamped,omitempty" bson:"clamped,omitempty"`

	// Align is the final alignment written to the child, empty when the
	// heuristic did not fire (explicit author alignment is never touched).
	Align geometry.Align `json:"align,omitempty" bson:"align,omitempty"`
}

// GroupMetrics captures the aggregate values computed for one group.
type GroupMetrics struct {
	Parent          string         `json:"parent" bson:"parent"`
	ContainerWidth  float64        `json:"container_width" bson:"container_width"`
	ContainerHeight float64        `json:"container_height" bson:"container_height"`
	ContentWidth    float64        `json:"content_width" bson:"content_width"`
	ContentHeight   float64        `json:"content_height" bson:"content_height"`
	ContainerOffset geometry.Point `json:"container_offset" bson:"container_offset"`
	AttractorOffset geometry.Point `json:"attractor_offset" bson:"attractor_offset"`
	ContentCenter   geometry.Point `json:"content_center" bson:"content_center"`
	PaddingTop      float64        `json:"padding_top" bson:"padding_top"`
	Children        []ChildMetrics `json:"children" bson:"children"`
}

// GroupFailure is the serializable form of a GroupLayoutError.
type GroupFailure struct {
	Parent  string `json:"parent" bson:"parent"`
	Step    int    `json:"step" bson:"step"`
	Message string `json:"message" bson:"message"`
}

// Result is the outcome of one layout pass: the metrics of every group
// that completed, and one failure per group that did not. A failed group
// never contributes partial metrics or partial style writes.
type Result struct {
	Attractor string         `json:"attractor" bson:"attractor"`
	Groups    []GroupMetrics `json:"groups" bson:"groups"`
	Failures  []GroupFailure `json:"failures,omitempty" bson:"failures,omitempty"`

	// Receipt records the style snapshots needed to revert this pass.
	// It is not serialized; teardown only makes sense against the live
	// document the pass mutated.
	Receipt *Receipt `json:"-" bson:"-"`
}

// OK reports whether every group completed.
func (r *Result) OK() bool { return len(r.Failures) == 0 }

// Err returns an aggregated error when any group failed, nil otherwise.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("layout failed for %d of %d groups", len(r.Failures), len(r.Failures)+len(r.Groups))
}

// MarshalResult serializes a Result to pretty-printed JSON bytes.
func MarshalResult(r *Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// UnmarshalResult deserializes JSON bytes into a Result.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal layout result: %w", err)
	}
	return &r, nil
}
