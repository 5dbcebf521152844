package engine

import (
	"fmt"

	gerrors "github.com/gravitylab/gravita/pkg/errors"
)

// Pass steps, used to identify where a group failed.
const (
	StepMeasureContainer = 1
	StepMeasureChildren  = 2
	StepGroupCenter      = 3
	StepDelta            = 4
	StepPadding          = 5
	StepOverflowClamp    = 6
	StepAlignment        = 7
	StepWriteBack        = 8
)

// GroupLayoutError reports that one group could not complete its pass.
// It carries the parent identifier and the step at which the pass failed.
// Other groups in the same pass are unaffected.
type GroupLayoutError struct {
	Parent string
	Step   int
	Err    error
}

// Error implements the error interface.
func (e *GroupLayoutError) Error() string {
	return fmt.Sprintf("%s: group %q failed at step %d: %v",
		gerrors.ErrCodeGroupLayout, e.Parent, e.Step, e.Err)
}

// Unwrap returns the underlying cause.
func (e *GroupLayoutError) Unwrap() error { return e.Err }

// groupErr wraps err into a GroupLayoutError for the given parent and step.
func groupErr(parent string, step int, err error) *GroupLayoutError {
	return &GroupLayoutError{Parent: parent, Step: step, Err: err}
}
