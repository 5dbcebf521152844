// Package force implements the force model of the gravitational layout.
//
// The model is a one-shot deterministic formula, not a physics simulation:
// a child's "force" scales linearly with its own height, and each of its
// four margins scales with the author-specified margin for that side.
//
//	force          = height * k
//	margin(side)   = (authoredMargin(side) / density) * force
//
// Elements with more vertical mass get proportionally larger spacing;
// density scales the result back down so defaults stay visually reasonable.
// A force value is a pure function of the child's own height and the two
// configuration constants, never of sibling state.
package force

import (
	"math"

	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/geometry"
)

// Scalar computes the force for a child of the given height.
// Height and k must be non-negative and finite.
func Scalar(height, k float64) (float64, error) {
	if err := checkNonNegative("height", height); err != nil {
		return 0, err
	}
	if err := checkNonNegative("k", k); err != nil {
		return 0, err
	}
	return height * k, nil
}

// Margin computes one directional margin from the author-specified margin
// value for that side, the density constant, and a previously computed force.
func Margin(authored, density, force float64) (float64, error) {
	if err := checkNonNegative("margin", authored); err != nil {
		return 0, err
	}
	if err := checkNonNegative("force", force); err != nil {
		return 0, err
	}
	if math.IsNaN(density) || math.IsInf(density, 0) || density <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidGeometry, "density must be positive and finite, got %v", density)
	}
	return (authored / density) * force, nil
}

// Margins applies Margin independently to all four sides.
func Margins(authored geometry.Margins, density, force float64) (geometry.Margins, error) {
	var out geometry.Margins
	var err error
	if out.Top, err = Margin(authored.Top, density, force); err != nil {
		return geometry.Margins{}, err
	}
	if out.Right, err = Margin(authored.Right, density, force); err != nil {
		return geometry.Margins{}, err
	}
	if out.Bottom, err = Margin(authored.Bottom, density, force); err != nil {
		return geometry.Margins{}, err
	}
	if out.Left, err = Margin(authored.Left, density, force); err != nil {
		return geometry.Margins{}, err
	}
	return out, nil
}

func checkNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New(errors.ErrCodeInvalidGeometry, "%s must be finite, got %v", name, v)
	}
	if v < 0 {
		return errors.New(errors.ErrCodeInvalidGeometry, "%s must be non-negative, got %v", name, v)
	}
	return nil
}
