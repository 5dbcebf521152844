// Package engine implements the group layout pass: the single-shot
// force/centering computation that pulls each group's aggregate child
// block toward the configured gravitation node without overflowing its
// container.
//
// # Algorithm
//
// For every discovered group, in discovery order, the engine:
//
//  1. Measures the container and resolves the attractor point.
//  2. Measures each child in document order, derives its force and four
//     force-scaled margins, and accumulates the group's content size.
//  3. Computes the content center from the container offset and the
//     accumulated content size.
//  4. Computes the signed per-axis delta from content center to attractor.
//  5. Derives the container's top padding from the delta, clamped so
//     content is never pushed beyond the container (first matching rule
//     wins): zero when content already fills the container, the full
//     delta minus the page-level offset bias when there is room, the
//     remaining slack otherwise.
//  6. Re-measures each child (reads reflect this pass's margin writes)
//     and overrides the top/bottom margins of any child that would
//     overflow the container with centering margins.
//  7. Assigns a text alignment to children whose authored alignment is
//     the start sentinel, comparing the child's horizontal center against
//     the attractor's horizontal offset.
//  8. Writes the computed values back through the style applier.
//
// Writes for a group happen only after steps 1-5 have fully succeeded,
// and any failure in the re-measurement stage rolls the group's writes
// back, so a failed group's elements always retain their pre-pass styles.
// Failures are isolated per group: one group's error never aborts its
// siblings.
//
// The pass is synchronous and single-threaded, and processes groups in
// strict discovery order and children in strict document order. Re-entrant
// invocations over the same document are the caller's responsibility to
// serialize.
package engine

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravitylab/gravita/pkg/config"
	"github.com/gravitylab/gravita/pkg/discovery"
	"github.com/gravitylab/gravita/pkg/dom"
	gerrors "github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/force"
	"github.com/gravitylab/gravita/pkg/geometry"
	"github.com/gravitylab/gravita/pkg/observability"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Measurer is the geometry reader the engine consumes. Measurements must
// reflect style writes applied earlier in the same pass.
type Measurer interface {
	// Measure returns a read-only geometry snapshot for the element.
	Measure(h dom.Handle) (geometry.Geometry, error)

	// AuthoredStyle returns the immutable author-specified style. The
	// force model uses authored margins as its base multiplier.
	AuthoredStyle(h dom.Handle) (dom.Style, error)

	// ID returns a stable identifier for the element, used in results
	// and error reports.
	ID(h dom.Handle) string
}

// Applier is the style writer the engine consumes. Each delta property is
// optional and independent; the last write to a property wins.
type Applier interface {
	Apply(h dom.Handle, delta dom.StyleDelta) error
	SnapshotStyle(h dom.Handle) (dom.Style, error)
	RestoreStyle(h dom.Handle, s dom.Style) error
}

// =============================================================================
// Engine
// =============================================================================

// Engine runs layout passes against a measurer/applier pair.
// A *dom.Document satisfies both interfaces.
type Engine struct {
	m      Measurer
	a      Applier
	logger *log.Logger
}

// New creates an engine. A nil logger disables logging.
func New(m Measurer, a Applier, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Engine{m: m, a: a, logger: logger}
}

// Layout discovers groups in the document and runs a full pass with the
// given configuration. This is the common entry point for hosts that own
// a *dom.Document.
func Layout(ctx context.Context, doc *dom.Document, cfg config.Configuration) (*Result, error) {
	e := New(doc, doc, nil)
	return e.Run(ctx, doc.Root(), discovery.Discover(doc), cfg)
}

// Run executes one layout pass over the given groups.
//
// The returned Result aggregates per-group failures instead of aborting
// on the first error; the error return is reserved for invocation-level
// problems (invalid configuration, unmeasurable root, unresolvable
// attractor). The context is passed through to observability hooks only;
// a started pass runs to completion.
func (e *Engine) Run(ctx context.Context, root dom.Handle, groups []discovery.Group, cfg config.Configuration) (*Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rootGeom, err := e.m.Measure(root)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeElementNotRendered, err, "measure root")
	}

	attractor, attractorName, err := resolveAttractor(cfg, rootGeom)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Layout().OnPassStart(ctx, len(groups))

	result := &Result{
		Attractor: attractorName,
		Receipt:   newReceipt(),
	}

	for _, g := range groups {
		parentID := e.m.ID(g.Parent)
		groupStart := time.Now()
		observability.Layout().OnGroupStart(ctx, parentID, len(g.Children))

		metrics, glErr := e.layoutGroup(g, attractor, cfg, result.Receipt)
		if glErr != nil {
			e.logger.Warn("group layout failed",
				"parent", parentID, "step", glErr.Step, "err", glErr.Err)
			result.Failures = append(result.Failures, GroupFailure{
				Parent:  glErr.Parent,
				Step:    glErr.Step,
				Message: glErr.Err.Error(),
			})
			observability.Layout().OnGroupComplete(ctx, parentID, time.Since(groupStart), glErr)
			continue
		}

		e.logger.Debug("group laid out",
			"parent", parentID,
			"children", len(metrics.Children),
			"padding_top", metrics.PaddingTop)
		result.Groups = append(result.Groups, metrics)
		observability.Layout().OnGroupComplete(ctx, parentID, time.Since(groupStart), nil)
	}

	observability.Layout().OnPassComplete(ctx, len(result.Groups), len(result.Failures), time.Since(start))
	return result, nil
}

// resolveAttractor picks the first gravitation node that resolves against
// the root box.
func resolveAttractor(cfg config.Configuration, root geometry.Geometry) (geometry.Point, string, error) {
	var lastErr error
	for _, n := range cfg.Gravitation {
		p, err := n.Resolve(root.OuterWidth, root.OuterHeight)
		if err != nil {
			lastErr = err
			continue
		}
		return p, n.Name, nil
	}
	return geometry.Point{}, "", gerrors.Wrap(gerrors.ErrCodeInvalidConfig, lastErr,
		"no gravitation node could be resolved")
}

// childCalc holds the per-child values accumulated during step 2.
type childCalc struct {
	handle   dom.Handle
	geom     geometry.Geometry
	authored dom.Style
	force    float64
	margin   geometry.Margins
}

// layoutGroup runs steps 1-8 for one group. On failure, any writes
// already applied for this group are rolled back before returning.
func (e *Engine) layoutGroup(g discovery.Group, attractor geometry.Point, cfg config.Configuration, pass *Receipt) (GroupMetrics, *GroupLayoutError) {
	parentID := e.m.ID(g.Parent)

	// Step 1: container geometry.
	aGeom, err := e.m.Measure(g.Parent)
	if err != nil {
		return GroupMetrics{}, groupErr(parentID, StepMeasureContainer, err)
	}
	if aGeom.OuterWidth <= 0 || aGeom.OuterHeight <= 0 {
		return GroupMetrics{}, groupErr(parentID, StepMeasureContainer,
			gerrors.New(gerrors.ErrCodeInvalidGeometry, "container %q has zero size", parentID))
	}
	aHeight := aGeom.OuterHeight

	// Step 2: per-child measurement and force-derived margins, in
	// document order. No writes yet.
	var (
		calcs           []childCalc
		gWidth, gHeight float64
	)
	for _, ch := range g.Children {
		geom, err := e.m.Measure(ch)
		if err != nil {
			return GroupMetrics{}, groupErr(parentID, StepMeasureChildren, err)
		}
		authored, err := e.m.AuthoredStyle(ch)
		if err != nil {
			return GroupMetrics{}, groupErr(parentID, StepMeasureChildren, err)
		}
		f, err := force.Scalar(geom.OuterHeight, cfg.K)
		if err != nil {
			return GroupMetrics{}, groupErr(parentID, StepMeasureChildren, err)
		}
		margin, err := force.Margins(authored.Margin, cfg.Density, f)
		if err != nil {
			return GroupMetrics{}, groupErr(parentID, StepMeasureChildren, err)
		}

		gWidth += margin.Left + geom.OuterWidth + margin.Right
		gHeight += margin.Top + geom.OuterHeight + margin.Bottom
		calcs = append(calcs, childCalc{
			handle:   ch,
			geom:     geom,
			authored: authored,
			force:    f,
			margin:   margin,
		})
	}

	// Step 3: content center.
	center := geometry.Point{
		Top:  aGeom.Offset.Top + gHeight/2,
		Left: aGeom.Offset.Left + gWidth/2,
	}

	// Step 4: signed delta to the attractor.
	delta := attractor.Sub(center)

	// Step 5: vertical padding policy, first match wins.
	var paddingTop float64
	switch {
	case gHeight >= aHeight:
		// Content already fills or overflows the container.
		paddingTop = 0
	case gHeight <= aHeight-delta.Top:
		// Full delta fits; remove the page-level offset bias.
		paddingTop = delta.Top - aGeom.Offset.Top
	default:
		// Clamp to the container's remaining slack.
		paddingTop = aHeight - gHeight
	}

	// Steps 1-5 are complete; everything past this point writes. A
	// group-local receipt lets a late failure roll the writes back so a
	// failed group keeps its pre-pass styles.
	local := newReceipt()
	fail := func(step int, err error) (GroupMetrics, *GroupLayoutError) {
		_ = local.revert(e.a)
		return GroupMetrics{}, groupErr(parentID, step, err)
	}

	// Step 8a: write force-derived margins and container padding.
	for i := range calcs {
		c := &calcs[i]
		if err := local.record(e.a, c.handle); err != nil {
			return fail(StepWriteBack, err)
		}
		if err := e.a.Apply(c.handle, marginDelta(c.margin)); err != nil {
			return fail(StepWriteBack, err)
		}
	}
	if err := local.record(e.a, g.Parent); err != nil {
		return fail(StepWriteBack, err)
	}
	if err := e.a.Apply(g.Parent, dom.StyleDelta{PaddingTop: &paddingTop}); err != nil {
		return fail(StepWriteBack, err)
	}

	metrics := GroupMetrics{
		Parent:          parentID,
		ContainerWidth:  aGeom.OuterWidth,
		ContainerHeight: aHeight,
		ContentWidth:    gWidth,
		ContentHeight:   gHeight,
		ContainerOffset: aGeom.Offset,
		AttractorOffset: attractor,
		ContentCenter:   center,
		PaddingTop:      paddingTop,
	}

	// Steps 6-7: re-measure each child (geometry now reflects the
	// margin and padding writes), clamp overflowing children, and assign
	// alignment to children the author left at the start sentinel.
	for i := range calcs {
		c := &calcs[i]
		geom, err := e.m.Measure(c.handle)
		if err != nil {
			return fail(StepOverflowClamp, err)
		}

		cm := ChildMetrics{
			ID:     e.m.ID(c.handle),
			Width:  geom.OuterWidth,
			Height: geom.OuterHeight,
			Force:  c.force,
			Center: geom.Center(),
			Margin: c.margin,
		}

		// Step 6: overflow guard. A child whose height plus twice its
		// guard margin exceeds the container gets centering margins
		// instead, overriding the force-derived values.
		guard := geom.OuterHeight * cfg.K
		if geom.OuterHeight+2*guard > aHeight {
			half := (aHeight - geom.OuterHeight) / 2
			clamp := dom.StyleDelta{MarginTop: &half, MarginBottom: &half}
			if err := e.a.Apply(c.handle, clamp); err != nil {
				return fail(StepOverflowClamp, err)
			}
			cm.Margin.Top = half
			cm.Margin.Bottom = half
			cm.Clamped = true
		}

		// Step 7: alignment heuristic, only for the start sentinel.
		if c.authored.TextAlign.IsStart() {
			align := alignFor(geom.Center().Left, attractor.Left)
			if err := e.a.Apply(c.handle, dom.StyleDelta{TextAlign: &align}); err != nil {
				return fail(StepAlignment, err)
			}
			cm.Align = align
		}

		metrics.Children = append(metrics.Children, cm)
	}

	pass.merge(local)
	return metrics, nil
}

// marginDelta converts computed margins into a style delta.
func marginDelta(m geometry.Margins) dom.StyleDelta {
	return dom.StyleDelta{
		MarginTop:    &m.Top,
		MarginRight:  &m.Right,
		MarginBottom: &m.Bottom,
		MarginLeft:   &m.Left,
	}
}

// alignFor maps a child's horizontal center c and the attractor's
// horizontal offset g onto a text alignment. The asymmetric thresholds
// (g/2 versus 1.5c) are a compatibility contract and must not be
// "corrected".
func alignFor(c, g float64) geometry.Align {
	switch {
	case c < g/2:
		return geometry.AlignLeft
	case g < 1.5*c:
		return geometry.AlignCenter
	default:
		return geometry.AlignRight
	}
}
