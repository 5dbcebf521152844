// Package pipeline provides the core layout pipeline for Gravita.
//
// This package implements the complete parse → layout → render pipeline
// that can be used by CLI and API components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Load the scene file into an element tree
//  2. Layout: Run the gravitation pass over the discovered groups
//  3. Render: Generate output in various formats (JSON, SVG, DOT, graph)
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ScenePath: "scene.json",
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravitylab/gravita/pkg/config"
	"github.com/gravitylab/gravita/pkg/dom"
	"github.com/gravitylab/gravita/pkg/engine"
	"github.com/gravitylab/gravita/pkg/errors"
)

// Format constants for output formats.
const (
	// FormatJSON emits the raw pass result.
	FormatJSON = "json"

	// FormatSVG emits a visual snapshot of the laid-out scene.
	FormatSVG = "svg"

	// FormatDOT emits the containment tree in Graphviz DOT text.
	FormatDOT = "dot"

	// FormatGraph emits the containment tree rendered to SVG via Graphviz.
	FormatGraph = "graph"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:  true,
	FormatSVG:   true,
	FormatDOT:   true,
	FormatGraph: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, svg, dot, graph)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Scene options. Exactly one of ScenePath and Scene must be set;
	// Scene takes precedence (the API submits scenes inline).
	ScenePath string          `json:"scene_path,omitempty"`
	Scene     json.RawMessage `json:"scene,omitempty"`

	// Layout options. Zero values fall back to configuration defaults.
	K           float64                  `json:"k,omitempty"`
	Density     float64                  `json:"density,omitempty"`
	Gravitation []config.GravitationNode `json:"gravitation,omitempty"`

	// Render options
	Formats       []string `json:"formats,omitempty"`
	ShowGrid      bool     `json:"show_grid,omitempty"`
	ShowAttractor bool     `json:"show_attractor,omitempty"`

	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Scene) == 0 && o.ScenePath == "" {
		return errors.New(errors.ErrCodeInvalidScene, "scene or scene_path is required")
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := o.Configuration().Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
}

// Configuration builds the layout configuration from the options, with
// defaults applied for any zero fields.
func (o *Options) Configuration() config.Configuration {
	return config.Configuration{
		Gravitation: o.Gravitation,
		K:           o.K,
		Density:     o.Density,
	}.WithDefaults()
}

// =============================================================================
// Result - Pipeline Outputs
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// PassID uniquely identifies this pipeline run.
	PassID string

	// Document is the element tree after the pass; its styles reflect
	// the layout writes.
	Document *dom.Document

	// SceneHash is the content hash of the input scene.
	SceneHash string

	// Layout is the pass outcome.
	Layout *engine.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which artifacts came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ElementCount int
	GroupCount   int
	FailureCount int
	ParseTime    time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits per pipeline stage.
type CacheInfo struct {
	// LayoutHit reports whether an identical scene and configuration was
	// laid out before within the layout TTL. The pass still runs; the
	// engine must mutate the document for downstream rendering.
	LayoutHit bool

	// ArtifactHits reports, per format, whether the artifact came from
	// the cache.
	ArtifactHits map[string]bool
}
