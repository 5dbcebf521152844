package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravitylab/gravita/pkg/cache"
	"github.com/gravitylab/gravita/pkg/config"
	"github.com/gravitylab/gravita/pkg/dom"
	"github.com/gravitylab/gravita/pkg/engine"
	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/observability"
	"github.com/gravitylab/gravita/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options, but each call needs its own document.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline.
//
// The layout pass always runs, because the document must be mutated for
// the SVG renderer and the scene export; the cache covers the rendered
// artifacts, where Graphviz makes rendering the expensive stage. The
// layout result is additionally cached under its scene+config key so
// repeat runs are observable as hits.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		PassID:    uuid.New().String(),
		Artifacts: make(map[string][]byte),
		CacheInfo: CacheInfo{ArtifactHits: make(map[string]bool)},
	}

	// Stage 1: Parse
	parseStart := time.Now()
	doc, sceneData, err := r.loadScene(opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.SceneHash = cache.Hash(sceneData)
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.ElementCount = doc.Len()

	opts.Logger.Info("parsed scene",
		"elements", doc.Len(),
		"hash", result.SceneHash[:12],
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	cfg := opts.Configuration()
	layoutKey := r.Keyer.LayoutKey(result.SceneHash, cache.LayoutKeyOpts{
		K:           cfg.K,
		Density:     cfg.Density,
		Gravitation: gravitationKey(cfg),
	})

	layoutStart := time.Now()
	layout, err := engine.Layout(ctx, doc, cfg)
	if err != nil {
		return nil, err
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.GroupCount = len(layout.Groups)
	result.Stats.FailureCount = len(layout.Failures)

	resultJSON, err := engine.MarshalResult(layout)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal layout result")
	}
	result.CacheInfo.LayoutHit = r.recordLayout(ctx, layoutKey, resultJSON, opts.Refresh)

	opts.Logger.Info("computed layout",
		"groups", len(layout.Groups),
		"failures", len(layout.Failures),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	layoutHash := cache.Hash(resultJSON)
	for _, format := range opts.Formats {
		data, hit, err := r.renderFormat(ctx, doc, layout, resultJSON, layoutHash, format, opts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		result.Artifacts[format] = data
		result.CacheInfo.ArtifactHits[format] = hit
	}
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// loadScene parses the inline scene or reads the scene file.
func (r *Runner) loadScene(opts Options) (*dom.Document, []byte, error) {
	data := []byte(opts.Scene)
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(opts.ScenePath)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "read %s", opts.ScenePath)
		}
	}
	doc, err := dom.ParseScene(data)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// recordLayout checks whether an identical run is already cached, and
// caches this run's result. Returns whether the check was a hit.
func (r *Runner) recordLayout(ctx context.Context, key string, resultJSON []byte, refresh bool) bool {
	if !refresh {
		if _, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "layout")
			return true
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}
	if err := r.Cache.Set(ctx, key, resultJSON, cache.TTLLayout); err == nil {
		observability.Cache().OnCacheSet(ctx, "layout", len(resultJSON))
	}
	return false
}

// renderFormat produces one artifact, consulting the artifact cache for
// the formats worth caching.
func (r *Runner) renderFormat(ctx context.Context, doc *dom.Document, layout *engine.Result, resultJSON []byte, layoutHash, format string, opts Options) ([]byte, bool, error) {
	// The JSON artifact is the marshaled result itself.
	if format == FormatJSON {
		return resultJSON, false, nil
	}

	key := r.Keyer.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{
		Format:    format,
		ShowGrid:  opts.ShowGrid,
		Attractor: opts.ShowAttractor,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSVG:
		data, err = render.SVG(doc, layout, render.Options{
			ShowGrid:      opts.ShowGrid,
			ShowAttractor: opts.ShowAttractor,
		})
	case FormatDOT:
		data = []byte(render.ToDOT(doc, layout))
	case FormatGraph:
		data, err = render.DOTToSVG(ctx, render.ToDOT(doc, layout))
	default:
		err = errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
	}
	if err != nil {
		return nil, false, err
	}

	if setErr := r.Cache.Set(ctx, key, data, cache.TTLArtifact); setErr == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// applyLogger ensures options carry a usable logger, preferring the
// runner's when the caller did not set one.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// gravitationKey serializes the gravitation nodes for cache keying.
func gravitationKey(cfg config.Configuration) string {
	data, _ := json.Marshal(cfg.Gravitation)
	return string(data)
}
