package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gravitylab/gravita/pkg/cache"
	"github.com/gravitylab/gravita/pkg/errors"
)

const testSceneJSON = `{
	"width": 800,
	"height": 600,
	"elements": [
		{
			"id": "hero",
			"width": 800,
			"height": 400,
			"children": [
				{"id": "title", "width": 400, "height": 60, "gravitate": true,
				 "margin": {"top": 8, "right": 8, "bottom": 8, "left": 8}},
				{"id": "cta", "width": 160, "height": 48, "gravitate": true,
				 "margin": {"top": 6, "right": 6, "bottom": 6, "left": 6}}
			]
		}
	]
}`

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Scene: []byte(testSceneJSON)}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("default formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("logger should default to a discard logger")
	}

	cfg := opts.Configuration()
	if cfg.K == 0 || cfg.Density == 0 {
		t.Errorf("configuration defaults not applied: %+v", cfg)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no scene", Options{}, errors.ErrCodeInvalidScene},
		{"bad format", Options{Scene: []byte(testSceneJSON), Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
		{"bad k", Options{Scene: []byte(testSceneJSON), K: -1}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("ValidateAndSetDefaults() should fail")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error code = %q, want %q", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Scene: []byte(testSceneJSON), Formats: []string{FormatSVG}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call error = %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("formats changed on second call: %v", opts.Formats)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{FormatJSON, FormatSVG, FormatDOT, FormatGraph} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateFormat("pdf"); err == nil {
		t.Error("ValidateFormat(pdf) should fail")
	}
}

func TestExecuteInlineScene(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{
		Scene:   []byte(testSceneJSON),
		Formats: []string{FormatJSON, FormatSVG, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.PassID == "" {
		t.Error("pass ID should be assigned")
	}
	if res.SceneHash == "" {
		t.Error("scene hash should be computed")
	}
	if res.Stats.ElementCount != 4 {
		t.Errorf("element count = %d, want 4 (root, hero, title, cta)", res.Stats.ElementCount)
	}
	if res.Stats.GroupCount != 1 || res.Stats.FailureCount != 0 {
		t.Errorf("groups=%d failures=%d, want 1 and 0",
			res.Stats.GroupCount, res.Stats.FailureCount)
	}

	for _, format := range []string{FormatJSON, FormatSVG, FormatDOT} {
		if len(res.Artifacts[format]) == 0 {
			t.Errorf("artifact %q is empty", format)
		}
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph") {
		t.Error("dot artifact is not a digraph")
	}

	// The document reflects the pass writes.
	title, ok := res.Document.ByID("title")
	if !ok {
		t.Fatal("title missing from result document")
	}
	el, _ := res.Document.Element(title)
	if el.Style.Margin.Top == 8 {
		t.Error("document styles should reflect layout writes")
	}
}

func TestExecuteScenePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(testSceneJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{ScenePath: path})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Artifacts[FormatJSON]) == 0 {
		t.Error("json artifact is empty")
	}
}

func TestExecuteMissingSceneFile(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{ScenePath: "/does/not/exist.json"})
	if err == nil {
		t.Fatal("Execute() should fail on a missing scene file")
	}
	if !errors.Is(err, errors.ErrCodeInvalidScene) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidScene)
	}
}

func TestExecuteArtifactCacheHit(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	opts := Options{Scene: []byte(testSceneJSON), Formats: []string{FormatSVG}}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.ArtifactHits[FormatSVG] {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit the layout cache")
	}
	if !second.CacheInfo.ArtifactHits[FormatSVG] {
		t.Error("second run should hit the artifact cache")
	}
	if string(first.Artifacts[FormatSVG]) != string(second.Artifacts[FormatSVG]) {
		t.Error("cached artifact differs from the rendered one")
	}

	// Refresh bypasses both caches.
	refreshOpts := opts
	refreshOpts.Refresh = true
	third, err := r.Execute(context.Background(), refreshOpts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.ArtifactHits[FormatSVG] {
		t.Errorf("refresh run should miss: %+v", third.CacheInfo)
	}
}

func TestExecuteCacheKeyTracksConfig(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)

	if _, err := r.Execute(context.Background(), Options{Scene: []byte(testSceneJSON)}); err != nil {
		t.Fatal(err)
	}

	// Same scene, different spring constant: a fresh layout key.
	res, err := r.Execute(context.Background(), Options{Scene: []byte(testSceneJSON), K: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit {
		t.Error("different configuration must not hit the layout cache")
	}
}

func TestGravitationKeyDeterministic(t *testing.T) {
	opts := Options{Scene: []byte(testSceneJSON)}
	cfg := opts.Configuration()

	if gravitationKey(cfg) != gravitationKey(cfg) {
		t.Error("gravitationKey must be deterministic")
	}
}
