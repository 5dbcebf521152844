// Package cache provides pluggable byte caches for pipeline results.
//
// Three backends are provided:
//   - FileCache: directory-backed cache for CLI usage
//   - RedisCache: shared cache for multi-instance API deployments
//   - NullCache: no-op cache for tests or when caching is disabled
//
// Keys are derived through a Keyer so that CLI, API, and tests agree on
// what makes two layout runs identical: the scene content hash plus the
// configuration for layouts, and the layout hash plus render options for
// artifacts.
package cache

import (
	"context"
	"time"
)

// Default TTLs per key type.
const (
	// TTLLayout is how long computed layout results stay cached.
	TTLLayout = 24 * time.Hour

	// TTLArtifact is how long rendered artifacts stay cached.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the configuration fields that distinguish layout runs
// over the same scene.
type LayoutKeyOpts struct {
	K           float64
	Density     float64
	Gravitation string // serialized gravitation node list
}

// ArtifactKeyOpts are the render options that distinguish artifacts built
// from the same layout.
type ArtifactKeyOpts struct {
	Format    string
	ShowGrid  bool
	Attractor bool
}

// Keyer generates cache keys. Implementations must be deterministic.
type Keyer interface {
	// LayoutKey generates a key for a computed layout result.
	LayoutKey(sceneHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a computed layout result.
func (k *DefaultKeyer) LayoutKey(sceneHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", sceneHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
