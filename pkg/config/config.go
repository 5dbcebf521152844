// Package config defines the immutable configuration of a layout pass.
//
// A Configuration is a value: it is passed into each layout invocation and
// never mutated by the engine, so concurrent invocations over different
// documents cannot leak options into each other. Configurations come from
// three places, in increasing precedence: built-in defaults, a TOML file
// (gravita.toml), and per-invocation overrides (CLI flags, API request
// fields).
//
// # File format
//
//	k = 0.618
//	density = 10
//
//	[[gravitation]]
//	name = "core"
//	top = "50%"
//	left = "50%"
package config

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/geometry"
)

// Default constants for the force model.
const (
	// DefaultK is the force-scaling constant, golden-ratio-derived.
	DefaultK = 0.618

	// DefaultDensity inversely scales margin magnitude.
	DefaultDensity = 10.0
)

// GravitationNode is a named attraction point. Its position is expressed
// as percentage offsets of the root box and resolved once per layout pass
// to absolute page coordinates.
type GravitationNode struct {
	Name string `toml:"name" json:"name"`
	Top  string `toml:"top" json:"top"`
	Left string `toml:"left" json:"left"`
}

// Resolve converts the node's percentage offsets into absolute page
// coordinates against the given root box.
func (n GravitationNode) Resolve(rootWidth, rootHeight float64) (geometry.Point, error) {
	top, err := ParsePercent(n.Top)
	if err != nil {
		return geometry.Point{}, errors.Wrap(errors.ErrCodeInvalidConfig, err,
			"gravitation node %q: top", n.Name)
	}
	left, err := ParsePercent(n.Left)
	if err != nil {
		return geometry.Point{}, errors.Wrap(errors.ErrCodeInvalidConfig, err,
			"gravitation node %q: left", n.Name)
	}
	return geometry.Point{
		Top:  rootHeight * top,
		Left: rootWidth * left,
	}, nil
}

// Configuration holds the tunables of one layout run.
type Configuration struct {
	// Gravitation lists the configured attraction points. Layout uses the
	// first rendered node as the effective attractor per group.
	Gravitation []GravitationNode `toml:"gravitation" json:"gravitation"`

	// K is the force-scaling constant (default 0.618).
	K float64 `toml:"k" json:"k"`

	// Density inversely scales margin magnitude (default 10).
	Density float64 `toml:"density" json:"density"`
}

// Default returns the built-in configuration: a single centered
// gravitation node and the default force constants.
func Default() Configuration {
	return Configuration{
		Gravitation: []GravitationNode{{Name: "core", Top: "50%", Left: "50%"}},
		K:           DefaultK,
		Density:     DefaultDensity,
	}
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Configuration) WithDefaults() Configuration {
	if c.K == 0 {
		c.K = DefaultK
	}
	if c.Density == 0 {
		c.Density = DefaultDensity
	}
	if len(c.Gravitation) == 0 {
		c.Gravitation = Default().Gravitation
	}
	return c
}

// Validate checks the configuration for usable values.
func (c Configuration) Validate() error {
	if math.IsNaN(c.K) || math.IsInf(c.K, 0) || c.K < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "k must be non-negative and finite, got %v", c.K)
	}
	if math.IsNaN(c.Density) || math.IsInf(c.Density, 0) || c.Density <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "density must be positive and finite, got %v", c.Density)
	}
	if len(c.Gravitation) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one gravitation node is required")
	}
	for _, n := range c.Gravitation {
		if err := errors.ValidateGravitationName(n.Name); err != nil {
			return err
		}
		if _, err := ParsePercent(n.Top); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "gravitation node %q: top", n.Name)
		}
		if _, err := ParsePercent(n.Left); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "gravitation node %q: left", n.Name)
		}
	}
	return nil
}

// LoadFile reads a TOML configuration file and applies defaults for any
// omitted fields.
func LoadFile(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, err
	}
	var c Configuration
	if err := toml.Unmarshal(data, &c); err != nil {
		return Configuration{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

// ParsePercent parses a percentage string like "50%" into a fraction
// (0.5). A bare number is also treated as a percentage.
func ParsePercent(s string) (float64, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "%")
	if trimmed == "" {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "empty percentage value")
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid percentage %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid percentage %q", s)
	}
	return v / 100, nil
}
