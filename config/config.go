// Package config loads the world settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/bvh"
	"github.com/akmonengine/impulse/resolver"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidGravityAxis  = errors.New("gravity axis must be a non-zero vector")
	ErrInvalidIterations   = errors.New("iteration count must be positive")
	ErrInvalidAirDensity   = errors.New("air density must not be negative")
	ErrInvalidIntegration  = errors.New("unknown integration mode")
	ErrInvalidResolverMode = errors.New("unknown resolver mode")
	ErrInvalidWorkers      = errors.New("worker count must be positive")
	ErrInvalidLeafSize     = errors.New("bvh leaf size must be positive")
	ErrInvalidBroadPhase   = errors.New("invalid broad phase")
)

// Config holds the construction-time settings of a world
type Config struct {
	Gravity              float64        `yaml:"gravity"`
	GravityAxis          [3]float64     `yaml:"gravityAxis"`
	AirDensity           float64        `yaml:"airDensity"`
	ConstraintIterations int            `yaml:"constraintIterations"`
	Integration          string         `yaml:"integration"` // legacy or euler
	Workers              int            `yaml:"workers"`
	BVH                  BVHConfig      `yaml:"bvh"`
	Resolver             ResolverConfig `yaml:"resolver"`
	BroadPhase           BroadPhase     `yaml:"broadPhase"`
}

type BVHConfig struct {
	MaxLeafObjects int `yaml:"maxLeafObjects"`
}

// BroadPhase selects how candidate pairs are found. The grid settings are
// only read when Kind is grid.
type BroadPhase struct {
	Kind     string  `yaml:"kind"` // bvh or grid
	CellSize float64 `yaml:"cellSize"`
	Cells    int     `yaml:"cells"`
}

type ResolverConfig struct {
	Mode       string `yaml:"mode"` // impulse or sequential
	Iterations int    `yaml:"iterations"`
	// Passes over the collision list in impulse mode. Stacks need more than one.
	Passes int `yaml:"passes"`
}

const (
	IntegrationLegacy = "legacy"
	IntegrationEuler  = "euler"

	BroadPhaseBVH  = "bvh"
	BroadPhaseGrid = "grid"

	DefaultResolverPasses = 8
)

func Default() Config {
	return Config{
		Gravity:              9.8,
		GravityAxis:          [3]float64{0, 1, 0},
		AirDensity:           1.225,
		ConstraintIterations: 4,
		Integration:          IntegrationLegacy,
		Workers:              1,
		BVH:                  BVHConfig{MaxLeafObjects: bvh.DefaultMaxLeafObjects},
		Resolver: ResolverConfig{
			Mode:       resolver.ModeImpulse.String(),
			Iterations: resolver.DefaultIterations,
			Passes:     DefaultResolverPasses,
		},
		BroadPhase: BroadPhase{Kind: BroadPhaseBVH, CellSize: 2, Cells: 4096},
	}
}

// Load reads and validates a YAML file. Missing keys keep their default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return data, nil
}

// Validate checks every field and normalises the gravity axis
func (c *Config) Validate() error {
	axis := c.gravityAxis()
	length := axis.Len()
	if length < 1e-12 || math.IsNaN(length) || math.IsInf(length, 0) {
		return fmt.Errorf("gravityAxis %v: %w", c.GravityAxis, ErrInvalidGravityAxis)
	}
	axis = axis.Mul(1 / length)
	c.GravityAxis = [3]float64{axis.X(), axis.Y(), axis.Z()}

	if c.AirDensity < 0 {
		return fmt.Errorf("airDensity %v: %w", c.AirDensity, ErrInvalidAirDensity)
	}
	if c.ConstraintIterations <= 0 {
		return fmt.Errorf("constraintIterations %d: %w", c.ConstraintIterations, ErrInvalidIterations)
	}
	if c.Resolver.Iterations <= 0 {
		return fmt.Errorf("resolver.iterations %d: %w", c.Resolver.Iterations, ErrInvalidIterations)
	}
	if c.Resolver.Passes <= 0 {
		return fmt.Errorf("resolver.passes %d: %w", c.Resolver.Passes, ErrInvalidIterations)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers %d: %w", c.Workers, ErrInvalidWorkers)
	}
	if c.BVH.MaxLeafObjects <= 0 {
		return fmt.Errorf("bvh.maxLeafObjects %d: %w", c.BVH.MaxLeafObjects, ErrInvalidLeafSize)
	}
	switch c.BroadPhase.Kind {
	case BroadPhaseBVH:
	case BroadPhaseGrid:
		if c.BroadPhase.CellSize <= 0 || c.BroadPhase.Cells <= 0 {
			return fmt.Errorf("broadPhase grid %v/%d: %w", c.BroadPhase.CellSize, c.BroadPhase.Cells, ErrInvalidBroadPhase)
		}
	default:
		return fmt.Errorf("broadPhase.kind %q: %w", c.BroadPhase.Kind, ErrInvalidBroadPhase)
	}
	if _, err := c.IntegrationMode(); err != nil {
		return err
	}
	if _, err := c.ResolverMode(); err != nil {
		return err
	}

	return nil
}

func (c Config) gravityAxis() mgl64.Vec3 {
	return mgl64.Vec3(c.GravityAxis)
}

func (c Config) IntegrationMode() (actor.IntegrationMode, error) {
	switch c.Integration {
	case IntegrationLegacy, "":
		return actor.IntegrationLegacy, nil
	case IntegrationEuler:
		return actor.IntegrationEuler, nil
	default:
		return 0, fmt.Errorf("integration %q: %w", c.Integration, ErrInvalidIntegration)
	}
}

func (c Config) ResolverMode() (resolver.Mode, error) {
	switch c.Resolver.Mode {
	case resolver.ModeImpulse.String(), "":
		return resolver.ModeImpulse, nil
	case resolver.ModeSequential.String():
		return resolver.ModeSequential, nil
	default:
		return 0, fmt.Errorf("resolver.mode %q: %w", c.Resolver.Mode, ErrInvalidResolverMode)
	}
}

// Environment converts the integration settings. The config must be valid.
func (c Config) Environment() actor.Environment {
	mode, _ := c.IntegrationMode()

	return actor.Environment{
		Gravity:     c.Gravity,
		GravityAxis: c.gravityAxis(),
		AirDensity:  c.AirDensity,
		Mode:        mode,
	}
}

// NewResolver builds a resolver from the resolver section
func (c Config) NewResolver() *resolver.Resolver {
	r := resolver.New()
	r.Mode, _ = c.ResolverMode()
	r.Iterations = c.Resolver.Iterations
	r.Passes = c.Resolver.Passes

	return r
}

func (c Config) BVHOptions() bvh.Options {
	return bvh.Options{MaxLeafObjects: c.BVH.MaxLeafObjects}
}
