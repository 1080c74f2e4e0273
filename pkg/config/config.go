// Package config provides configuration loading and management for tomokth.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"tomokth/internal/models"
	"tomokth/pkg/projection"
)

// ErrInvalid is returned by Validate for an unusable configuration.
var ErrInvalid = errors.New("config: invalid configuration")

// Vec is a YAML friendly 3-vector
type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// R3 converts v to an r3.Vec
func (v Vec) R3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// Config represents the application configuration loaded from YAML
type Config struct {
	// Grid describes the voxel lattice
	Grid struct {
		Width   int     `yaml:"width"`
		Height  int     `yaml:"height"`
		Depth   int     `yaml:"depth"`
		Spacing float64 `yaml:"spacing"`

		// Origin is the centre of voxel (0, 0, 0)
		Origin Vec `yaml:"origin"`

		// VoxelRadius is the radius of the sphere standing in for each voxel
		VoxelRadius float64 `yaml:"voxelRadius"`
	} `yaml:"grid"`

	// Camera describes the parallel-projection sensor
	Camera struct {
		Width  int     `yaml:"width"`
		Height int     `yaml:"height"`
		Pitch  float64 `yaml:"pitch"`

		// PixelRadius is the radius of each pixel's line-of-sight cylinder
		PixelRadius float64 `yaml:"pixelRadius"`

		Centre Vec `yaml:"centre"`
		Normal Vec `yaml:"normal"`
	} `yaml:"camera"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`

		// Tolerance snaps near-degenerate geometry onto its exact case, relative
		// to the sum of the radii. Values below intersect.MinTolerance use it.
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SlicesDir receives JPEG slices of the back-projected volume. Empty
		// disables slice output.
		SlicesDir string `yaml:"slicesDir"`

		// ProfilePlot is the path of the volume profile plot. Empty disables it.
		ProfilePlot string `yaml:"profilePlot"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Grid.Width = 16
	cfg.Grid.Height = 16
	cfg.Grid.Depth = 16
	cfg.Grid.Spacing = 1.0
	cfg.Grid.Origin = Vec{X: -7.5, Y: -7.5, Z: -7.5}
	// a sphere with the volume of a unit cube
	cfg.Grid.VoxelRadius = 0.6204

	cfg.Camera.Width = 24
	cfg.Camera.Height = 24
	cfg.Camera.Pitch = 0.75
	cfg.Camera.PixelRadius = 0.4
	cfg.Camera.Centre = Vec{Z: -20}
	cfg.Camera.Normal = Vec{Z: 1}

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Tolerance = 1e-12

	cfg.Output.Verbose = true
	cfg.Output.SlicesDir = ""
	cfg.Output.ProfilePlot = ""

	return cfg
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Grid.Width <= 0 || c.Grid.Height <= 0 || c.Grid.Depth <= 0:
		return fmt.Errorf("%w: grid size %dx%dx%d", ErrInvalid, c.Grid.Width, c.Grid.Height, c.Grid.Depth)
	case !(c.Grid.Spacing > 0):
		return fmt.Errorf("%w: grid spacing %g", ErrInvalid, c.Grid.Spacing)
	case !(c.Grid.VoxelRadius > 0):
		return fmt.Errorf("%w: voxel radius %g", ErrInvalid, c.Grid.VoxelRadius)
	case c.Camera.Width <= 0 || c.Camera.Height <= 0:
		return fmt.Errorf("%w: camera size %dx%d", ErrInvalid, c.Camera.Width, c.Camera.Height)
	case !(c.Camera.Pitch > 0):
		return fmt.Errorf("%w: camera pitch %g", ErrInvalid, c.Camera.Pitch)
	case !(c.Camera.PixelRadius > 0):
		return fmt.Errorf("%w: pixel radius %g", ErrInvalid, c.Camera.PixelRadius)
	case r3.Norm(c.Camera.Normal.R3()) == 0:
		return fmt.Errorf("%w: camera normal is zero", ErrInvalid)
	case c.Processing.Tolerance < 0:
		return fmt.Errorf("%w: negative tolerance %g", ErrInvalid, c.Processing.Tolerance)
	}
	return nil
}

// ModelGrid returns the configured voxel lattice
func (c *Config) ModelGrid() models.Grid {
	return models.Grid{
		Width:   c.Grid.Width,
		Height:  c.Grid.Height,
		Depth:   c.Grid.Depth,
		Spacing: c.Grid.Spacing,
		Origin:  c.Grid.Origin.R3(),
	}
}

// NewCamera lays out the configured sensor
func (c *Config) NewCamera() (*projection.Camera, error) {
	return projection.NewCamera(
		c.Camera.Width, c.Camera.Height,
		c.Camera.Pitch, c.Camera.PixelRadius,
		c.Camera.Centre.R3(), c.Camera.Normal.R3(),
	)
}

// ProjectionParams returns the system assembly parameters
func (c *Config) ProjectionParams() *projection.Params {
	return &projection.Params{
		NumCores:  c.Processing.NumCores,
		Tolerance: c.Processing.Tolerance,
		Verbose:   c.Output.Verbose,
	}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
