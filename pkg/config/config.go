// Package config provides configuration loading and management for
// ellipsoidfit. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"ellipsoidfit/pkg/fitting"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Fitting parameters control the per-seed ellipsoid optimisation
	Fitting struct {
		// SamplingIncrement is the physical step size for growth and shrink operations
		SamplingIncrement float64 `yaml:"samplingIncrement"`

		// NVectors is the number of surface-sampling directions
		NVectors int `yaml:"nVectors"`

		// ContactSensitivity is the contact-point count at which axis growth stops
		ContactSensitivity int `yaml:"contactSensitivity"`

		// MaxIterations bounds the no-improvement counter of the main loop
		MaxIterations int `yaml:"maxIterations"`

		// MaxDrift is the maximum centroid distance from the seed point
		MaxDrift float64 `yaml:"maxDrift"`

		// MinimumSemiAxis discards fitted ellipsoids with a shorter smallest radius
		MinimumSemiAxis float64 `yaml:"minimumSemiAxis"`
	} `yaml:"fitting"`

	// Runner parameters control the batch execution
	Runner struct {
		// NumWorkers is the size of the worker pool over seed points
		NumWorkers int `yaml:"numWorkers"`

		// RngSeed is the base seed for the per-seed random sources
		RngSeed int64 `yaml:"rngSeed"`

		// Verbose enables informational prints for per-seed failures
		Verbose bool `yaml:"verbose"`
	} `yaml:"runner"`

	// Seeding parameters control the built-in seed point supplier
	Seeding struct {
		// Stride is the voxel stride of the interior sampling grid
		Stride int `yaml:"stride"`

		// MinSpacing is the minimum physical spacing between seeds (0 disables thinning)
		MinSpacing float64 `yaml:"minSpacing"`
	} `yaml:"seeding"`

	// Input parameters describe how slice images become a binary volume
	Input struct {
		// Threshold is the normalised intensity above which a pixel is foreground
		Threshold float64 `yaml:"threshold"`

		// VoxelSize is the physical size of one voxel along each axis
		VoxelSize struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
			Z float64 `yaml:"z"`
		} `yaml:"voxelSize"`
	} `yaml:"input"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Fitting defaults match the reference implementation
	cfg.Fitting.SamplingIncrement = 1.0 / 2.3
	cfg.Fitting.NVectors = 100
	cfg.Fitting.ContactSensitivity = 1
	cfg.Fitting.MaxIterations = 100
	cfg.Fitting.MaxDrift = math.Sqrt(3)
	cfg.Fitting.MinimumSemiAxis = 0

	cfg.Runner.NumWorkers = runtime.NumCPU()
	cfg.Runner.RngSeed = 1
	cfg.Runner.Verbose = true

	cfg.Seeding.Stride = 4
	cfg.Seeding.MinSpacing = 0

	cfg.Input.Threshold = 0.5
	cfg.Input.VoxelSize.X = 1.0
	cfg.Input.VoxelSize.Y = 1.0
	cfg.Input.VoxelSize.Z = 1.0

	return cfg
}

// FittingParams converts the configured fitting section into the parameter
// set consumed by the fitting package, keeping the tuned step constants at
// their defaults.
func (c *Config) FittingParams() fitting.Params {
	p := fitting.DefaultParams()
	p.VectorIncrement = c.Fitting.SamplingIncrement
	p.NVectors = c.Fitting.NVectors
	p.ContactSensitivity = c.Fitting.ContactSensitivity
	p.MaxIterations = c.Fitting.MaxIterations
	p.MaxDrift = c.Fitting.MaxDrift
	p.MinimumSemiAxis = c.Fitting.MinimumSemiAxis
	return p
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
