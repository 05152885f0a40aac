// Package config provides configuration loading and validation for the
// risk quantification engine. Configuration is stored as YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable knobs a tree service and resolver apply when
// a request does not override them.
type Config struct {
	// DefaultNTrials is how many Monte Carlo trials a simulation runs
	// when the caller does not specify a count.
	DefaultNTrials int `yaml:"defaultNTrials"`

	// MaxTreeDepth bounds how deep a RiskTree's ancestor chain may run,
	// to keep AncestorPath/Descendants traversal bounded.
	MaxTreeDepth int `yaml:"maxTreeDepth"`

	// DefaultTrialParallelism is how many worker goroutines a single
	// leaf simulation fans its trial batches across by default.
	DefaultTrialParallelism int `yaml:"defaultTrialParallelism"`

	// MaxConcurrentSimulations bounds how many Resolver.Outcome calls
	// may be in flight across the whole process at once.
	MaxConcurrentSimulations int `yaml:"maxConcurrentSimulations"`

	// MaxNTrials is the hard ceiling a caller-supplied trial count is
	// clamped to.
	MaxNTrials int `yaml:"maxNTrials"`

	// MaxParallelism is the hard ceiling a caller-supplied parallelism
	// is clamped to.
	MaxParallelism int `yaml:"maxParallelism"`

	// DefaultSeed3 and DefaultSeed4 are the two fixed PRNG seed inputs
	// shared by every stream derived within a simulation run.
	DefaultSeed3 uint64 `yaml:"defaultSeed3"`
	DefaultSeed4 uint64 `yaml:"defaultSeed4"`
}

// Default returns the engine's built-in defaults.
func Default() *Config {
	return &Config{
		DefaultNTrials:           10000,
		MaxTreeDepth:             50,
		DefaultTrialParallelism:  4,
		MaxConcurrentSimulations: 8,
		MaxNTrials:               1000000,
		MaxParallelism:           64,
		DefaultSeed3:             0x9E3779B97F4A7C15,
		DefaultSeed4:             0xC2B2AE3D27D4EB4F,
	}
}

// Load reads and parses a YAML config file at path. A field absent from
// the file keeps its Default() value; a field present in the file keeps
// the value written there, even when that value is zero.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := *Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every config value is within an acceptable
// range, returning an error describing the first failure found.
func Validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if c.DefaultNTrials < 1 || c.DefaultNTrials > c.MaxNTrials {
		return fmt.Errorf("defaultNTrials must be between 1 and maxNTrials (%d), got %d", c.MaxNTrials, c.DefaultNTrials)
	}
	if c.MaxTreeDepth < 1 {
		return fmt.Errorf("maxTreeDepth must be >= 1, got %d", c.MaxTreeDepth)
	}
	if c.DefaultTrialParallelism < 1 || c.DefaultTrialParallelism > c.MaxParallelism {
		return fmt.Errorf("defaultTrialParallelism must be between 1 and maxParallelism (%d), got %d", c.MaxParallelism, c.DefaultTrialParallelism)
	}
	if c.MaxConcurrentSimulations < 1 {
		return fmt.Errorf("maxConcurrentSimulations must be >= 1, got %d", c.MaxConcurrentSimulations)
	}
	if c.MaxNTrials < 1 {
		return fmt.Errorf("maxNTrials must be >= 1, got %d", c.MaxNTrials)
	}
	if c.MaxParallelism < 1 {
		return fmt.Errorf("maxParallelism must be >= 1, got %d", c.MaxParallelism)
	}
	return nil
}

// Save writes c to path as formatted YAML.
func Save(c *Config, path string) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
