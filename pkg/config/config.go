// Package config provides configuration loading and management for tessfold.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default target: the Pi Mensae sector 1 Target Pixel File and the
// published ephemeris of Pi Mensae c.
const (
	DefaultTPFURL = "https://archive.stsci.edu/missions/tess/tid/s0001/0000/0002/6113/6679/tess2018206045859-s0001-0000000261136679-0120-s_tp.fits"

	DefaultPeriodDays = 6.2679
	DefaultEpochJD    = 2458325.50400
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Target parameters
	Target struct {
		// URL is the archive location of the Target Pixel File
		URL string `yaml:"url"`

		// CacheDir is where downloaded files are kept between runs
		CacheDir string `yaml:"cacheDir"`
	} `yaml:"target"`

	// Transit ephemeris used for folding
	Transit struct {
		// PeriodDays is the orbital period in days
		PeriodDays float64 `yaml:"periodDays"`

		// EpochJD is the reference transit epoch as a Julian date
		EpochJD float64 `yaml:"epochJD"`
	} `yaml:"transit"`

	// Aperture parameters
	Aperture struct {
		// Percentile is the median-image threshold; pixels strictly
		// brighter than this percentile form the aperture
		Percentile float64 `yaml:"percentile"`
	} `yaml:"aperture"`

	// Output parameters
	Output struct {
		// Dir is the directory plots and the report are written to
		Dir string `yaml:"dir"`

		// PhaseBins is the number of bins for the folded median overlay
		PhaseBins int `yaml:"phaseBins"`

		// HTMLReport controls whether the interactive report is written
		HTMLReport bool `yaml:"htmlReport"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default target parameters
	cfg.Target.URL = DefaultTPFURL
	cfg.Target.CacheDir = "data"

	// Set default transit ephemeris (Pi Mensae c)
	cfg.Transit.PeriodDays = DefaultPeriodDays
	cfg.Transit.EpochJD = DefaultEpochJD

	// Set default aperture parameters
	cfg.Aperture.Percentile = 85

	// Set default output parameters
	cfg.Output.Dir = "output"
	cfg.Output.PhaseBins = 100
	cfg.Output.HTMLReport = true
	cfg.Output.Verbose = true

	return cfg
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
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
