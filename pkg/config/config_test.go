package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultTPFURL, cfg.Target.URL)
	assert.Equal(t, 6.2679, cfg.Transit.PeriodDays)
	assert.Equal(t, 2458325.50400, cfg.Transit.EpochJD)
	assert.Equal(t, 85.0, cfg.Aperture.Percentile)
	assert.Equal(t, 100, cfg.Output.PhaseBins)
	assert.True(t, cfg.Output.HTMLReport)
	assert.True(t, cfg.Output.Verbose)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tessfold.yaml")

	cfg := DefaultConfig()
	cfg.Target.URL = "https://example.org/other.fits"
	cfg.Transit.PeriodDays = 3.5
	cfg.Aperture.Percentile = 90
	cfg.Output.Verbose = false

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transit:\n  periodDays: 9.9\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9.9, cfg.Transit.PeriodDays)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultTPFURL, cfg.Target.URL)
	assert.Equal(t, 85.0, cfg.Aperture.Percentile)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessfold.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}
