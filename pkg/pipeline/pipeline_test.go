package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessfold/internal/models"
)

// syntheticCube builds a 5x5 cube with a bright 3x3 star image in the
// centre and a 5% periodic dip injected at the given period and epoch.
func syntheticCube(cadences int, period, epoch float64) *models.Cube {
	const width, height = 5, 5
	n := width * height

	// Per-pixel baseline: faint distinct background, bright distinct
	// centre so the percentile threshold has no ties.
	base := make([]float64, n)
	bg, star := 1.0, 100.0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := y*width + x
			if x >= 1 && x <= 3 && y >= 1 && y <= 3 {
				base[p] = star
				star++
			} else {
				base[p] = bg
				bg++
			}
		}
	}

	cube := &models.Cube{
		Width:  width,
		Height: height,
		BJDRef: 2457000.0,
		Object: "SYNTHETIC",
		Sector: 1,
	}
	for c := 0; c < cadences; c++ {
		tm := float64(c) * 0.1
		cube.Time = append(cube.Time, tm)
		cube.CadenceNo = append(cube.CadenceNo, int32(c))
		cube.Quality = append(cube.Quality, 0)

		scale := 1.0
		ph := math.Mod(tm-epoch, period) / period
		if ph >= 0.5 {
			ph -= 1
		} else if ph < -0.5 {
			ph += 1
		}
		if math.Abs(ph*period) < 0.15 {
			scale = 0.95
		}

		for p := 0; p < n; p++ {
			cube.Flux = append(cube.Flux, base[p]*scale)
			cube.FluxErr = append(cube.FluxErr, 1)
		}
	}
	return cube
}

func TestProcessCube(t *testing.T) {
	outDir := t.TempDir()
	params := &Params{
		TPFURL:     "https://example.org/synthetic.fits",
		PeriodDays: 3.0,
		EpochJD:    2457002.0,
		Percentile: 85,
		PhaseBins:  20,
		OutputDir:  outDir,
		HTMLReport: true,
	}

	p := New(params)
	p.cube = syntheticCube(300, 3.0, 2.0)

	// Flag a handful of cadences as unusable.
	for c := 0; c < 10; c++ {
		p.cube.Quality[c] = 1
	}

	require.NoError(t, p.processCube())

	stats := p.Stats()
	assert.Equal(t, 300, stats.Cadences)
	assert.Equal(t, 290, stats.Used)
	assert.Equal(t, 4, stats.MaskPixels)
	assert.Greater(t, stats.MedianFlux, 0.0)
	assert.InDelta(t, 0, stats.DepthPhase, 0.05)
	assert.Greater(t, stats.DepthPPM, 30000.0)

	for _, name := range []string{"aperture.png", "lightcurve.png", "folded.png", "report.html"} {
		info, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, "missing %s", name)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Len(t, p.Outputs(), 4)
}

func TestProcessCubeWithoutReport(t *testing.T) {
	outDir := t.TempDir()
	p := New(&Params{
		PeriodDays: 3.0,
		EpochJD:    2457002.0,
		Percentile: 85,
		PhaseBins:  20,
		OutputDir:  outDir,
	})
	p.cube = syntheticCube(100, 3.0, 2.0)

	require.NoError(t, p.processCube())

	_, err := os.Stat(filepath.Join(outDir, "report.html"))
	assert.True(t, os.IsNotExist(err))
	assert.Len(t, p.Outputs(), 3)
}

func TestProcessFailsOnUnreachableURL(t *testing.T) {
	p := New(&Params{
		TPFURL:     "http://127.0.0.1:1/missing.fits",
		CacheDir:   t.TempDir(),
		PeriodDays: 3.0,
		EpochJD:    2457002.0,
		Percentile: 85,
		PhaseBins:  20,
		OutputDir:  t.TempDir(),
	})
	err := p.Process(t.Context())
	assert.Error(t, err)
}
