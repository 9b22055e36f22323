package plotting

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessfold/internal/models"
	"tessfold/pkg/lightcurve"
)

func requirePNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Equal(t, ".png", filepath.Ext(path))
}

func TestNewRendererCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "plots")
	r, err := NewRenderer(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, r.OutputDir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveAperturePlot(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	require.NoError(t, err)

	img := []float64{1, 2, math.NaN(), 4, 50, 6, 7, 8, 9}
	mask := &models.Mask{
		Bits:   []bool{false, false, false, false, true, false, false, false, false},
		Width:  3,
		Height: 3,
	}

	out, err := r.SaveAperturePlot(img, mask, "test target")
	require.NoError(t, err)
	requirePNG(t, out)
}

func TestSaveLightCurvePlot(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	require.NoError(t, err)

	lc := &models.LightCurve{}
	for i := 0; i < 100; i++ {
		lc.Time = append(lc.Time, 1325+float64(i)*0.02)
		lc.Flux = append(lc.Flux, 1000+float64(i%7))
		lc.FluxErr = append(lc.FluxErr, 3)
	}

	out, err := r.SaveLightCurvePlot(lc, "test flux")
	require.NoError(t, err)
	requirePNG(t, out)
}

func TestSaveFoldedPlot(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	require.NoError(t, err)

	fc := &models.FoldedCurve{Period: 6.2679, Epoch: 1325.504}
	for i := 0; i < 100; i++ {
		fc.Phase = append(fc.Phase, -0.5+float64(i)*0.01)
		fc.Flux = append(fc.Flux, 1000)
		fc.FluxErr = append(fc.FluxErr, 3)
	}
	bins := []lightcurve.PhaseBin{
		{Phase: -0.25, MedianFlux: 1000, Count: 25},
		{Phase: 0, MedianFlux: 990, Count: 25},
		{Phase: 0.25, MedianFlux: math.NaN(), Count: 0},
	}

	out, err := r.SaveFoldedPlot(fc, bins, "test folded")
	require.NoError(t, err)
	requirePNG(t, out)
}

func TestPixelGridHandlesNaN(t *testing.T) {
	g := newPixelGrid([]float64{1, math.NaN(), 3, 4}, 2, 2)
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	// NaN pixel reports the image minimum instead of poisoning the range.
	assert.Equal(t, 1.0, g.Z(1, 0))
	assert.Equal(t, 3.0, g.Z(0, 1))
}
