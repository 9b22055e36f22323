package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessfold/internal/models"
	"tessfold/pkg/lightcurve"
)

func TestWrite(t *testing.T) {
	lc := &models.LightCurve{}
	for i := 0; i < 50; i++ {
		lc.Time = append(lc.Time, 1325+float64(i)*0.1)
		lc.Flux = append(lc.Flux, 1000)
		lc.FluxErr = append(lc.FluxErr, 3)
	}
	fc := &models.FoldedCurve{Period: 6.2679, Epoch: 1325.504}
	for i := 0; i < 50; i++ {
		fc.Phase = append(fc.Phase, -0.5+float64(i)*0.02)
		fc.Flux = append(fc.Flux, 1000)
		fc.FluxErr = append(fc.FluxErr, 3)
	}
	bins := []lightcurve.PhaseBin{
		{Phase: -0.1, MedianFlux: 1000, Count: 10},
		{Phase: 0, MedianFlux: 995, Count: 10},
		{Phase: 0.1, MedianFlux: math.NaN(), Count: 0},
	}

	path := filepath.Join(t.TempDir(), "report.html")
	err := Write(path, lc, fc, bins, Params{
		Object:     "PI MEN",
		Sector:     1,
		PeriodDays: 6.2679,
		EpochJD:    2458325.504,
		Percentile: 85,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Aperture flux vs time")
	assert.Contains(t, html, "Phase-folded flux")
	assert.Contains(t, html, "binned median")
	assert.Contains(t, html, "PI MEN")
}

func TestScatterChartDownsamples(t *testing.T) {
	xs := make([]float64, 3*maxPoints)
	ys := make([]float64, 3*maxPoints)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 1
	}

	chart := scatterChart("t", "s", "x", "y", xs, ys)
	require.Len(t, chart.MultiSeries, 1)
	assert.LessOrEqual(t, len(chart.MultiSeries[0].Data.([]opts.ScatterData)), maxPoints+1)
}
