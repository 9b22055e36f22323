// Package report renders an HTML report of a pipeline run using
// go-echarts, so the light curves can be inspected interactively in a
// browser without regenerating PNGs. The page pulls the echarts
// runtime from its default asset host, so viewing it needs network
// access.
package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"tessfold/internal/models"
	"tessfold/pkg/lightcurve"
)

// maxPoints bounds the number of points per chart to keep the HTML
// payload reasonable; longer series are downsampled by stride.
const maxPoints = 8000

// Params carries the run description shown in chart subtitles.
type Params struct {
	Object     string
	Sector     int
	PeriodDays float64
	EpochJD    float64
	Percentile float64
}

// Write renders the raw and folded light curves to an HTML file.
func Write(path string, lc *models.LightCurve, fc *models.FoldedCurve, bins []lightcurve.PhaseBin, p Params) error {
	subtitle := fmt.Sprintf("%s sector %d — period=%.4f d epoch=JD %.5f aperture>p%.0f",
		p.Object, p.Sector, p.PeriodDays, p.EpochJD, p.Percentile)

	raw := scatterChart("Aperture flux vs time", subtitle, "Time (BTJD, days)", "Flux (e-/s)",
		lc.Time, lc.Flux)

	folded := scatterChart("Phase-folded flux", subtitle, "Phase", "Flux (e-/s)",
		fc.Phase, fc.Flux)
	folded.AddSeries("binned median", binLineData(bins),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	page := components.NewPage()
	page.AddCharts(raw, folded)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

// scatterChart builds a downsampled XY scatter with symmetric padding
// on the X range.
func scatterChart(title, subtitle, xLabel, yLabel string, xs, ys []float64) *charts.Scatter {
	stride := 1
	if len(xs) > maxPoints {
		stride = int(math.Ceil(float64(len(xs)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(xs)/stride+1)
	xMin, xMax := math.Inf(1), math.Inf(-1)
	for i := 0; i < len(xs); i += stride {
		if xs[i] < xMin {
			xMin = xs[i]
		}
		if xs[i] > xMax {
			xMax = xs[i]
		}
		data = append(data, opts.ScatterData{Value: []interface{}{xs[i], ys[i]}})
	}
	if math.IsInf(xMin, 1) {
		xMin, xMax = 0, 1
	}
	pad := (xMax - xMin) * 0.02
	if pad == 0 {
		pad = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: xMin - pad, Max: xMax + pad, Name: xLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true), Name: yLabel}),
	)
	scatter.AddSeries("flux", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	return scatter
}

// binLineData converts the non-empty phase bins to scatter values for
// the folded chart overlay.
func binLineData(bins []lightcurve.PhaseBin) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(bins))
	for _, b := range bins {
		if b.Count == 0 || math.IsNaN(b.MedianFlux) {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{b.Phase, b.MedianFlux}})
	}
	return data
}
