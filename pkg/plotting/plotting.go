// Package plotting renders the pipeline's diagnostic plots as PNG
// files: the median frame with the aperture mask overlaid, the raw
// light curve, and the phase-folded light curve.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"tessfold/internal/models"
	"tessfold/pkg/lightcurve"
)

// Renderer writes plot files into a single output directory.
type Renderer struct {
	outputDir string
}

// NewRenderer creates a renderer, making the output directory if needed.
func NewRenderer(outputDir string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("plotting: create output dir: %w", err)
	}
	return &Renderer{outputDir: outputDir}, nil
}

// OutputDir returns the directory plots are written to.
func (r *Renderer) OutputDir() string {
	return r.outputDir
}

// SaveAperturePlot renders the median image as a heatmap with the
// aperture mask drawn as crosses on the selected pixels.
func (r *Renderer) SaveAperturePlot(img []float64, mask *models.Mask, title string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Pixel column"
	p.Y.Label.Text = "Pixel row"

	grid := newPixelGrid(img, mask.Width, mask.Height)
	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	p.Add(hm)

	pts := make(plotter.XYs, 0, mask.Count())
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.At(x, y) {
				pts = append(pts, plotter.XY{X: float64(x), Y: float64(y)})
			}
		}
	}
	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return "", fmt.Errorf("plotting: mask overlay: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Color = color.RGBA{R: 64, G: 220, B: 255, A: 255}
		sc.GlyphStyle.Radius = vg.Points(5)
		p.Add(sc)
		p.Legend.Add("aperture", sc)
		p.Legend.Top = true
	}

	out := filepath.Join(r.outputDir, "aperture.png")
	if err := p.Save(6*vg.Inch, 6*vg.Inch, out); err != nil {
		return "", fmt.Errorf("plotting: save aperture plot: %w", err)
	}
	return out, nil
}

// SaveLightCurvePlot renders flux versus time with error bars.
func (r *Renderer) SaveLightCurvePlot(lc *models.LightCurve, title string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (BTJD, days)"
	p.Y.Label.Text = "Flux (e-/s)"

	if err := addErrorPoints(p, lc.Time, lc.Flux, lc.FluxErr); err != nil {
		return "", err
	}

	out := filepath.Join(r.outputDir, "lightcurve.png")
	if err := p.Save(10*vg.Inch, 4*vg.Inch, out); err != nil {
		return "", fmt.Errorf("plotting: save light curve plot: %w", err)
	}
	return out, nil
}

// SaveFoldedPlot renders the phase-folded curve with error bars and
// the binned median overlaid as a line.
func (r *Renderer) SaveFoldedPlot(fc *models.FoldedCurve, bins []lightcurve.PhaseBin, title string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Phase"
	p.Y.Label.Text = "Flux (e-/s)"
	p.X.Min = -0.5
	p.X.Max = 0.5

	if err := addErrorPoints(p, fc.Phase, fc.Flux, fc.FluxErr); err != nil {
		return "", err
	}

	linePts := make(plotter.XYs, 0, len(bins))
	for _, b := range bins {
		if b.Count == 0 || math.IsNaN(b.MedianFlux) {
			continue
		}
		linePts = append(linePts, plotter.XY{X: b.Phase, Y: b.MedianFlux})
	}
	if len(linePts) > 1 {
		line, err := plotter.NewLine(linePts)
		if err != nil {
			return "", fmt.Errorf("plotting: binned median line: %w", err)
		}
		line.Color = color.RGBA{R: 220, G: 40, B: 40, A: 255}
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("binned median", line)
		p.Legend.Top = true
	}

	out := filepath.Join(r.outputDir, "folded.png")
	if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
		return "", fmt.Errorf("plotting: save folded plot: %w", err)
	}
	return out, nil
}

// addErrorPoints adds a scatter plus Y error bars for the series.
func addErrorPoints(p *plot.Plot, xs, ys, errs []float64) error {
	data := &xyErrs{xs: xs, ys: ys, errs: errs}

	sc, err := plotter.NewScatter(data)
	if err != nil {
		return fmt.Errorf("plotting: scatter: %w", err)
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(1)
	sc.GlyphStyle.Color = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	p.Add(sc)

	bars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return fmt.Errorf("plotting: error bars: %w", err)
	}
	bars.LineStyle.Color = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	p.Add(bars)

	return nil
}

// xyErrs adapts parallel slices to the plotter data interfaces.
type xyErrs struct {
	xs, ys, errs []float64
}

func (d *xyErrs) Len() int                { return len(d.xs) }
func (d *xyErrs) XY(i int) (x, y float64) { return d.xs[i], d.ys[i] }

func (d *xyErrs) YError(i int) (low, high float64) {
	return d.errs[i], d.errs[i]
}

// pixelGrid adapts a row-major image to plotter.GridXYZ. NaN pixels
// are reported as the image minimum so they do not poison the colour
// range.
type pixelGrid struct {
	data          []float64
	width, height int
	min           float64
}

func newPixelGrid(img []float64, width, height int) *pixelGrid {
	min := math.Inf(1)
	for _, v := range img {
		if models.IsFinite(v) && v < min {
			min = v
		}
	}
	if math.IsInf(min, 1) {
		min = 0
	}
	return &pixelGrid{data: img, width: width, height: height, min: min}
}

func (g *pixelGrid) Dims() (c, r int) { return g.width, g.height }
func (g *pixelGrid) X(c int) float64  { return float64(c) }
func (g *pixelGrid) Y(r int) float64  { return float64(r) }

func (g *pixelGrid) Z(c, r int) float64 {
	v := g.data[r*g.width+c]
	if !models.IsFinite(v) {
		return g.min
	}
	return v
}
