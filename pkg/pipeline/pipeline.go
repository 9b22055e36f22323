// Package pipeline wires the tessfold stages into a single sequential
// run: fetch the Target Pixel File, read it into an image cube, derive
// the aperture from the time-median image, extract and fold the light
// curve, and render the output plots and report.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"tessfold/internal/models"
	"tessfold/pkg/aperture"
	"tessfold/pkg/fetch"
	"tessfold/pkg/lightcurve"
	"tessfold/pkg/plotting"
	"tessfold/pkg/report"
	"tessfold/pkg/tpf"
)

// Params holds the pipeline parameters.
type Params struct {
	// TPFURL is the archive location of the Target Pixel File.
	TPFURL string

	// CacheDir is where the downloaded file is kept between runs.
	CacheDir string

	// PeriodDays is the orbital period to fold on, in days.
	PeriodDays float64

	// EpochJD is the reference transit epoch as an absolute Julian
	// date; it is converted to the file's timebase after reading.
	EpochJD float64

	// Percentile is the median-image threshold for the aperture mask.
	Percentile float64

	// PhaseBins is the number of bins for the folded median overlay.
	PhaseBins int

	// OutputDir is where plots and the report are written.
	OutputDir string

	// HTMLReport controls whether the interactive report is written.
	HTMLReport bool

	// Verbose enables per-step progress output.
	Verbose bool
}

// Pipeline runs the photometry stages in order and holds the
// intermediate products so they can be inspected after a run.
type Pipeline struct {
	params *Params

	cube   *models.Cube
	median []float64
	mask   *models.Mask
	lc     *models.LightCurve
	folded *models.FoldedCurve
	bins   []lightcurve.PhaseBin
	stats  lightcurve.Stats

	// outputs lists the files written, in creation order.
	outputs []string
}

// New creates a pipeline with the provided parameters.
func New(params *Params) *Pipeline {
	return &Pipeline{params: params}
}

// Process runs the complete pipeline. The context bounds the download;
// everything after it is local computation.
func (p *Pipeline) Process(ctx context.Context) error {
	p.logf("Step 1: Fetching Target Pixel File...")
	localPath, err := p.fetchTPF(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch target pixel file: %w", err)
	}

	p.logf("Step 2: Reading image cube from %s...", filepath.Base(localPath))
	p.cube, err = tpf.Read(localPath)
	if err != nil {
		return fmt.Errorf("failed to read target pixel file: %w", err)
	}
	p.logf("  %d cadences of %dx%d pixels", p.cube.Cadences(), p.cube.Width, p.cube.Height)

	return p.processCube()
}

// processCube runs every stage after the file read: aperture, light
// curve, folding, plots and report. Split out so the local stages can
// run against a cube built in memory.
func (p *Pipeline) processCube() error {
	var err error

	p.logf("Step 3: Computing per-pixel temporal median...")
	p.median, err = aperture.MedianImage(p.cube)
	if err != nil {
		return fmt.Errorf("failed to compute median image: %w", err)
	}

	p.logf("Step 4: Thresholding median image at the %.0fth percentile...", p.params.Percentile)
	p.mask, err = aperture.ThresholdMask(p.median, p.cube.Width, p.cube.Height, p.params.Percentile)
	if err != nil {
		return fmt.Errorf("failed to build aperture mask: %w", err)
	}
	p.logf("  aperture selects %d of %d pixels", p.mask.Count(), p.cube.Width*p.cube.Height)

	p.logf("Step 5: Extracting aperture light curve...")
	p.lc, err = lightcurve.Extract(p.cube, p.mask)
	if err != nil {
		return fmt.Errorf("failed to extract light curve: %w", err)
	}

	p.logf("Step 6: Folding on period %.4f d...", p.params.PeriodDays)
	epoch := tpf.EpochToFileTime(p.cube, p.params.EpochJD)
	p.folded, err = lightcurve.Fold(p.lc, p.params.PeriodDays, epoch)
	if err != nil {
		return fmt.Errorf("failed to fold light curve: %w", err)
	}

	p.bins, err = lightcurve.BinPhase(p.folded, p.params.PhaseBins)
	if err != nil {
		return fmt.Errorf("failed to bin folded curve: %w", err)
	}
	p.stats = lightcurve.Summarize(p.cube, p.mask, p.lc, p.bins)

	p.logf("Step 7: Rendering plots...")
	if err := p.renderPlots(); err != nil {
		return err
	}

	if p.params.HTMLReport {
		p.logf("Step 8: Writing HTML report...")
		if err := p.writeReport(); err != nil {
			return err
		}
	}

	return nil
}

// fetchTPF downloads the TPF into the cache directory, reusing an
// existing copy if one is present.
func (p *Pipeline) fetchTPF(ctx context.Context) (string, error) {
	dest := filepath.Join(p.params.CacheDir, filepath.Base(p.params.TPFURL))
	fetched, err := fetch.NewClient().Download(ctx, p.params.TPFURL, dest)
	if err != nil {
		return "", err
	}
	if fetched {
		p.logf("  downloaded to %s", dest)
	} else {
		p.logf("  reusing cached copy at %s", dest)
	}
	return dest, nil
}

// renderPlots writes the aperture, light curve and folded plots.
func (p *Pipeline) renderPlots() error {
	renderer, err := plotting.NewRenderer(p.params.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to create plot renderer: %w", err)
	}
	p.logf("  writing plots to %s", renderer.OutputDir())

	title := p.targetLabel()
	out, err := renderer.SaveAperturePlot(p.median, p.mask,
		fmt.Sprintf("%s — median frame and aperture", title))
	if err != nil {
		return fmt.Errorf("failed to render aperture plot: %w", err)
	}
	p.outputs = append(p.outputs, out)

	out, err = renderer.SaveLightCurvePlot(p.lc,
		fmt.Sprintf("%s — aperture flux", title))
	if err != nil {
		return fmt.Errorf("failed to render light curve plot: %w", err)
	}
	p.outputs = append(p.outputs, out)

	out, err = renderer.SaveFoldedPlot(p.folded, p.bins,
		fmt.Sprintf("%s — folded at %.4f d", title, p.params.PeriodDays))
	if err != nil {
		return fmt.Errorf("failed to render folded plot: %w", err)
	}
	p.outputs = append(p.outputs, out)

	return nil
}

// writeReport renders the interactive HTML report.
func (p *Pipeline) writeReport() error {
	path := filepath.Join(p.params.OutputDir, "report.html")
	err := report.Write(path, p.lc, p.folded, p.bins, report.Params{
		Object:     p.cube.Object,
		Sector:     p.cube.Sector,
		PeriodDays: p.params.PeriodDays,
		EpochJD:    p.params.EpochJD,
		Percentile: p.params.Percentile,
	})
	if err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	p.outputs = append(p.outputs, path)
	return nil
}

// targetLabel names the target for plot titles, falling back to the
// file URL when the header carried no OBJECT keyword.
func (p *Pipeline) targetLabel() string {
	if p.cube != nil && p.cube.Object != "" {
		return p.cube.Object
	}
	return filepath.Base(p.params.TPFURL)
}

// Stats returns the run summary. Valid after Process has completed.
func (p *Pipeline) Stats() lightcurve.Stats {
	return p.stats
}

// Outputs returns the files written by the run, in creation order.
func (p *Pipeline) Outputs() []string {
	return p.outputs
}

// Mask returns the aperture mask built by the run.
func (p *Pipeline) Mask() *models.Mask {
	return p.mask
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.params.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}
