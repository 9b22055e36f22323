// Package lightcurve turns a masked image cube into a flux time series
// and folds it on a known orbital period so repeated transits line up
// in phase.
package lightcurve

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"tessfold/internal/models"
)

// Extract reduces the cube through the aperture mask into a light
// curve: for each cadence, the flux is the sum over selected pixels and
// the uncertainty is the quadrature sum of the per-pixel errors.
//
// Cadences flagged by the mission quality bitmask, or whose timestamp
// is not finite, are dropped. Masked pixels with NaN flux are skipped
// within a cadence; a cadence where every masked pixel is NaN is
// dropped as well.
func Extract(cube *models.Cube, mask *models.Mask) (*models.LightCurve, error) {
	if mask.Width != cube.Width || mask.Height != cube.Height {
		return nil, fmt.Errorf("extract: mask shape %dx%d does not match cube %dx%d",
			mask.Width, mask.Height, cube.Width, cube.Height)
	}
	if mask.Count() == 0 {
		return nil, fmt.Errorf("extract: aperture mask is empty")
	}

	n := cube.Width * cube.Height
	lc := &models.LightCurve{}

	for c := 0; c < cube.Cadences(); c++ {
		if cube.Quality[c] != 0 || !models.IsFinite(cube.Time[c]) {
			continue
		}

		var flux, varSum float64
		valid := 0
		for p := 0; p < n; p++ {
			if !mask.Bits[p] {
				continue
			}
			v := cube.Flux[c*n+p]
			if !models.IsFinite(v) {
				continue
			}
			flux += v
			if e := cube.FluxErr[c*n+p]; models.IsFinite(e) {
				varSum += e * e
			}
			valid++
		}
		if valid == 0 {
			continue
		}

		lc.Time = append(lc.Time, cube.Time[c])
		lc.Flux = append(lc.Flux, flux)
		lc.FluxErr = append(lc.FluxErr, math.Sqrt(varSum))
	}

	if lc.Len() == 0 {
		return nil, fmt.Errorf("extract: no usable cadences after quality filtering")
	}

	return lc, nil
}

// Fold remaps the curve's time axis into orbital phase in [-0.5, 0.5),
// with the reference epoch landing at phase 0. Period is in days and
// epoch must be on the same timebase as the curve. The result is
// sorted by phase.
func Fold(lc *models.LightCurve, period, epoch float64) (*models.FoldedCurve, error) {
	if period <= 0 {
		return nil, fmt.Errorf("fold: period must be positive, got %g", period)
	}
	if lc.Len() == 0 {
		return nil, fmt.Errorf("fold: empty light curve")
	}

	fc := &models.FoldedCurve{
		Phase:   make([]float64, lc.Len()),
		Flux:    make([]float64, lc.Len()),
		FluxErr: make([]float64, lc.Len()),
		Period:  period,
		Epoch:   epoch,
	}

	idx := make([]int, lc.Len())
	for i := range idx {
		idx[i] = i
	}

	phases := make([]float64, lc.Len())
	for i, t := range lc.Time {
		ph := math.Mod(t-epoch, period) / period
		if ph < -0.5 {
			ph += 1
		} else if ph >= 0.5 {
			ph -= 1
		}
		phases[i] = ph
	}

	sort.Slice(idx, func(a, b int) bool { return phases[idx[a]] < phases[idx[b]] })

	for out, in := range idx {
		fc.Phase[out] = phases[in]
		fc.Flux[out] = lc.Flux[in]
		fc.FluxErr[out] = lc.FluxErr[in]
	}

	return fc, nil
}

// PhaseBin holds the median flux of the folded points falling in one
// phase interval.
type PhaseBin struct {
	// Phase is the bin centre.
	Phase float64

	// MedianFlux is the median flux of the bin, NaN for an empty bin.
	MedianFlux float64

	// Count is the number of points in the bin.
	Count int
}

// BinPhase divides the phase axis into nbins equal intervals and
// computes the median flux in each. Empty bins carry NaN so a plotted
// line breaks rather than bridging gaps.
func BinPhase(fc *models.FoldedCurve, nbins int) ([]PhaseBin, error) {
	if nbins <= 0 {
		return nil, fmt.Errorf("bin phase: nbins must be positive, got %d", nbins)
	}

	buckets := make([][]float64, nbins)
	for i, ph := range fc.Phase {
		b := int((ph + 0.5) * float64(nbins))
		if b < 0 {
			b = 0
		}
		if b >= nbins {
			b = nbins - 1
		}
		buckets[b] = append(buckets[b], fc.Flux[i])
	}

	bins := make([]PhaseBin, nbins)
	width := 1.0 / float64(nbins)
	for b := range bins {
		bins[b].Phase = -0.5 + (float64(b)+0.5)*width
		bins[b].Count = len(buckets[b])
		if len(buckets[b]) == 0 {
			bins[b].MedianFlux = math.NaN()
			continue
		}
		sort.Float64s(buckets[b])
		bins[b].MedianFlux = stat.Quantile(0.5, stat.LinInterp, buckets[b], nil)
	}

	return bins, nil
}

// Stats summarises an extracted and folded light curve for reporting.
type Stats struct {
	// Cadences is the number of frames in the source cube.
	Cadences int

	// Used is the number of cadences surviving quality filtering.
	Used int

	// MaskPixels is the aperture size in pixels.
	MaskPixels int

	// MedianFlux is the median aperture flux in electrons per second.
	MedianFlux float64

	// DepthPPM is the depth of the deepest folded phase bin relative
	// to the median flux, in parts per million. A visual readout of
	// the folded curve, not a detection statistic.
	DepthPPM float64

	// DepthPhase is the phase of that deepest bin.
	DepthPhase float64
}

// Summarize computes summary statistics from the extraction products.
func Summarize(cube *models.Cube, mask *models.Mask, lc *models.LightCurve, bins []PhaseBin) Stats {
	s := Stats{
		Cadences:   cube.Cadences(),
		Used:       lc.Len(),
		MaskPixels: mask.Count(),
	}

	flux := make([]float64, len(lc.Flux))
	copy(flux, lc.Flux)
	sort.Float64s(flux)
	if len(flux) > 0 {
		s.MedianFlux = stat.Quantile(0.5, stat.LinInterp, flux, nil)
	}

	minFlux := math.Inf(1)
	for _, b := range bins {
		if b.Count == 0 || math.IsNaN(b.MedianFlux) {
			continue
		}
		if b.MedianFlux < minFlux {
			minFlux = b.MedianFlux
			s.DepthPhase = b.Phase
		}
	}
	if s.MedianFlux > 0 && !math.IsInf(minFlux, 1) {
		s.DepthPPM = (s.MedianFlux - minFlux) / s.MedianFlux * 1e6
	}

	return s
}
