// Package aperture builds photometric aperture masks from a Target
// Pixel File image cube. Instead of the mission's fixed pipeline
// aperture, the mask is derived adaptively: the per-pixel temporal
// median of the cube gives a clean image of the star, and the
// brightest pixels of that image, selected by a percentile threshold,
// form the aperture.
package aperture

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"tessfold/internal/models"
)

// MedianImage computes the per-pixel median across all cadences of the
// cube. NaN samples (missing pixels, detector gaps) are excluded from
// each pixel's median; a pixel with no finite samples at all is NaN in
// the result. The returned slice is row-major with the cube's spatial
// shape.
func MedianImage(cube *models.Cube) ([]float64, error) {
	n := cube.Width * cube.Height
	if n == 0 || cube.Cadences() == 0 {
		return nil, fmt.Errorf("median image: empty cube")
	}

	img := make([]float64, n)
	samples := make([]float64, 0, cube.Cadences())

	for p := 0; p < n; p++ {
		samples = samples[:0]
		for c := 0; c < cube.Cadences(); c++ {
			v := cube.Flux[c*n+p]
			if models.IsFinite(v) {
				samples = append(samples, v)
			}
		}
		if len(samples) == 0 {
			img[p] = math.NaN()
			continue
		}
		sort.Float64s(samples)
		img[p] = stat.Quantile(0.5, stat.LinInterp, samples, nil)
	}

	return img, nil
}

// ThresholdMask constructs a boolean aperture mask from a median image
// by selecting every pixel whose value is strictly greater than the
// given percentile of the finite pixel values. Percentile is expressed
// in [0, 100]; ties at the threshold are excluded, so an image where
// every pixel has the same value yields an empty mask.
//
// An image with no finite pixels is an error: silently returning an
// all-false or all-true mask would hide a broken upstream read.
func ThresholdMask(img []float64, width, height int, percentile float64) (*models.Mask, error) {
	if len(img) != width*height {
		return nil, fmt.Errorf("threshold mask: image has %d pixels, want %dx%d", len(img), width, height)
	}
	if percentile < 0 || percentile > 100 {
		return nil, fmt.Errorf("threshold mask: percentile %g outside [0, 100]", percentile)
	}

	finite := make([]float64, 0, len(img))
	for _, v := range img {
		if models.IsFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil, fmt.Errorf("threshold mask: no finite pixels in median image")
	}

	sort.Float64s(finite)
	cut := stat.Quantile(percentile/100, stat.LinInterp, finite, nil)

	mask := &models.Mask{
		Bits:   make([]bool, len(img)),
		Width:  width,
		Height: height,
	}
	for i, v := range img {
		if models.IsFinite(v) && v > cut {
			mask.Bits[i] = true
		}
	}

	return mask, nil
}
