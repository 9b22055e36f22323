package models

import (
	"math"
)

// Cube represents the image cube of a Target Pixel File: a stack of
// small postage-stamp images of the same star, one per exposure cadence.
type Cube struct {
	// Flux is the cube data as a 1D array in cadence-major, row-major
	// order: Flux[c*Width*Height + y*Width + x].
	Flux []float64

	// FluxErr holds the per-pixel flux uncertainties, same layout as Flux.
	FluxErr []float64

	// Width and Height are the spatial dimensions of one frame in pixels.
	Width  int
	Height int

	// Time holds the mid-exposure time of each cadence in the file's
	// truncated barycentric Julian date timebase (BTJD).
	Time []float64

	// CadenceNo is the mission cadence counter for each frame.
	CadenceNo []int32

	// Quality is the mission quality bitmask for each cadence.
	// A nonzero value marks the cadence as unusable for photometry.
	Quality []int32

	// BJDRef is the Julian date offset of the timebase, so that
	// absolute JD = Time + BJDRef. TESS files carry 2457000.0.
	BJDRef float64

	// Object and Sector identify the target and observing sector,
	// taken from the primary header for labelling output.
	Object string
	Sector int
}

// Cadences returns the number of frames in the cube.
func (c *Cube) Cadences() int {
	return len(c.Time)
}

// Mask is a boolean pixel selection with the same spatial shape as one
// cube frame. Selected pixels are summed to form the light curve.
type Mask struct {
	// Bits holds the selection in row-major order.
	Bits []bool

	// Width and Height are the spatial dimensions in pixels.
	Width  int
	Height int
}

// At reports whether pixel (x, y) is selected.
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// LightCurve is the brightness of the target versus time: ordered
// (time, flux, flux uncertainty) triples on the cube's timebase.
type LightCurve struct {
	Time    []float64
	Flux    []float64
	FluxErr []float64
}

// Len returns the number of points in the curve.
func (lc *LightCurve) Len() int {
	return len(lc.Time)
}

// FoldedCurve is a light curve with time remapped into orbital phase
// in [-0.5, 0.5), so repeated transit events align at phase 0.
type FoldedCurve struct {
	Phase   []float64
	Flux    []float64
	FluxErr []float64

	// Period and Epoch record the fold parameters, in days and in the
	// source curve's timebase respectively.
	Period float64
	Epoch  float64
}

// Len returns the number of points in the folded curve.
func (fc *FoldedCurve) Len() int {
	return len(fc.Phase)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
