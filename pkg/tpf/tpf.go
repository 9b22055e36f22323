// Package tpf reads TESS Target Pixel Files. A TPF is a FITS file
// whose PIXELS extension is a binary table with one row per exposure
// cadence, each row carrying a small flux image of the target star
// plus timing and quality metadata. FITS decoding itself is delegated
// to the fitsio library; this package only maps the table into the
// image cube model.
package tpf

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"

	"tessfold/internal/models"
)

// pixelsExt is the extension name of the cadence table in a TPF.
const pixelsExt = "PIXELS"

// pixelRow mirrors the TPF table columns used for photometry.
type pixelRow struct {
	Time    float64   `fits:"TIME"`
	Cadence int32     `fits:"CADENCENO"`
	Flux    []float32 `fits:"FLUX"`
	FluxErr []float32 `fits:"FLUX_ERR"`
	Quality int32     `fits:"QUALITY"`
}

// Read opens the Target Pixel File at path and decodes its PIXELS
// table into an image cube.
func Read(path string) (*models.Cube, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tpf: open %s: %w", path, err)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("tpf: parse %s: %w", path, err)
	}
	defer fits.Close()

	var tbl *fitsio.Table
	for i := 0; i < len(fits.HDUs()); i++ {
		hdu := fits.HDU(i)
		if t, ok := hdu.(*fitsio.Table); ok && strings.EqualFold(hdu.Name(), pixelsExt) {
			tbl = t
			break
		}
	}
	if tbl == nil {
		return nil, fmt.Errorf("tpf: %s has no %s table extension", path, pixelsExt)
	}

	width, height, err := frameShape(tbl)
	if err != nil {
		return nil, fmt.Errorf("tpf: %s: %w", path, err)
	}

	cube := &models.Cube{
		Width:  width,
		Height: height,
		BJDRef: bjdRef(tbl.Header()),
	}
	fillIdentity(cube, fits, tbl)

	npix := width * height
	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("tpf: read %s table: %w", path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row pixelRow
		if err := rows.Scan(&row); err != nil {
			return nil, fmt.Errorf("tpf: scan cadence row: %w", err)
		}
		if len(row.Flux) != npix || len(row.FluxErr) != npix {
			return nil, fmt.Errorf("tpf: cadence %d has %d flux pixels, want %d",
				row.Cadence, len(row.Flux), npix)
		}

		cube.Time = append(cube.Time, row.Time)
		cube.CadenceNo = append(cube.CadenceNo, row.Cadence)
		cube.Quality = append(cube.Quality, row.Quality)
		for _, v := range row.Flux {
			cube.Flux = append(cube.Flux, float64(v))
		}
		for _, v := range row.FluxErr {
			cube.FluxErr = append(cube.FluxErr, float64(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tpf: iterate %s table: %w", path, err)
	}

	if cube.Cadences() == 0 {
		return nil, fmt.Errorf("tpf: %s contains no cadences", path)
	}

	return cube, nil
}

// EpochToFileTime converts an absolute Julian date to the cube's
// truncated timebase using the BJD reference offset from the header.
// An epoch already below the reference (for example one quoted in
// BTJD directly) is passed through unchanged.
func EpochToFileTime(cube *models.Cube, epochJD float64) float64 {
	if cube.BJDRef > 0 && epochJD > cube.BJDRef {
		return epochJD - cube.BJDRef
	}
	return epochJD
}

// frameShape determines the spatial dimensions of one cadence image
// from the TDIM keyword of the FLUX column, e.g. TDIM5 = '(11,13)'.
func frameShape(tbl *fitsio.Table) (width, height int, err error) {
	idx := -1
	for i, col := range tbl.Cols() {
		if col.Name == "FLUX" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, 0, fmt.Errorf("no FLUX column in %s table", pixelsExt)
	}

	card := tbl.Header().Get(fmt.Sprintf("TDIM%d", idx+1))
	if card == nil {
		return 0, 0, fmt.Errorf("no TDIM keyword for FLUX column %d", idx+1)
	}
	s, ok := card.Value.(string)
	if !ok {
		return 0, 0, fmt.Errorf("TDIM%d is not a string: %v", idx+1, card.Value)
	}

	return parseTDim(s)
}

// parseTDim parses a FITS TDIM value of the form "(w,h)".
func parseTDim(s string) (width, height int, err error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed TDIM value %q", s)
	}

	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed TDIM value %q: %w", s, err)
	}
	height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed TDIM value %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("non-positive TDIM value %q", s)
	}

	return width, height, nil
}

// bjdRef reads the integer and fractional BJD reference keywords.
// Zero means the header carries no reference and times are absolute.
func bjdRef(hdr *fitsio.Header) float64 {
	ref := 0.0
	if card := hdr.Get("BJDREFI"); card != nil {
		ref += headerFloat(card.Value)
	}
	if card := hdr.Get("BJDREFF"); card != nil {
		ref += headerFloat(card.Value)
	}
	return ref
}

// fillIdentity copies target identity keywords into the cube, checking
// the table header first and falling back to the primary header.
func fillIdentity(cube *models.Cube, fits *fitsio.File, tbl *fitsio.Table) {
	headers := []*fitsio.Header{tbl.Header()}
	if len(fits.HDUs()) > 0 {
		headers = append(headers, fits.HDU(0).Header())
	}
	for _, hdr := range headers {
		if cube.Object == "" {
			if card := hdr.Get("OBJECT"); card != nil {
				if s, ok := card.Value.(string); ok {
					cube.Object = strings.TrimSpace(s)
				}
			}
		}
		if cube.Sector == 0 {
			if card := hdr.Get("SECTOR"); card != nil {
				cube.Sector = int(headerFloat(card.Value))
			}
		}
	}
}

// headerFloat coerces a FITS card value to float64. Cards decode as
// int, float64 or string depending on how the writer formatted them.
func headerFloat(v interface{}) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
