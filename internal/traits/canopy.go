// Package traits holds the numeric trait estimators applied to clipped plot
// pixel data.
package traits

import (
	"fmt"

	"canopycover-extractor/internal/raster"
)

// RollAxis reorders a band-first (band, row, col) array into the row-major
// channel-last (row, col, band) layout the estimators expect.
func RollAxis(a raster.PixelArray) (raster.PixelArray, error) {
	if a.Dims() != 3 {
		return raster.PixelArray{}, fmt.Errorf("expected 3-D array, got %d dims", a.Dims())
	}

	bands, rows, cols := a.Shape[0], a.Shape[1], a.Shape[2]
	out := raster.PixelArray{
		Shape: []int{rows, cols, bands},
		Data:  make([]float64, len(a.Data)),
	}

	for band := 0; band < bands; band++ {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				out.Data[(row*cols+col)*bands+band] = a.At(band, row, col)
			}
		}
	}

	return out, nil
}

// excessGreenThreshold separates canopy from soil on the 2G-R-B index.
const excessGreenThreshold = 20.0

// EstimateCanopyCover computes the fraction of a plot covered by plant
// canopy from a channel-last RGB array. Fully black pixels are nodata from
// the clip mask and are excluded from the denominator. Returns a value in
// [0, 1].
func EstimateCanopyCover(a raster.PixelArray) (float64, error) {
	if a.Dims() != 3 {
		return 0, fmt.Errorf("expected channel-last 3-D array, got %d dims", a.Dims())
	}

	rows, cols, bands := a.Shape[0], a.Shape[1], a.Shape[2]
	if bands < 3 {
		return 0, fmt.Errorf("expected at least 3 channels, got %d", bands)
	}
	if rows == 0 || cols == 0 {
		return 0, fmt.Errorf("empty pixel array")
	}

	var total, canopy int
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			base := (row*cols + col) * bands
			red := a.Data[base]
			green := a.Data[base+1]
			blue := a.Data[base+2]

			if red == 0 && green == 0 && blue == 0 {
				continue
			}
			total++

			if 2*green-red-blue > excessGreenThreshold {
				canopy++
			}
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("no data pixels in plot clip")
	}

	return float64(canopy) / float64(total), nil
}
