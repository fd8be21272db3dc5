package raster

import (
	"fmt"
	"math"

	"canopycover-extractor/internal/models"
)

// PixelArray is a plain multidimensional pixel block. A full clip is 3-D
// (band, row, col) band-major; a clip that degenerates (the boundary does
// not intersect the raster) carries fewer than 3 dims, which callers must
// treat as a reportable per-plot failure.
type PixelArray struct {
	Shape []int
	Data  []float64
}

func (a PixelArray) Dims() int {
	return len(a.Shape)
}

// At indexes a 3-D array as (band, row, col).
func (a PixelArray) At(band, row, col int) float64 {
	return a.Data[(band*a.Shape[1]+row)*a.Shape[2]+col]
}

// Clip extracts the pixel window covering the boundary's bounding box,
// returning the sub-array and the geotransform of the window. A boundary
// falling entirely outside the raster yields a degenerate 2-D array and no
// error; the caller decides how to report it.
func Clip(r *Raster, boundary *models.GeoJSONPolygon) (PixelArray, GeoTransform, error) {
	var gt GeoTransform

	if r == nil {
		return PixelArray{}, gt, fmt.Errorf("nil raster")
	}
	if r.Transform[2] != 0 || r.Transform[4] != 0 {
		return PixelArray{}, gt, fmt.Errorf("rotated rasters are not supported")
	}

	minX, minY, maxX, maxY, err := boundary.Bounds()
	if err != nil {
		return PixelArray{}, gt, fmt.Errorf("invalid plot boundary: %w", err)
	}

	originX := r.Transform[0]
	originY := r.Transform[3]
	pixelW := r.Transform[1]
	pixelH := r.Transform[5] // negative for north-up

	col0 := int(math.Floor((minX - originX) / pixelW))
	col1 := int(math.Ceil((maxX - originX) / pixelW))
	row0 := int(math.Floor((maxY - originY) / pixelH))
	row1 := int(math.Ceil((minY - originY) / pixelH))

	col0 = max(col0, 0)
	row0 = max(row0, 0)
	col1 = min(col1, r.Cols)
	row1 = min(row1, r.Rows)

	if col1 <= col0 || row1 <= row0 {
		// No intersection: the squeezed result loses the band axis.
		return PixelArray{Shape: []int{0, 0}}, gt, nil
	}

	rows := row1 - row0
	cols := col1 - col0
	out := PixelArray{
		Shape: []int{r.Bands, rows, cols},
		Data:  make([]float64, r.Bands*rows*cols),
	}

	for band := 0; band < r.Bands; band++ {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				out.Data[(band*rows+row)*cols+col] = r.At(band, row0+row, col0+col)
			}
		}
	}

	gt[0] = originX + float64(col0)*pixelW
	gt[1] = pixelW
	gt[3] = originY + float64(row0)*pixelH
	gt[5] = pixelH

	return out, gt, nil
}
