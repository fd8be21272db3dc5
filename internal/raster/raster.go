package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"
)

// GeoTransform maps pixel space to geographic space, GDAL-style:
// x = [0] + col*[1] + row*[2]
// y = [3] + col*[4] + row*[5]
// [5] is negative for north-up rasters.
type GeoTransform [6]float64

// Raster is an in-memory georeferenced pixel grid, band-major.
type Raster struct {
	Bands     int
	Rows      int
	Cols      int
	Transform GeoTransform
	data      []float64
}

// NewRaster allocates an empty raster with the given shape and transform.
func NewRaster(bands, rows, cols int, transform GeoTransform) *Raster {
	return &Raster{
		Bands:     bands,
		Rows:      rows,
		Cols:      cols,
		Transform: transform,
		data:      make([]float64, bands*rows*cols),
	}
}

func (r *Raster) At(band, row, col int) float64 {
	return r.data[(band*r.Rows+row)*r.Cols+col]
}

func (r *Raster) Set(band, row, col int, value float64) {
	r.data[(band*r.Rows+row)*r.Cols+col] = value
}

// OpenTIFF reads an RGB GeoTIFF thumb together with its sidecar world file
// (same path with a .tfw extension). A missing world file means the raster
// is not georeferenced, which is a job-fatal condition for the caller.
func OpenTIFF(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raster %s: %w", path, err)
	}

	transform, err := readWorldFile(worldFilePath(path))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rows := bounds.Dy()
	cols := bounds.Dx()
	out := NewRaster(3, rows, cols, transform)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			red, green, blue, _ := img.At(bounds.Min.X+col, bounds.Min.Y+row).RGBA()
			out.Set(0, row, col, float64(red>>8))
			out.Set(1, row, col, float64(green>>8))
			out.Set(2, row, col, float64(blue>>8))
		}
	}

	return out, nil
}

func worldFilePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".tfw"
}

// readWorldFile parses a 6-line ESRI world file. World files anchor the
// origin at the center of the top-left pixel; the transform origin is the
// pixel's outer corner.
func readWorldFile(path string) (GeoTransform, error) {
	var gt GeoTransform

	raw, err := os.ReadFile(path)
	if err != nil {
		return gt, fmt.Errorf("raster is not georeferenced (no world file at %s): %w", path, err)
	}

	lines := strings.Fields(strings.TrimSpace(string(raw)))
	if len(lines) < 6 {
		return gt, fmt.Errorf("malformed world file %s: expected 6 values, got %d", path, len(lines))
	}

	vals := make([]float64, 6)
	for i := 0; i < 6; i++ {
		vals[i], err = strconv.ParseFloat(lines[i], 64)
		if err != nil {
			return gt, fmt.Errorf("malformed world file %s: %w", path, err)
		}
	}

	pixelW, rotY, rotX, pixelH := vals[0], vals[1], vals[2], vals[3]
	centerX, centerY := vals[4], vals[5]

	gt[0] = centerX - pixelW/2
	gt[1] = pixelW
	gt[2] = rotX
	gt[3] = centerY - pixelH/2
	gt[4] = rotY
	gt[5] = pixelH

	return gt, nil
}
