package raster

import (
	"fmt"

	"canopycover-extractor/internal/models"
)

// FileClipper clips plots out of an on-disk raster, keeping the last opened
// raster cached so a per-field plot loop decodes the file once.
type FileClipper struct {
	path   string
	cached *Raster
}

func NewFileClipper() *FileClipper {
	return &FileClipper{}
}

func (c *FileClipper) Clip(rasterPath string, boundary *models.GeoJSONPolygon) (PixelArray, GeoTransform, error) {
	if c.cached == nil || c.path != rasterPath {
		r, err := OpenTIFF(rasterPath)
		if err != nil {
			return PixelArray{}, GeoTransform{}, fmt.Errorf("failed to open raster: %w", err)
		}
		c.cached = r
		c.path = rasterPath
	}

	return Clip(c.cached, boundary)
}
