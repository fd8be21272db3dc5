package models

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

// GeoJSONPolygon represents a GeoJSON Polygon boundary as served by the
// plot registry. Coordinates are [lon, lat] rings, outer ring first.
type GeoJSONPolygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// Geom converts the boundary to a go-geom Polygon in WGS84.
func (g *GeoJSONPolygon) Geom() (*geom.Polygon, error) {
	if g == nil || g.Type == "" {
		return nil, fmt.Errorf("empty boundary geometry")
	}

	geoJSONBytes, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	var geometry geom.T
	if err := geojson.Unmarshal(geoJSONBytes, &geometry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GeoJSON: %w", err)
	}

	polygon, ok := geometry.(*geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("geometry is not a Polygon")
	}

	polygon.SetSRID(4326)
	return polygon, nil
}

// Centroid returns the areal centroid of the boundary as [lon, lat].
func (g *GeoJSONPolygon) Centroid() ([2]float64, error) {
	polygon, err := g.Geom()
	if err != nil {
		return [2]float64{}, err
	}

	coord, err := xy.Centroid(polygon)
	if err != nil {
		return [2]float64{}, fmt.Errorf("failed to compute centroid: %w", err)
	}

	return [2]float64{coord.X(), coord.Y()}, nil
}

// Bounds returns the bounding box of the boundary as (minX, minY, maxX, maxY).
func (g *GeoJSONPolygon) Bounds() (minX, minY, maxX, maxY float64, err error) {
	polygon, err := g.Geom()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	b := polygon.Bounds()
	return b.Min(0), b.Min(1), b.Max(0), b.Max(1), nil
}

// GeoJSONPoint represents a GeoJSON Point, [lon, lat].
type GeoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}
