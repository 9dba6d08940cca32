package models

import (
	"encoding/json"

	"github.com/pulsemaps/pulsemap/internal/geo"
)

// GeoJSON shapes as exchanged with the collaborator feed endpoints.
// Coordinates stay raw because the nesting depth depends on geometry type.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point returns the feature's coordinate when its geometry is a Point.
// GeoJSON orders coordinates [lon, lat].
func (f Feature) Point() (geo.Coordinate, bool) {
	if f.Geometry.Type != "Point" {
		return geo.Coordinate{}, false
	}
	var c []float64
	if err := json.Unmarshal(f.Geometry.Coordinates, &c); err != nil || len(c) < 2 {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: c[1], Lon: c[0]}, true
}

// Centroid resolves a representative coordinate for the feature: the point
// itself, or the vertex average of a polygon's outer ring. Alert polygons
// have no single point, so the list view anchors them at the centroid.
func (f Feature) Centroid() (geo.Coordinate, bool) {
	if c, ok := f.Point(); ok {
		return c, true
	}
	if f.Geometry.Type != "Polygon" {
		return geo.Coordinate{}, false
	}
	var rings [][][]float64
	if err := json.Unmarshal(f.Geometry.Coordinates, &rings); err != nil || len(rings) == 0 || len(rings[0]) == 0 {
		return geo.Coordinate{}, false
	}
	var lat, lon float64
	for _, v := range rings[0] {
		if len(v) < 2 {
			return geo.Coordinate{}, false
		}
		lon += v[0]
		lat += v[1]
	}
	n := float64(len(rings[0]))
	return geo.Coordinate{Lat: lat / n, Lon: lon / n}, true
}
