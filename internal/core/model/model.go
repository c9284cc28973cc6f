// Package model defines core domain types shared across the service.
package model

import (
	"encoding/json"
	"fmt"
)

// Column describes one column of a tabular query result.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RowSet is a query result as handed over by the query engine.
// Data rows are positionally aligned with Columns.
type RowSet struct {
	Columns []Column `json:"columns"`
	Data    [][]any  `json:"data"`
}

const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"

	GeomPoint           = "Point"
	GeomLineString      = "LineString"
	GeomPolygon         = "Polygon"
	GeomMultiPoint      = "MultiPoint"
	GeomMultiLineString = "MultiLineString"
	GeomMultiPolygon    = "MultiPolygon"
)

// Geometry is a GeoJSON geometry object. Coordinates hold nested float slices
// when produced by a decoder, or []any trees when taken from parsed JSON.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         any            `json:"id,omitempty"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// NewFeature wraps g into a Feature. A nil props map becomes empty.
func NewFeature(g *Geometry, props map[string]any) Feature {
	if props == nil {
		props = map[string]any{}
	}
	return Feature{Type: TypeFeature, Geometry: g, Properties: props}
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: TypeFeatureCollection, Features: features}
}

// MarshalJSON keeps "features" an array even for a zero value.
func (fc FeatureCollection) MarshalJSON() ([]byte, error) {
	type alias FeatureCollection
	out := alias(fc)
	if out.Type == "" {
		out.Type = TypeFeatureCollection
	}
	if out.Features == nil {
		out.Features = []Feature{}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal feature collection: %w", err)
	}
	return b, nil
}

// Bounds is [[minLng, minLat], [maxLng, maxLat]].
type Bounds [2][2]float64

func (b Bounds) MinLng() float64 { return b[0][0] }
func (b Bounds) MinLat() float64 { return b[0][1] }
func (b Bounds) MaxLng() float64 { return b[1][0] }
func (b Bounds) MaxLat() float64 { return b[1][1] }

// String representation matching wfs/wms bbox format
func (b Bounds) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b[0][0], b[0][1], b[1][0], b[1][1])
}
