// Package classify decides which columns of a query result carry geometry
// or latitude/longitude values.
package classify

import (
	"strings"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
)

type Mode string

const (
	ModeGeometry Mode = "geometry"
	ModeLatLng   Mode = "latlng"
	ModeNone     Mode = "none"
)

// sentinel type reported by PostGIS-backed engines for extension types
const userDefinedType = "user-defined"

var geometryTypes = []string{
	"geometry", "geography", "point", "linestring", "polygon",
	"multipoint", "multilinestring", "multipolygon", "geometrycollection",
}

var geometryNameHints = []string{"geojson", "geometry", "geom"}

// conventional geometry column names, consulted only for USER-DEFINED types
var userDefinedNames = []string{
	"geom", "geometry", "geography", "location", "coordinates",
	"shape", "boundary", "the_geom", "wkb_geometry",
}

type Result struct {
	GeometryIndex int `json:"geometryIndex"`
	LatIndex      int `json:"latIndex"`
	LngIndex      int `json:"lngIndex"`
}

func (r Result) HasGeometry() bool { return r.GeometryIndex >= 0 }

func (r Result) HasLatLng() bool {
	return r.GeometryIndex < 0 && r.LatIndex >= 0 && r.LngIndex >= 0
}

func (r Result) Mode() Mode {
	switch {
	case r.HasGeometry():
		return ModeGeometry
	case r.HasLatLng():
		return ModeLatLng
	default:
		return ModeNone
	}
}

// Classify returns the first geometry column, or when there is none the
// first latitude and longitude columns. Missing roles are -1.
func Classify(cols []model.Column) Result {
	res := Result{GeometryIndex: -1, LatIndex: -1, LngIndex: -1}
	for i, c := range cols {
		if IsGeometryColumn(c) {
			res.GeometryIndex = i
			return res
		}
	}
	for i, c := range cols {
		if res.LatIndex < 0 && IsLatitudeName(c.Name) {
			res.LatIndex = i
			continue
		}
		if res.LngIndex < 0 && IsLongitudeName(c.Name) {
			res.LngIndex = i
		}
	}
	if res.LatIndex < 0 || res.LngIndex < 0 {
		res.LatIndex, res.LngIndex = -1, -1
	}
	return res
}

func IsGeometryColumn(c model.Column) bool {
	typ := strings.ToLower(strings.TrimSpace(c.Type))
	name := strings.ToLower(strings.TrimSpace(c.Name))

	for _, g := range geometryTypes {
		if typ == g || strings.Contains(typ, g) {
			return true
		}
	}
	for _, h := range geometryNameHints {
		if strings.Contains(name, h) {
			return true
		}
	}
	if typ == userDefinedType {
		for _, n := range userDefinedNames {
			if name == n || strings.Contains(name, n) {
				return true
			}
		}
	}
	return false
}

func IsLatitudeName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "lat", "latitude", "y":
		return true
	}
	return strings.Contains(n, "lat") && !strings.Contains(n, "lon")
}

func IsLongitudeName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "long", "lng", "longitude", "x":
		return true
	}
	return strings.Contains(n, "lon")
}

// NormalizeType folds vendor geometry type names onto GEOMETRY and
// upper-cases everything else.
func NormalizeType(t string) string {
	up := strings.ToUpper(strings.TrimSpace(t))
	low := strings.ToLower(up)
	for _, g := range geometryTypes {
		if low == g {
			return "GEOMETRY"
		}
	}
	return up
}
