// Package bounds computes the bounding box of GeoJSON coordinate trees.
package bounds

import (
	"math"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
	"github.com/mohammed-shakir/geopreview/internal/geometry/coords"
)

type acc struct {
	minLng, minLat float64
	maxLng, maxLat float64
	n              int
}

func newAcc() *acc {
	return &acc{
		minLng: math.Inf(1), minLat: math.Inf(1),
		maxLng: math.Inf(-1), maxLat: math.Inf(-1),
	}
}

func (a *acc) add(lng, lat float64) {
	a.minLng = math.Min(a.minLng, lng)
	a.minLat = math.Min(a.minLat, lat)
	a.maxLng = math.Max(a.maxLng, lng)
	a.maxLat = math.Max(a.maxLat, lat)
	a.n++
}

func (a *acc) result() *model.Bounds {
	if a.n == 0 {
		return nil
	}
	return &model.Bounds{{a.minLng, a.minLat}, {a.maxLng, a.maxLat}}
}

// Of returns the box around every coordinate in fc, or nil when there is none.
func Of(fc model.FeatureCollection) *model.Bounds {
	a := newAcc()
	for _, f := range fc.Features {
		if f.Geometry != nil {
			a.walk(f.Geometry.Coordinates)
		}
	}
	return a.result()
}

func OfGeometry(g *model.Geometry) *model.Bounds {
	if g == nil {
		return nil
	}
	a := newAcc()
	a.walk(g.Coordinates)
	return a.result()
}

// walk treats an array whose first element is a number as a leaf pair and
// recurses into anything else.
func (a *acc) walk(v any) {
	switch t := v.(type) {
	case []float64:
		if len(t) >= 2 {
			a.add(t[0], t[1])
		}
	case [][]float64:
		for _, p := range t {
			a.walk(p)
		}
	case [][][]float64:
		for _, r := range t {
			a.walk(r)
		}
	case [][][][]float64:
		for _, p := range t {
			a.walk(p)
		}
	case []any:
		if len(t) == 0 {
			return
		}
		if _, isNum := coords.Number(t[0]); isNum {
			if p, ok := coords.Position(t); ok {
				a.add(p[0], p[1])
			}
			return
		}
		for _, c := range t {
			a.walk(c)
		}
	}
}
