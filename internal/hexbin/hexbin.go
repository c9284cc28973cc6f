// Package hexbin aggregates point layers into H3 cells for dense previews.
package hexbin

import (
	"fmt"
	"math"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
	"github.com/mohammed-shakir/geopreview/internal/geometry/coords"
)

const (
	MinRes = 0
	MaxRes = 15
)

func ValidateRes(res int) error {
	if res < MinRes || res > MaxRes {
		return fmt.Errorf("invalid H3 resolution %d (must be %d..%d)", res, MinRes, MaxRes)
	}
	return nil
}

// Aggregate counts the Point and MultiPoint positions of fc per H3 cell and
// returns one Polygon feature per occupied cell, sorted by cell id. Other
// geometry types are ignored.
func Aggregate(fc model.FeatureCollection, res int) (model.FeatureCollection, error) {
	if err := ValidateRes(res); err != nil {
		return model.FeatureCollection{}, err
	}

	counts := make(map[h3.Cell]int)
	add := func(pos []float64) error {
		if len(pos) < 2 {
			return nil
		}
		c, err := h3.LatLngToCell(h3.LatLng{Lat: pos[1], Lng: pos[0]}, res)
		if err != nil {
			return fmt.Errorf("h3 index (%v,%v): %w", pos[1], pos[0], err)
		}
		counts[c]++
		return nil
	}

	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch f.Geometry.Type {
		case model.GeomPoint:
			pos, ok := coords.Position(f.Geometry.Coordinates)
			if !ok {
				continue
			}
			if err := add(pos); err != nil {
				return model.FeatureCollection{}, err
			}
		case model.GeomMultiPoint:
			line, ok := coords.Line(f.Geometry.Coordinates)
			if !ok {
				continue
			}
			for _, pos := range line {
				if err := add(pos); err != nil {
					return model.FeatureCollection{}, err
				}
			}
		}
	}

	cells := make([]h3.Cell, 0, len(counts))
	for c := range counts {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].String() < cells[j].String() })

	out := make([]model.Feature, 0, len(cells))
	for _, c := range cells {
		ring, err := boundary(c)
		if err != nil {
			return model.FeatureCollection{}, err
		}
		g := &model.Geometry{Type: model.GeomPolygon, Coordinates: [][][]float64{ring}}
		out = append(out, model.NewFeature(g, map[string]any{
			"cell":  c.String(),
			"count": counts[c],
		}))
	}
	return model.NewFeatureCollection(out), nil
}

// boundary returns the closed [lng,lat] ring of c.
func boundary(c h3.Cell) ([][]float64, error) {
	b, err := h3.CellToBoundary(c)
	if err != nil {
		return nil, fmt.Errorf("h3 boundary %s: %w", c, err)
	}
	ring := make([][]float64, 0, len(b)+1)
	for _, ll := range b {
		ring = append(ring, []float64{ll.Lng, ll.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// approximate average hexagon edge length in km, by resolution
var edgeKm = [...]float64{
	1281.256011, 483.0568391, 182.5129565, 68.97922179,
	26.07175968, 9.854090990, 3.724532667, 1.406475763,
	0.531414010, 0.200786148, 0.075863783, 0.028663897,
	0.010830188, 0.004092010, 0.001546100, 0.000584169,
}

// ResolutionFor picks the finest resolution whose cells keep the extent of b
// within roughly target cells across. A nil b yields fallback.
func ResolutionFor(b *model.Bounds, target, fallback int) int {
	if b == nil || target <= 0 {
		return fallback
	}
	const kmPerDeg = 111.32
	midLat := (b.MinLat() + b.MaxLat()) / 2
	w := (b.MaxLng() - b.MinLng()) * kmPerDeg * math.Cos(midLat*math.Pi/180)
	h := (b.MaxLat() - b.MinLat()) * kmPerDeg
	span := math.Max(w, h)
	if span <= 0 {
		return fallback
	}
	res := MinRes
	for r := MinRes; r <= MaxRes; r++ {
		if span/(2*edgeKm[r]) > float64(target) {
			break
		}
		res = r
	}
	return res
}
