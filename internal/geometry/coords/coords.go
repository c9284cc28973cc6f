// Package coords converts GeoJSON coordinate trees into typed float slices.
// Trees come either from the decoders ([]float64 nesting) or from parsed
// JSON ([]any nesting with float64 or json.Number leaves).
package coords

import (
	"encoding/json"
	"math"
)

// Number reports v as a finite float64 when it is a JSON-ish number.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Position returns the x,y of a single coordinate tuple. Extra ordinates are dropped.
func Position(v any) ([]float64, bool) {
	switch p := v.(type) {
	case []float64:
		if len(p) < 2 {
			return nil, false
		}
		return []float64{p[0], p[1]}, true
	case []any:
		if len(p) < 2 {
			return nil, false
		}
		x, ok := Number(p[0])
		if !ok {
			return nil, false
		}
		y, ok := Number(p[1])
		if !ok {
			return nil, false
		}
		return []float64{x, y}, true
	default:
		return nil, false
	}
}

func Line(v any) ([][]float64, bool) {
	switch l := v.(type) {
	case [][]float64:
		out := make([][]float64, 0, len(l))
		for _, p := range l {
			xy, ok := Position(p)
			if !ok {
				return nil, false
			}
			out = append(out, xy)
		}
		return out, true
	case []any:
		out := make([][]float64, 0, len(l))
		for _, p := range l {
			xy, ok := Position(p)
			if !ok {
				return nil, false
			}
			out = append(out, xy)
		}
		return out, true
	default:
		return nil, false
	}
}

func Rings(v any) ([][][]float64, bool) {
	switch rs := v.(type) {
	case [][][]float64:
		out := make([][][]float64, 0, len(rs))
		for _, r := range rs {
			l, ok := Line(r)
			if !ok {
				return nil, false
			}
			out = append(out, l)
		}
		return out, true
	case []any:
		out := make([][][]float64, 0, len(rs))
		for _, r := range rs {
			l, ok := Line(r)
			if !ok {
				return nil, false
			}
			out = append(out, l)
		}
		return out, true
	default:
		return nil, false
	}
}

func Polygons(v any) ([][][][]float64, bool) {
	switch ps := v.(type) {
	case [][][][]float64:
		out := make([][][][]float64, 0, len(ps))
		for _, p := range ps {
			r, ok := Rings(p)
			if !ok {
				return nil, false
			}
			out = append(out, r)
		}
		return out, true
	case []any:
		out := make([][][][]float64, 0, len(ps))
		for _, p := range ps {
			r, ok := Rings(p)
			if !ok {
				return nil, false
			}
			out = append(out, r)
		}
		return out, true
	default:
		return nil, false
	}
}
