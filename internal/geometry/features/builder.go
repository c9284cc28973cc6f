// Package features builds GeoJSON FeatureCollections from tabular query results.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
	"github.com/mohammed-shakir/geopreview/internal/core/observability"
	"github.com/mohammed-shakir/geopreview/internal/geometry/bounds"
	"github.com/mohammed-shakir/geopreview/internal/geometry/classify"
	"github.com/mohammed-shakir/geopreview/internal/geometry/coords"
	"github.com/mohammed-shakir/geopreview/internal/geometry/normalize"
)

// rows between context checks
const ctxCheckEvery = 256

type Result struct {
	Collection     model.FeatureCollection `json:"featureCollection"`
	Bounds         *model.Bounds           `json:"bounds"`
	HasGeometry    bool                    `json:"hasGeometry"`
	Mode           classify.Mode           `json:"mode"`
	Classification classify.Result         `json:"classification"`
	Dropped        int                     `json:"dropped"`
}

type Builder struct {
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build classifies the columns of rs and converts every row it can.
// Rows that cannot be converted are dropped; only a cancelled context
// makes Build fail.
func (b *Builder) Build(ctx context.Context, rs model.RowSet) (Result, error) {
	start := time.Now()
	cls := classify.Classify(rs.Columns)
	res := Result{Mode: cls.Mode(), Classification: cls}

	var (
		feats []model.Feature
		err   error
	)
	switch res.Mode {
	case classify.ModeGeometry:
		feats, res.Dropped, err = b.fromGeometryColumn(ctx, rs, cls.GeometryIndex)
	case classify.ModeLatLng:
		feats, res.Dropped, err = b.fromLatLng(ctx, rs, cls.LatIndex, cls.LngIndex)
	default:
		b.logger.DebugContext(ctx, "no geometry or coordinate columns",
			"columns", len(rs.Columns))
	}
	if err != nil {
		return Result{}, err
	}

	res.Collection = model.NewFeatureCollection(feats)
	res.HasGeometry = len(res.Collection.Features) > 0
	res.Bounds = bounds.Of(res.Collection)

	observability.ObservePreview(string(res.Mode), len(res.Collection.Features), time.Since(start))
	return res, nil
}

func checkCtx(ctx context.Context, i int) error {
	if i%ctxCheckEvery != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("build aborted at row %d: %w", i, err)
	}
	return nil
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// properties maps every column except skip to the row's value.
func properties(cols []model.Column, row []any, skip ...int) map[string]any {
	props := make(map[string]any, len(cols))
	for i, c := range cols {
		skipped := false
		for _, s := range skip {
			if i == s {
				skipped = true
				break
			}
		}
		if !skipped {
			props[c.Name] = cell(row, i)
		}
	}
	return props
}

func (b *Builder) fromGeometryColumn(ctx context.Context, rs model.RowSet, gi int) ([]model.Feature, int, error) {
	col := rs.Columns[gi]
	feats := make([]model.Feature, 0, len(rs.Data))
	dropped := 0

	for i, row := range rs.Data {
		if err := checkCtx(ctx, i); err != nil {
			return nil, 0, err
		}
		f, kind, err := normalize.ToFeature(cell(row, gi))
		if kind != normalize.KindNone {
			observability.ObserveDecode(kind.String(), err)
		}
		if err != nil {
			dropped++
			if kind == normalize.KindNone {
				b.logger.DebugContext(ctx, "geometry cell empty or unrecognised; dropping row",
					"row", i, "column", col.Name)
				continue
			}
			b.logger.WarnContext(ctx, "geometry cell not decodable; dropping row",
				"row", i, "column", col.Name, "format", kind.String(), "err", err)
			continue
		}

		out := *f
		props := make(map[string]any, len(f.Properties)+len(rs.Columns))
		for k, v := range f.Properties {
			props[k] = v
		}
		for k, v := range properties(rs.Columns, row, gi) {
			props[k] = v
		}
		out.Properties = props
		feats = append(feats, out)
	}
	observability.AddDroppedRows(string(classify.ModeGeometry), "undecodable", dropped)
	return feats, dropped, nil
}

func (b *Builder) fromLatLng(ctx context.Context, rs model.RowSet, latIdx, lngIdx int) ([]model.Feature, int, error) {
	feats := make([]model.Feature, 0, len(rs.Data))
	var nonNumeric, outOfRange int

	for i, row := range rs.Data {
		if err := checkCtx(ctx, i); err != nil {
			return nil, 0, err
		}
		lat, okLat := ParseNumber(cell(row, latIdx))
		lng, okLng := ParseNumber(cell(row, lngIdx))
		if !okLat || !okLng {
			nonNumeric++
			continue
		}

		lat, lng, ok := FixLatLng(lat, lng)
		if !ok {
			outOfRange++
			b.logger.WarnContext(ctx, "coordinates out of range; dropping row",
				"row", i, "lat", lat, "lng", lng)
			continue
		}

		g := &model.Geometry{Type: model.GeomPoint, Coordinates: []float64{lng, lat}}
		feats = append(feats, model.NewFeature(g, properties(rs.Columns, row, latIdx, lngIdx)))
	}
	observability.AddDroppedRows(string(classify.ModeLatLng), "non_numeric", nonNumeric)
	observability.AddDroppedRows(string(classify.ModeLatLng), "out_of_range", outOfRange)
	return feats, nonNumeric + outOfRange, nil
}

// FixLatLng swaps values that look reversed (latitude outside [-90,90] while
// longitude fits inside it) and then validates both ranges. Both orders
// being valid is ambiguous and left untouched.
func FixLatLng(lat, lng float64) (float64, float64, bool) {
	if !inRange(lat, 90) && inRange(lng, 90) {
		lat, lng = lng, lat
	}
	return lat, lng, inRange(lat, 90) && inRange(lng, 180)
}

func inRange(v, limit float64) bool { return v >= -limit && v <= limit }

// ParseNumber accepts numbers and numeric strings; the result is always finite.
func ParseNumber(v any) (float64, bool) {
	if f, ok := coords.Number(v); ok {
		return f, true
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
