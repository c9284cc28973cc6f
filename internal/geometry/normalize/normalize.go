// Package normalize turns a single opaque result cell into a GeoJSON Feature.
//
// Cells are classified first and decoded second. Classification follows a
// fixed priority: structured Feature, structured geometry, WKB hex, GeoJSON
// text, WKT text. WKB is tried before JSON and WKT so that hex strings are
// never misread as anything else.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
	"github.com/mohammed-shakir/geopreview/internal/geometry/coords"
	"github.com/mohammed-shakir/geopreview/internal/geometry/wkb"
	"github.com/mohammed-shakir/geopreview/internal/geometry/wkt"
)

type Kind int

const (
	KindNone Kind = iota
	KindFeature
	KindGeometry
	KindWKB
	KindWKBBinary
	KindGeoJSONText
	KindWKT
)

func (k Kind) String() string {
	switch k {
	case KindFeature:
		return "feature"
	case KindGeometry:
		return "geometry"
	case KindWKB:
		return "wkb"
	case KindWKBBinary:
		return "wkb_binary"
	case KindGeoJSONText:
		return "geojson"
	case KindWKT:
		return "wkt"
	default:
		return "none"
	}
}

var ErrNotGeometry = errors.New("value is not a recognizable geometry")

// Value is a classified cell. WKB payloads are kept raw until Decode; text
// formats carry the structure found while classifying.
type Value struct {
	Kind     Kind
	Feature  *model.Feature
	Geometry *model.Geometry
	Text     string
	Bytes    []byte
}

// Classify decides which format v is in. The first matching rule wins.
func Classify(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case model.Feature:
		return Value{Kind: KindFeature, Feature: &t}
	case *model.Feature:
		if t == nil {
			return Value{}
		}
		return Value{Kind: KindFeature, Feature: t}
	case model.Geometry:
		if t.Type == "" || t.Coordinates == nil {
			return Value{}
		}
		return Value{Kind: KindGeometry, Geometry: &t}
	case *model.Geometry:
		if t == nil || t.Type == "" || t.Coordinates == nil {
			return Value{}
		}
		return Value{Kind: KindGeometry, Geometry: t}
	case map[string]any:
		return classifyObject(t)
	case json.RawMessage:
		return classifyString(string(t))
	case []byte:
		if wkb.IsHex(string(t)) {
			return Value{Kind: KindWKB, Text: string(t)}
		}
		if len(t) > 0 && (t[0] == 0 || t[0] == 1) {
			return Value{Kind: KindWKBBinary, Bytes: t}
		}
		return classifyString(string(t))
	case string:
		return classifyString(t)
	default:
		return Value{}
	}
}

func classifyString(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	if wkb.IsHex(s) {
		return Value{Kind: KindWKB, Text: s}
	}
	if s[0] == '{' {
		var obj map[string]any
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			if inner := classifyObject(obj); inner.Kind != KindNone {
				return Value{Kind: KindGeoJSONText, Text: s, Feature: inner.Feature, Geometry: inner.Geometry}
			}
		}
	}
	if g, ok := wkt.Decode(s); ok {
		return Value{Kind: KindWKT, Text: s, Geometry: g}
	}
	return Value{}
}

func classifyObject(obj map[string]any) Value {
	typ, _ := obj["type"].(string)
	if typ == model.TypeFeature {
		f, err := featureFromMap(obj)
		if err != nil {
			return Value{}
		}
		return Value{Kind: KindFeature, Feature: f}
	}
	if typ != "" {
		if c, ok := obj["coordinates"]; ok && c != nil && shapeOK(typ, c) {
			return Value{Kind: KindGeometry, Geometry: &model.Geometry{Type: typ, Coordinates: c}}
		}
	}
	return Value{}
}

// shapeOK checks that the coordinate nesting depth matches a known GeoJSON
// type. Unknown types are passed through.
func shapeOK(typ string, c any) bool {
	var ok bool
	switch typ {
	case model.GeomPoint:
		_, ok = coords.Position(c)
	case model.GeomLineString, model.GeomMultiPoint:
		_, ok = coords.Line(c)
	case model.GeomPolygon, model.GeomMultiLineString:
		_, ok = coords.Rings(c)
	case model.GeomMultiPolygon:
		_, ok = coords.Polygons(c)
	default:
		ok = true
	}
	return ok
}

func featureFromMap(obj map[string]any) (*model.Feature, error) {
	f := &model.Feature{Type: model.TypeFeature, ID: obj["id"], Properties: map[string]any{}}
	if props, ok := obj["properties"].(map[string]any); ok {
		f.Properties = props
	}
	switch g := obj["geometry"].(type) {
	case nil:
	case map[string]any:
		typ, _ := g["type"].(string)
		if typ == "" {
			return nil, errors.New("feature geometry without type")
		}
		if !shapeOK(typ, g["coordinates"]) {
			return nil, fmt.Errorf("feature geometry coordinates do not match %s", typ)
		}
		f.Geometry = &model.Geometry{Type: typ, Coordinates: g["coordinates"]}
	default:
		return nil, fmt.Errorf("feature geometry has unexpected shape %T", g)
	}
	return f, nil
}

// Decode materialises a classified value into a Feature.
func Decode(v Value) (*model.Feature, error) {
	switch v.Kind {
	case KindFeature:
		return v.Feature, nil
	case KindGeometry:
		f := model.NewFeature(v.Geometry, nil)
		return &f, nil
	case KindGeoJSONText:
		if v.Feature != nil {
			return v.Feature, nil
		}
		f := model.NewFeature(v.Geometry, nil)
		return &f, nil
	case KindWKB:
		g, err := wkb.DecodeHex(v.Text)
		if err != nil {
			return nil, fmt.Errorf("decode wkb: %w", err)
		}
		f := model.NewFeature(g, nil)
		return &f, nil
	case KindWKBBinary:
		g, err := wkb.Decode(v.Bytes)
		if err != nil {
			return nil, fmt.Errorf("decode wkb: %w", err)
		}
		f := model.NewFeature(g, nil)
		return &f, nil
	case KindWKT:
		g := v.Geometry
		if g == nil {
			var ok bool
			if g, ok = wkt.Decode(v.Text); !ok {
				return nil, fmt.Errorf("decode wkt: %w", ErrNotGeometry)
			}
		}
		f := model.NewFeature(g, nil)
		return &f, nil
	default:
		return nil, ErrNotGeometry
	}
}

// ToFeature classifies and decodes v in one step.
func ToFeature(v any) (*model.Feature, Kind, error) {
	cv := Classify(v)
	f, err := Decode(cv)
	return f, cv.Kind, err
}
