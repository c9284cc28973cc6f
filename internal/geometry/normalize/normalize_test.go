package normalize

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
)

const wkbPoint11 = "0101000000000000000000F03F000000000000F03F"

func TestClassify_PriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Kind
	}{
		{"nil", nil, KindNone},
		{"number", 42.0, KindNone},
		{"empty string", "   ", KindNone},
		{"plain text", "Stockholm", KindNone},
		{"feature map", map[string]any{"type": "Feature", "geometry": map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}}, KindFeature},
		{"geometry map", map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}, KindGeometry},
		{"map without coordinates", map[string]any{"type": "Point"}, KindNone},
		{"typed feature", model.NewFeature(&model.Geometry{Type: "Point", Coordinates: []float64{1, 2}}, nil), KindFeature},
		{"typed geometry", &model.Geometry{Type: "Point", Coordinates: []float64{1, 2}}, KindGeometry},
		{"wkb hex", wkbPoint11, KindWKB},
		{"wkb hex 0x", "0x" + wkbPoint11, KindWKB},
		{"wkb bytes as text", []byte(wkbPoint11), KindWKB},
		{"wkb raw bytes", []byte{1, 1, 0, 0, 0}, KindWKBBinary},
		{"geojson geometry text", `{"type":"Point","coordinates":[1,2]}`, KindGeoJSONText},
		{"geojson feature text", `{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}`, KindGeoJSONText},
		{"json but not geometry", `{"name":"x"}`, KindNone},
		{"raw message", json.RawMessage(`{"type":"Point","coordinates":[1,2]}`), KindGeoJSONText},
		{"wkt", "POINT (1 2)", KindWKT},
		{"malformed wkt", "POINT(1)", KindNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.in).Kind; got != tc.want {
				t.Fatalf("Classify kind=%s want %s", got, tc.want)
			}
		})
	}
}

func TestToFeature_AllFormatsAgree(t *testing.T) {
	want := []float64{1, 1}
	for _, in := range []any{
		wkbPoint11,
		"POINT (1 1)",
		`{"type":"Point","coordinates":[1,1]}`,
		&model.Geometry{Type: "Point", Coordinates: []float64{1, 1}},
	} {
		f, kind, err := ToFeature(in)
		if err != nil {
			t.Fatalf("ToFeature(%v) kind=%s: %v", in, kind, err)
		}
		if f.Type != model.TypeFeature || f.Geometry == nil || f.Geometry.Type != model.GeomPoint {
			t.Fatalf("unexpected feature for %v: %+v", in, f)
		}
		if f.Properties == nil {
			t.Fatalf("properties must be non-nil for %v", in)
		}
		switch c := f.Geometry.Coordinates.(type) {
		case []float64:
			if !reflect.DeepEqual(c, want) {
				t.Fatalf("coords=%v want %v", c, want)
			}
		case []any:
			if len(c) != 2 || c[0].(float64) != 1 || c[1].(float64) != 1 {
				t.Fatalf("coords=%v want [1 1]", c)
			}
		default:
			t.Fatalf("unexpected coordinate type %T", c)
		}
	}
}

func TestToFeature_FeaturePassThroughKeepsProperties(t *testing.T) {
	in := `{"type":"Feature","id":7,"geometry":{"type":"Point","coordinates":[3,4]},"properties":{"name":"a"}}`
	f, kind, err := ToFeature(in)
	if err != nil {
		t.Fatalf("ToFeature: %v", err)
	}
	if kind != KindGeoJSONText {
		t.Fatalf("kind=%s", kind)
	}
	if f.Properties["name"] != "a" {
		t.Fatalf("properties=%v", f.Properties)
	}
	if f.ID != 7.0 {
		t.Fatalf("id=%v want 7", f.ID)
	}
}

func TestToFeature_Failures(t *testing.T) {
	// valid hex prefix but unsupported geometry type code
	_, kind, err := ToFeature("0107000000000000000000F03F000000000000F03F")
	if kind != KindWKB || err == nil {
		t.Fatalf("kind=%s err=%v", kind, err)
	}

	_, kind, err = ToFeature("not a geometry")
	if kind != KindNone || !errors.Is(err, ErrNotGeometry) {
		t.Fatalf("kind=%s err=%v", kind, err)
	}

	_, _, err = ToFeature(map[string]any{"type": "Feature", "geometry": "oops"})
	if !errors.Is(err, ErrNotGeometry) {
		t.Fatalf("err=%v want ErrNotGeometry", err)
	}
}

// a hex string is WKB even though it could also be read as other text
func TestClassify_HexNeverFallsThrough(t *testing.T) {
	v := Classify("0101000000000000000000F03F000000000000")
	if v.Kind != KindWKB {
		t.Fatalf("kind=%s want wkb", v.Kind)
	}
	if _, err := Decode(v); err == nil {
		t.Fatal("truncated wkb must fail to decode")
	}
}

func TestClassify_RejectsMismatchedCoordinateShape(t *testing.T) {
	bad := []any{
		map[string]any{"type": "LineString", "coordinates": []any{1.0, 2.0}},
		map[string]any{"type": "Point", "coordinates": []any{[]any{1.0, 2.0}}},
		map[string]any{"type": "Polygon", "coordinates": []any{[]any{1.0, 2.0}}},
		`{"type":"MultiPolygon","coordinates":[[1,2]]}`,
		map[string]any{"type": "Feature", "geometry": map[string]any{"type": "LineString", "coordinates": []any{1.0, 2.0}}},
	}
	for _, in := range bad {
		if _, _, err := ToFeature(in); !errors.Is(err, ErrNotGeometry) {
			t.Fatalf("ToFeature(%v) err=%v want ErrNotGeometry", in, err)
		}
	}

	good := map[string]any{"type": "LineString", "coordinates": []any{[]any{1.0, 2.0}, []any{3.0, 4.0}}}
	if v := Classify(good); v.Kind != KindGeometry {
		t.Fatalf("kind=%s want geometry", v.Kind)
	}
	custom := map[string]any{"type": "Circle", "coordinates": []any{1.0, 2.0}}
	if v := Classify(custom); v.Kind != KindGeometry {
		t.Fatalf("unknown types pass through, kind=%s", v.Kind)
	}
}
