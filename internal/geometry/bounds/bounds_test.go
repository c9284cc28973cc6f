package bounds

import (
	"encoding/json"
	"testing"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
)

func point(x, y float64) model.Feature {
	return model.NewFeature(&model.Geometry{Type: model.GeomPoint, Coordinates: []float64{x, y}}, nil)
}

func TestOf_TwoPoints(t *testing.T) {
	fc := model.NewFeatureCollection([]model.Feature{point(0, 0), point(10, 20)})
	b := Of(fc)
	if b == nil {
		t.Fatal("expected bounds")
	}
	want := model.Bounds{{0, 0}, {10, 20}}
	if *b != want {
		t.Fatalf("bounds=%v want %v", *b, want)
	}
}

func TestOf_Empty(t *testing.T) {
	if b := Of(model.NewFeatureCollection(nil)); b != nil {
		t.Fatalf("bounds=%v want nil", *b)
	}
	nullGeom := model.NewFeatureCollection([]model.Feature{{Type: model.TypeFeature}})
	if b := Of(nullGeom); b != nil {
		t.Fatalf("bounds=%v want nil for null geometry", *b)
	}
}

func TestOf_MixedNesting(t *testing.T) {
	fc := model.NewFeatureCollection([]model.Feature{
		model.NewFeature(&model.Geometry{
			Type:        model.GeomLineString,
			Coordinates: [][]float64{{-5, 1}, {3, 2}},
		}, nil),
		model.NewFeature(&model.Geometry{
			Type: model.GeomMultiPolygon,
			Coordinates: [][][][]float64{
				{{{0, -7}, {1, 0}, {1, 1}, {0, -7}}},
				{{{2, 2}, {8, 2}, {8, 9}, {2, 2}}},
			},
		}, nil),
	})
	want := model.Bounds{{-5, -7}, {8, 9}}
	if got := Of(fc); got == nil || *got != want {
		t.Fatalf("bounds=%v want %v", got, want)
	}
}

func TestOf_ParsedJSONCoordinates(t *testing.T) {
	var g model.Geometry
	if err := json.Unmarshal([]byte(`{"type":"Polygon","coordinates":[[[100,0],[101,0],[101,1],[100,1],[100,0]]]}`), &g); err != nil {
		t.Fatal(err)
	}
	got := OfGeometry(&g)
	want := model.Bounds{{100, 0}, {101, 1}}
	if got == nil || *got != want {
		t.Fatalf("bounds=%v want %v", got, want)
	}
}

func TestOfGeometry_IgnoresJunk(t *testing.T) {
	g := &model.Geometry{Type: "Point", Coordinates: []any{"a", "b"}}
	if b := OfGeometry(g); b != nil {
		t.Fatalf("bounds=%v want nil", *b)
	}
	if b := OfGeometry(nil); b != nil {
		t.Fatal("nil geometry must give nil bounds")
	}
}
