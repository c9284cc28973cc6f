package hexbin

import (
	"sort"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
)

func point(lng, lat float64) model.Feature {
	return model.NewFeature(&model.Geometry{Type: model.GeomPoint, Coordinates: []float64{lng, lat}}, nil)
}

func TestAggregate_CountsPerCell(t *testing.T) {
	fc := model.NewFeatureCollection([]model.Feature{
		point(18.0686, 59.3293),
		point(18.0687, 59.3294),
		point(13.0038, 55.6050),
		model.NewFeature(&model.Geometry{
			Type:        model.GeomMultiPoint,
			Coordinates: []any{[]any{13.0038, 55.6050}, []any{18.0686, 59.3293}},
		}, nil),
		model.NewFeature(&model.Geometry{
			Type:        model.GeomLineString,
			Coordinates: [][]float64{{0, 0}, {1, 1}},
		}, nil),
		{Type: model.TypeFeature},
	})

	res := 7
	out, err := Aggregate(fc, res)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(out.Features) != 2 {
		t.Fatalf("cells=%d want 2", len(out.Features))
	}

	sthlm, err := h3.LatLngToCell(h3.LatLng{Lat: 59.3293, Lng: 18.0686}, res)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	malmo, err := h3.LatLngToCell(h3.LatLng{Lat: 55.6050, Lng: 13.0038}, res)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	want := map[string]int{sthlm.String(): 3, malmo.String(): 2}

	var ids []string
	for _, f := range out.Features {
		id := f.Properties["cell"].(string)
		ids = append(ids, id)
		if f.Properties["count"] != want[id] {
			t.Fatalf("cell %s count=%v want %d", id, f.Properties["count"], want[id])
		}
		if f.Geometry.Type != model.GeomPolygon {
			t.Fatalf("type=%s want Polygon", f.Geometry.Type)
		}
		ring := f.Geometry.Coordinates.([][][]float64)[0]
		if len(ring) < 7 {
			t.Fatalf("ring too short: %d", len(ring))
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			t.Fatalf("ring not closed: %v .. %v", first, last)
		}
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("cells must be sorted: %v", ids)
	}
}

func TestAggregate_InvalidResolution(t *testing.T) {
	for _, res := range []int{-1, 16} {
		if _, err := Aggregate(model.NewFeatureCollection(nil), res); err == nil {
			t.Fatalf("expected error for res=%d", res)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	out, err := Aggregate(model.NewFeatureCollection(nil), 5)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(out.Features) != 0 || out.Type != model.TypeFeatureCollection {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestResolutionFor(t *testing.T) {
	if got := ResolutionFor(nil, 20, 6); got != 6 {
		t.Fatalf("nil bounds: got %d want fallback", got)
	}
	point := model.Bounds{{18, 59}, {18, 59}}
	if got := ResolutionFor(&point, 20, 6); got != 6 {
		t.Fatalf("degenerate bounds: got %d want fallback", got)
	}

	city := model.Bounds{{17.9, 59.2}, {18.2, 59.4}}
	country := model.Bounds{{11, 55}, {24, 69}}
	rc, rn := ResolutionFor(&city, 20, 6), ResolutionFor(&country, 20, 6)
	if rc <= rn {
		t.Fatalf("city resolution %d should be finer than country %d", rc, rn)
	}
	if err := ValidateRes(rc); err != nil {
		t.Fatal(err)
	}
}
