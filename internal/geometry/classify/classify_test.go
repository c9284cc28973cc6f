package classify

import (
	"testing"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
)

func TestClassify_GeometryByType(t *testing.T) {
	cases := []struct {
		typ  string
		want bool
	}{
		{"geometry", true},
		{"GEOGRAPHY", true},
		{"geometry(Point,4326)", true},
		{"MultiPolygon", true},
		{"GeometryCollection", true},
		{"varchar", false},
		{"double", false},
	}
	for _, tc := range cases {
		got := IsGeometryColumn(model.Column{Name: "value", Type: tc.typ})
		if got != tc.want {
			t.Fatalf("type=%q got %v want %v", tc.typ, got, tc.want)
		}
	}
}

func TestClassify_GeometryByName(t *testing.T) {
	for _, name := range []string{"geom", "the_geom", "GeoJSON_shape", "geometry_wkt"} {
		if !IsGeometryColumn(model.Column{Name: name, Type: "text"}) {
			t.Fatalf("name=%q should be detected as geometry", name)
		}
	}
	if IsGeometryColumn(model.Column{Name: "city", Type: "text"}) {
		t.Fatal("city should not be geometry")
	}
}

func TestClassify_UserDefinedFallback(t *testing.T) {
	res := Classify([]model.Column{{Name: "geom", Type: "USER-DEFINED"}})
	if res.GeometryIndex != 0 {
		t.Fatalf("GeometryIndex=%d want 0", res.GeometryIndex)
	}

	for _, name := range []string{"location", "shape", "boundary", "wkb_geometry", "store_location"} {
		if !IsGeometryColumn(model.Column{Name: name, Type: "USER-DEFINED"}) {
			t.Fatalf("USER-DEFINED %q should be geometry", name)
		}
	}
	// conventional names only count for USER-DEFINED columns
	if IsGeometryColumn(model.Column{Name: "location", Type: "varchar"}) {
		t.Fatal("varchar location should not be geometry")
	}
	if IsGeometryColumn(model.Column{Name: "status", Type: "USER-DEFINED"}) {
		t.Fatal("USER-DEFINED status should not be geometry")
	}
}

func TestClassify_LatLngPair(t *testing.T) {
	res := Classify([]model.Column{
		{Name: "name", Type: "varchar"},
		{Name: "lat", Type: "double"},
		{Name: "lng", Type: "double"},
	})
	if res.HasGeometry() {
		t.Fatal("unexpected geometry column")
	}
	if res.LatIndex != 1 || res.LngIndex != 2 {
		t.Fatalf("lat=%d lng=%d want 1,2", res.LatIndex, res.LngIndex)
	}
	if res.Mode() != ModeLatLng {
		t.Fatalf("mode=%s want latlng", res.Mode())
	}
}

func TestClassify_LatLngNames(t *testing.T) {
	lat := []string{"lat", "Latitude", "y", "pickup_lat", "LAT_DEG"}
	for _, n := range lat {
		if !IsLatitudeName(n) {
			t.Fatalf("%q should be latitude", n)
		}
	}
	lng := []string{"long", "lng", "LONGITUDE", "x", "pickup_lon"}
	for _, n := range lng {
		if !IsLongitudeName(n) {
			t.Fatalf("%q should be longitude", n)
		}
	}
	if IsLatitudeName("latlon") {
		t.Fatal("latlon must not count as latitude")
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	res := Classify([]model.Column{
		{Name: "start_lat", Type: "double"},
		{Name: "start_lon", Type: "double"},
		{Name: "end_lat", Type: "double"},
		{Name: "end_lon", Type: "double"},
	})
	if res.LatIndex != 0 || res.LngIndex != 1 {
		t.Fatalf("lat=%d lng=%d want 0,1", res.LatIndex, res.LngIndex)
	}
}

func TestClassify_GeometryTakesPrecedence(t *testing.T) {
	res := Classify([]model.Column{
		{Name: "lat", Type: "double"},
		{Name: "lng", Type: "double"},
		{Name: "geom", Type: "geometry"},
	})
	if res.GeometryIndex != 2 {
		t.Fatalf("GeometryIndex=%d want 2", res.GeometryIndex)
	}
	if res.HasLatLng() || res.LatIndex != -1 || res.LngIndex != -1 {
		t.Fatalf("lat/lng should not be reported when geometry exists: %+v", res)
	}
	if res.Mode() != ModeGeometry {
		t.Fatalf("mode=%s want geometry", res.Mode())
	}
}

func TestClassify_OnlyOneCoordinateColumn(t *testing.T) {
	res := Classify([]model.Column{{Name: "lat", Type: "double"}, {Name: "city", Type: "text"}})
	if res.Mode() != ModeNone {
		t.Fatalf("mode=%s want none", res.Mode())
	}
	if res.LatIndex != -1 || res.LngIndex != -1 {
		t.Fatalf("partial pair must be reported as -1: %+v", res)
	}
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"geography":    "GEOMETRY",
		"POINT":        "GEOMETRY",
		"multipolygon": "GEOMETRY",
		"varchar":      "VARCHAR",
		" int64 ":      "INT64",
	}
	for in, want := range cases {
		if got := NormalizeType(in); got != want {
			t.Fatalf("NormalizeType(%q)=%q want %q", in, got, want)
		}
	}
}
