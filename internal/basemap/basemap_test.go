package basemap

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	good := Basemap{ID: "carto1", Name: "Carto", URLTemplate: "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png", MaxZoom: 20}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid basemap rejected: %v", err)
	}

	cases := map[string]Basemap{
		"missing name":     {ID: "a", URLTemplate: "https://t/{z}/{x}/{y}.png"},
		"missing y":        {ID: "a", Name: "n", URLTemplate: "https://t/{z}/{x}.png"},
		"not http":         {ID: "a", Name: "n", URLTemplate: "ftp://t/{z}/{x}/{y}.png"},
		"zoom too deep":    {ID: "a", Name: "n", URLTemplate: "https://t/{z}/{x}/{y}.png", MaxZoom: 30},
		"id with slash":    {ID: "a/b", Name: "n", URLTemplate: "https://t/{z}/{x}/{y}.png"},
		"name too long":    {ID: "a", Name: strings.Repeat("n", 101), URLTemplate: "https://t/{z}/{x}/{y}.png"},
		"negative maxzoom": {ID: "a", Name: "n", URLTemplate: "https://t/{z}/{x}/{y}.png", MaxZoom: -1},
	}
	for name, b := range cases {
		err := b.Validate()
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: err=%v want ErrInvalid", name, err)
		}
	}
}

func TestValidate_MessageNamesField(t *testing.T) {
	err := Basemap{ID: "a", Name: "n", URLTemplate: "https://t/{z}/{x}.png"}.Validate()
	if err == nil || !strings.Contains(err.Error(), "URLTemplate") {
		t.Fatalf("err=%v should name the URLTemplate field", err)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if err := d.Basemaps[0].Validate(); err != nil {
		t.Fatalf("built-in basemap invalid: %v", err)
	}
	def, ok := d.Default()
	if !ok || def.ID != OSMID {
		t.Fatalf("default=%+v ok=%v", def, ok)
	}
}

func TestSettings_OrderedAndDefaultFallback(t *testing.T) {
	s := Settings{
		Basemaps:  []Basemap{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Order:     []string{"c", "ghost", "a", "c"},
		DefaultID: "ghost",
	}
	var ids []string
	for _, b := range s.Ordered() {
		ids = append(ids, b.ID)
	}
	if strings.Join(ids, ",") != "c,a,b" {
		t.Fatalf("ordered=%v want c,a,b", ids)
	}
	if def, ok := s.Default(); !ok || def.ID != "c" {
		t.Fatalf("default fallback=%+v", def)
	}

	s.normalize()
	if strings.Join(s.Order, ",") != "c,a,b" || s.DefaultID != "c" {
		t.Fatalf("normalize: order=%v default=%q", s.Order, s.DefaultID)
	}

	if _, ok := (Settings{}).Default(); ok {
		t.Fatal("empty settings have no default")
	}
}

func TestNewID(t *testing.T) {
	a, err := newID()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newID()
	if len(a) != idLength || a == b {
		t.Fatalf("ids %q %q", a, b)
	}
	if err := (Basemap{ID: a, Name: "n", URLTemplate: "https://t/{z}/{x}/{y}.png"}).Validate(); err != nil {
		t.Fatalf("generated id rejected: %v", err)
	}
}
