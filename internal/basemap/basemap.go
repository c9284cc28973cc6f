// Package basemap stores the tile providers offered by the map preview: the
// list of basemaps, their display order and the selected default.
package basemap

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrNotFound     = errors.New("basemap not found")
	ErrConflict     = errors.New("basemap id already exists")
	ErrInvalid      = errors.New("invalid basemap")
	ErrLastBasemap  = errors.New("cannot remove the last basemap")
	ErrInvalidOrder = errors.New("order must list every basemap id exactly once")
)

type Basemap struct {
	ID          string `json:"id" validate:"required,alphanum,max=64"`
	Name        string `json:"name" validate:"required,max=100"`
	URLTemplate string `json:"urlTemplate" validate:"required,max=2048,tiletemplate"`
	Attribution string `json:"attribution" validate:"max=500"`
	MaxZoom     int    `json:"maxZoom" validate:"gte=0,lte=24"`
}

type Settings struct {
	Basemaps  []Basemap `json:"basemaps"`
	Order     []string  `json:"order"`
	DefaultID string    `json:"defaultId"`
	Version   uint64    `json:"version"`
}

const (
	OSMID       = "osm"
	idAlphabet  = "abcdefghikmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ0123456789"
	idLength    = 12
	defaultZoom = 19
)

// Defaults is the settings document served before anything was stored.
func Defaults() Settings {
	return Settings{
		Basemaps: []Basemap{{
			ID:          OSMID,
			Name:        "OpenStreetMap",
			URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "© OpenStreetMap contributors",
			MaxZoom:     defaultZoom,
		}},
		Order:     []string{OSMID},
		DefaultID: OSMID,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("tiletemplate", func(fl validator.FieldLevel) bool {
		return validTemplate(fl.Field().String())
	})
	return v
}

// validTemplate requires an http(s) URL carrying the {z}, {x} and {y}
// placeholders. Other placeholders such as {s} or {r} are left alone.
func validTemplate(s string) bool {
	l := strings.ToLower(s)
	if !strings.HasPrefix(l, "https://") && !strings.HasPrefix(l, "http://") {
		return false
	}
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

// Validate reports every failing field wrapped in ErrInvalid.
func (b Basemap) Validate() error {
	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func newID() (string, error) {
	id, err := gonanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", fmt.Errorf("generate basemap id: %w", err)
	}
	return id, nil
}

func (s Settings) index(id string) int {
	return slices.IndexFunc(s.Basemaps, func(b Basemap) bool { return b.ID == id })
}

// Ordered returns the basemaps in display order; entries missing from Order
// are appended in storage order.
func (s Settings) Ordered() []Basemap {
	out := make([]Basemap, 0, len(s.Basemaps))
	seen := make(map[string]bool, len(s.Basemaps))
	for _, id := range s.Order {
		if i := s.index(id); i >= 0 && !seen[id] {
			out = append(out, s.Basemaps[i])
			seen[id] = true
		}
	}
	for _, b := range s.Basemaps {
		if !seen[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

// Default returns the default basemap, falling back to the first in order.
func (s Settings) Default() (Basemap, bool) {
	if i := s.index(s.DefaultID); i >= 0 {
		return s.Basemaps[i], true
	}
	if o := s.Ordered(); len(o) > 0 {
		return o[0], true
	}
	return Basemap{}, false
}

func (s Settings) clone() Settings {
	return Settings{
		Basemaps:  slices.Clone(s.Basemaps),
		Order:     slices.Clone(s.Order),
		DefaultID: s.DefaultID,
		Version:   s.Version,
	}
}

// normalize repairs order and default after a mutation.
func (s *Settings) normalize() {
	ordered := s.Ordered()
	s.Order = make([]string, 0, len(ordered))
	for _, b := range ordered {
		s.Order = append(s.Order, b.ID)
	}
	if s.index(s.DefaultID) < 0 {
		s.DefaultID = ""
		if len(s.Order) > 0 {
			s.DefaultID = s.Order[0]
		}
	}
}
