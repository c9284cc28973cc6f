// Package wkt converts between Well-Known Text and GeoJSON geometries.
// Decoding covers POINT, LINESTRING, POLYGON and MULTIPOINT; anything else
// is reported as no match.
package wkt

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
)

const dims = `(?:\s*(?:ZM|Z|M))?`

var (
	sridPrefix = regexp.MustCompile(`(?i)^SRID=\d+;`)

	pointRe      = regexp.MustCompile(`(?is)^POINT` + dims + `\s*\(\s*([^()]+?)\s*\)$`)
	lineRe       = regexp.MustCompile(`(?is)^LINESTRING` + dims + `\s*\(\s*([^()]+?)\s*\)$`)
	polygonRe    = regexp.MustCompile(`(?is)^POLYGON` + dims + `\s*\(\s*(\(.+\))\s*\)$`)
	multiPointRe = regexp.MustCompile(`(?is)^MULTIPOINT` + dims + `\s*\((.+)\)$`)

	ringSep = regexp.MustCompile(`\)\s*,\s*\(`)
	pairSep = regexp.MustCompile(`\s*,\s*`)
)

// Decode parses s. It returns false when s is not a supported WKT geometry
// or any coordinate fails to parse.
func Decode(s string) (*model.Geometry, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(sridPrefix.ReplaceAllString(s, ""))
	if s == "" {
		return nil, false
	}

	if m := pointRe.FindStringSubmatch(s); m != nil {
		p, ok := parsePosition(m[1])
		if !ok {
			return nil, false
		}
		return &model.Geometry{Type: model.GeomPoint, Coordinates: p}, true
	}

	if m := lineRe.FindStringSubmatch(s); m != nil {
		line, ok := parseLine(m[1])
		if !ok {
			return nil, false
		}
		return &model.Geometry{Type: model.GeomLineString, Coordinates: line}, true
	}

	if m := polygonRe.FindStringSubmatch(s); m != nil {
		parts := ringSep.Split(m[1], -1)
		rings := make([][][]float64, 0, len(parts))
		for _, part := range parts {
			ring, ok := parseLine(stripParens(part))
			if !ok {
				return nil, false
			}
			rings = append(rings, ring)
		}
		return &model.Geometry{Type: model.GeomPolygon, Coordinates: rings}, true
	}

	if m := multiPointRe.FindStringSubmatch(s); m != nil {
		pts, ok := parseLine(stripParens(m[1]))
		if !ok {
			return nil, false
		}
		return &model.Geometry{Type: model.GeomMultiPoint, Coordinates: pts}, true
	}

	return nil, false
}

func stripParens(s string) string {
	return strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(s))
}

func parseLine(s string) ([][]float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	parts := pairSep.Split(s, -1)
	out := make([][]float64, 0, len(parts))
	for _, p := range parts {
		xy, ok := parsePosition(p)
		if !ok {
			return nil, false
		}
		out = append(out, xy)
	}
	return out, true
}

// x y [z [m]]; ordinates past the second are ignored
func parsePosition(s string) ([]float64, bool) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 4 {
		return nil, false
	}
	out := make([]float64, 0, 2)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		if i < 2 {
			out = append(out, v)
		}
	}
	return out, true
}
