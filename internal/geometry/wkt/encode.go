package wkt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
	"github.com/mohammed-shakir/geopreview/internal/geometry/coords"
)

var ErrUnsupported = errors.New("wkt: unsupported geometry")

// Encode renders g as WKT. Coordinates are written with the shortest
// representation that round-trips.
func Encode(g *model.Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: nil geometry", ErrUnsupported)
	}
	switch strings.TrimSpace(g.Type) {
	case model.GeomPoint:
		p, ok := coords.Position(g.Coordinates)
		if !ok {
			return "", errors.New("point coordinate must be [x,y]")
		}
		return fmt.Sprintf("POINT(%s)", position(p)), nil
	case model.GeomLineString:
		line, ok := coords.Line(g.Coordinates)
		if !ok || len(line) == 0 {
			return "", errors.New("empty or malformed linestring")
		}
		return fmt.Sprintf("LINESTRING(%s)", positions(line)), nil
	case model.GeomMultiPoint:
		pts, ok := coords.Line(g.Coordinates)
		if !ok || len(pts) == 0 {
			return "", errors.New("empty or malformed multipoint")
		}
		return fmt.Sprintf("MULTIPOINT(%s)", positions(pts)), nil
	case model.GeomPolygon:
		rings, ok := coords.Rings(g.Coordinates)
		if !ok {
			return "", errors.New("malformed polygon coordinates")
		}
		return polygonToWKT(rings)
	case model.GeomMultiLineString:
		lines, ok := coords.Rings(g.Coordinates)
		if !ok || len(lines) == 0 {
			return "", errors.New("empty or malformed multilinestring")
		}
		parts := make([]string, 0, len(lines))
		for _, l := range lines {
			parts = append(parts, fmt.Sprintf("(%s)", positions(l)))
		}
		return fmt.Sprintf("MULTILINESTRING(%s)", strings.Join(parts, ", ")), nil
	case model.GeomMultiPolygon:
		polys, ok := coords.Polygons(g.Coordinates)
		if !ok {
			return "", errors.New("malformed multipolygon coordinates")
		}
		return multiPolygonToWKT(polys)
	default:
		return "", fmt.Errorf("%w: type %q", ErrUnsupported, g.Type)
	}
}

func polygonToWKT(rings [][][]float64) (string, error) {
	if len(rings) == 0 {
		return "", errors.New("empty polygon")
	}
	outRings := make([]string, 0, len(rings))
	for _, ring := range rings {
		if len(ring) < 4 {
			return "", errors.New("polygon ring has <4 points")
		}
		outRings = append(outRings, fmt.Sprintf("(%s)", positions(ring)))
	}
	return fmt.Sprintf("POLYGON(%s)", strings.Join(outRings, ", ")), nil
}

func multiPolygonToWKT(polys [][][][]float64) (string, error) {
	if len(polys) == 0 {
		return "", errors.New("empty multipolygon")
	}
	parts := make([]string, 0, len(polys))
	for _, poly := range polys {
		wkt, err := polygonToWKT(poly)
		if err != nil {
			return "", err
		}
		// strip "POLYGON" wrapper to embed into MULTIPOLYGON
		parts = append(parts, strings.TrimPrefix(wkt, "POLYGON"))
	}
	return fmt.Sprintf("MULTIPOLYGON(%s)", strings.Join(parts, ", ")), nil
}

func position(p []float64) string {
	return strconv.FormatFloat(p[0], 'f', -1, 64) + " " + strconv.FormatFloat(p[1], 'f', -1, 64)
}

func positions(ps [][]float64) string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, position(p))
	}
	return strings.Join(out, ", ")
}
