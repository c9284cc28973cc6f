// Package wkb decodes PostGIS-style Well-Known Binary (plain WKB, ISO WKB
// and EWKB) into GeoJSON geometries. Only X and Y are surfaced; Z and M
// ordinates are read past so that following coordinates stay aligned.
package wkb

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mohammed-shakir/geopreview/internal/core/model"
)

var (
	ErrNotWKB          = errors.New("wkb: not a wkb hex string")
	ErrTruncated       = errors.New("wkb: truncated buffer")
	ErrUnsupportedType = errors.New("wkb: unsupported geometry type")
	ErrByteOrder       = errors.New("wkb: invalid byte order flag")
	ErrNonFinite       = errors.New("wkb: non-finite coordinate")
)

const (
	flagZ    uint32 = 0x80000000
	flagM    uint32 = 0x40000000
	flagSRID uint32 = 0x20000000

	minHexLen = 18
)

const (
	typePoint uint32 = iota + 1
	typeLineString
	typePolygon
	typeMultiPoint
	typeMultiLineString
	typeMultiPolygon
)

var typeNames = map[uint32]string{
	typePoint:           model.GeomPoint,
	typeLineString:      model.GeomLineString,
	typePolygon:         model.GeomPolygon,
	typeMultiPoint:      model.GeomMultiPoint,
	typeMultiLineString: model.GeomMultiLineString,
	typeMultiPolygon:    model.GeomMultiPolygon,
}

// IsHex reports whether s looks like hex-encoded WKB: optional 0x prefix,
// hex digits only, a 00/01 byte order flag and at least 18 hex characters.
func IsHex(s string) bool {
	s = trimPrefix(s)
	if len(s) < minHexLen || len(s)%2 != 0 {
		return false
	}
	if s[0] != '0' || (s[1] != '0' && s[1] != '1') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func trimPrefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func DecodeHex(s string) (*model.Geometry, error) {
	if !IsHex(s) {
		return nil, ErrNotWKB
	}
	b, err := hex.DecodeString(trimPrefix(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWKB, err)
	}
	return Decode(b)
}

// Decode parses a single WKB geometry from b. Trailing bytes are ignored.
func Decode(b []byte) (*model.Geometry, error) {
	r := &reader{buf: b}
	h, err := r.header()
	if err != nil {
		return nil, err
	}
	coords, err := r.body(h)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", typeName(h.typ), err)
	}
	return &model.Geometry{Type: typeNames[h.typ], Coordinates: coords}, nil
}

func typeName(t uint32) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("type %d", t)
}

type header struct {
	order binary.ByteOrder
	typ   uint32
	hasZ  bool
	hasM  bool
	srid  uint32
}

// bytes per coordinate tuple
func (h header) coordSize() int {
	n := 16
	if h.hasZ {
		n += 8
	}
	if h.hasM {
		n += 8
	}
	return n
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uint32(order binary.ByteOrder) (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (r *reader) float64(order binary.ByteOrder) (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(b)), nil
}

func (r *reader) header() (header, error) {
	flag, err := r.take(1)
	if err != nil {
		return header{}, err
	}
	var h header
	switch flag[0] {
	case 0:
		h.order = binary.BigEndian
	case 1:
		h.order = binary.LittleEndian
	default:
		return header{}, fmt.Errorf("%w: %#02x", ErrByteOrder, flag[0])
	}

	typ, err := r.uint32(h.order)
	if err != nil {
		return header{}, err
	}

	// EWKB high bits
	if typ&flagSRID != 0 {
		typ &^= flagSRID
		if h.srid, err = r.uint32(h.order); err != nil {
			return header{}, err
		}
	}
	if typ&flagZ != 0 {
		h.hasZ = true
		typ &^= flagZ
	}
	if typ&flagM != 0 {
		h.hasM = true
		typ &^= flagM
	}

	// ISO offsets
	switch {
	case typ >= 3000 && typ < 4000:
		h.hasZ, h.hasM = true, true
		typ -= 3000
	case typ >= 2000 && typ < 3000:
		h.hasM = true
		typ -= 2000
	case typ >= 1000 && typ < 2000:
		h.hasZ = true
		typ -= 1000
	}

	if _, ok := typeNames[typ]; !ok {
		return header{}, fmt.Errorf("%w: %d", ErrUnsupportedType, typ)
	}
	h.typ = typ
	return h, nil
}

// count reads a length prefix and rejects counts the remaining buffer
// cannot possibly hold.
func (r *reader) count(order binary.ByteOrder, minEach int) (int, error) {
	n, err := r.uint32(order)
	if err != nil {
		return 0, err
	}
	if minEach > 0 && uint64(n)*uint64(minEach) > uint64(r.remaining()) {
		return 0, fmt.Errorf("%w: count %d exceeds buffer", ErrTruncated, n)
	}
	return int(n), nil
}

func (r *reader) point(h header) ([]float64, error) {
	x, err := r.float64(h.order)
	if err != nil {
		return nil, err
	}
	y, err := r.float64(h.order)
	if err != nil {
		return nil, err
	}
	if _, err := r.take(h.coordSize() - 16); err != nil {
		return nil, err
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return nil, ErrNonFinite
	}
	return []float64{x, y}, nil
}

func (r *reader) points(h header) ([][]float64, error) {
	n, err := r.count(h.order, h.coordSize())
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, n)
	for range n {
		p, err := r.point(h)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *reader) rings(h header) ([][][]float64, error) {
	n, err := r.count(h.order, 4)
	if err != nil {
		return nil, err
	}
	out := make([][][]float64, 0, n)
	for range n {
		ring, err := r.points(h)
		if err != nil {
			return nil, err
		}
		out = append(out, ring)
	}
	return out, nil
}

// member reads the embedded header of a Multi* element and checks its type.
func (r *reader) member(want uint32) (header, error) {
	h, err := r.header()
	if err != nil {
		return header{}, err
	}
	if h.typ != want {
		return header{}, fmt.Errorf("%w: %s member inside multi geometry", ErrUnsupportedType, typeName(h.typ))
	}
	return h, nil
}

func (r *reader) body(h header) (any, error) {
	switch h.typ {
	case typePoint:
		return r.point(h)
	case typeLineString:
		return r.points(h)
	case typePolygon:
		return r.rings(h)
	case typeMultiPoint:
		n, err := r.count(h.order, 5+h.coordSize())
		if err != nil {
			return nil, err
		}
		out := make([][]float64, 0, n)
		for range n {
			mh, err := r.member(typePoint)
			if err != nil {
				return nil, err
			}
			p, err := r.point(mh)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case typeMultiLineString:
		n, err := r.count(h.order, 5+4)
		if err != nil {
			return nil, err
		}
		out := make([][][]float64, 0, n)
		for range n {
			mh, err := r.member(typeLineString)
			if err != nil {
				return nil, err
			}
			line, err := r.points(mh)
			if err != nil {
				return nil, err
			}
			out = append(out, line)
		}
		return out, nil
	case typeMultiPolygon:
		n, err := r.count(h.order, 5+4)
		if err != nil {
			return nil, err
		}
		out := make([][][][]float64, 0, n)
		for range n {
			mh, err := r.member(typePolygon)
			if err != nil {
				return nil, err
			}
			poly, err := r.rings(mh)
			if err != nil {
				return nil, err
			}
			out = append(out, poly)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, h.typ)
	}
}
