// Package polyline converts between coordinate paths and the compact ASCII
// polyline format used by the Google Maps Directions API.
//
// Each coordinate is scaled by 1e5, delta-encoded against the previous point
// (the first point against the origin), zig-zag encoded and written as 5-bit
// chunks offset into the printable ASCII range.
package polyline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	precision    = 1e5
	asciiOffset  = 63
	chunkBits    = 5
	chunkMask    = 0x1f
	continuation = 0x20

	// Ten chunks carry 50 bits, far more than any degree delta at 1e5 scale.
	maxChunks = 10
)

var (
	// ErrMalformedPolyline is returned when an encoded string cannot be decoded,
	// most commonly because it ends in the middle of a value.
	ErrMalformedPolyline = errors.New("malformed polyline")

	// ErrInvalidCoordinate is returned when a point to encode is not finite or
	// lies outside the latitude/longitude degree range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Path is an ordered sequence of points forming a polyline.
type Path []Point

// Valid reports whether the point is finite and within [-90, 90] / [-180, 180].
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Encode serializes path into an encoded polyline string. An empty path
// encodes to the empty string.
func Encode(path Path) (string, error) {
	var b strings.Builder
	b.Grow(len(path) * 8)

	var prevLat, prevLng int64
	for i, p := range path {
		if !p.Valid() {
			return "", fmt.Errorf("%w: point %d (%v, %v)", ErrInvalidCoordinate, i, p.Lat, p.Lng)
		}
		lat := scale(p.Lat)
		lng := scale(p.Lng)

		writeValue(&b, lat-prevLat)
		writeValue(&b, lng-prevLng)

		prevLat, prevLng = lat, lng
	}
	return b.String(), nil
}

// Decode parses an encoded polyline string into the path it represents. An
// empty string decodes to an empty path.
func Decode(encoded string) (Path, error) {
	path := make(Path, 0, len(encoded)/4)

	var lat, lng int64
	for pos := 0; pos < len(encoded); {
		dLat, next, err := readValue(encoded, pos)
		if err != nil {
			return nil, err
		}
		dLng, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		pos = next

		lat += dLat
		lng += dLng
		path = append(path, Point{
			Lat: float64(lat) / precision,
			Lng: float64(lng) / precision,
		})
	}
	return path, nil
}

func scale(deg float64) int64 {
	return int64(math.Round(deg * precision))
}

// writeValue appends the zig-zag, chunked form of v.
func writeValue(b *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= continuation {
		b.WriteByte(byte((continuation | (u & chunkMask)) + asciiOffset))
		u >>= chunkBits
	}
	b.WriteByte(byte(u + asciiOffset))
}

// readValue decodes one signed value starting at pos and returns it together
// with the position of the next unread byte.
func readValue(encoded string, pos int) (int64, int, error) {
	var result int64
	var shift uint
	for chunks := 0; ; chunks++ {
		if pos >= len(encoded) {
			return 0, pos, fmt.Errorf("%w: truncated value at offset %d", ErrMalformedPolyline, pos)
		}
		if chunks == maxChunks {
			return 0, pos, fmt.Errorf("%w: value at offset %d exceeds %d chunks", ErrMalformedPolyline, pos, maxChunks)
		}
		c := encoded[pos]
		if c < asciiOffset || c > asciiOffset+chunkMask+continuation {
			return 0, pos, fmt.Errorf("%w: invalid character %q at offset %d", ErrMalformedPolyline, c, pos)
		}
		pos++

		chunk := int64(c - asciiOffset)
		result |= (chunk & chunkMask) << shift
		shift += chunkBits
		if chunk < continuation {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}
