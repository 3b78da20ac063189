// Package ambulance models the ambulance fleet loaded from the allocation
// dataset.
package ambulance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

// Ambulance is a vehicle and its parked position.
type Ambulance struct {
	Number   string
	Phone    string
	Location polyline.Point
}

// Coordinates renders the location as "(lat, lng)".
func (a Ambulance) Coordinates() string {
	return FormatCoordinates(a.Location)
}

// Record is one dataset row: an ambulance, a historical caller position and
// whether that pairing was allocated.
type Record struct {
	Ambulance Ambulance
	User      polyline.Point

	TravelTimeMin float64
	DistanceKm    float64

	// Allocate is "yes", "no" or "" when the row does not say.
	Allocate string

	// Complete is false when any model feature was missing from the row.
	Complete bool
}

// Allocatable reports whether the row marks the ambulance as allocatable.
func (r Record) Allocatable() bool { return r.Allocate == "yes" }

// FormatCoordinates renders p as "(lat, lng)".
func FormatCoordinates(p polyline.Point) string {
	return "(" + strconv.FormatFloat(p.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(p.Lng, 'f', -1, 64) + ")"
}

// ParseCoordinates parses "(lat, lng)" or "lat,lng".
func ParseCoordinates(s string) (polyline.Point, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != 2 {
		return polyline.Point{}, fmt.Errorf("invalid coordinates %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return polyline.Point{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return polyline.Point{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}

	p := polyline.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return polyline.Point{}, fmt.Errorf("coordinates out of range: %q", s)
	}
	return p, nil
}
