// Package routing turns Directions API routes into paths and route summaries.
package routing

import (
	"fmt"

	"github.com/SevaDrive/service-ambulance/internal/clients/google"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

// ExtractPath decodes every step polyline of route and concatenates the
// results in leg then step order. A nil route, or one without legs, yields an
// empty path. Step boundaries are not deduplicated.
func ExtractPath(route *google.Route) (polyline.Path, error) {
	path := polyline.Path{}
	if route == nil {
		return path, nil
	}

	for li, leg := range route.Legs {
		for si, step := range leg.Steps {
			points, err := polyline.Decode(step.Polyline.Points)
			if err != nil {
				return nil, fmt.Errorf("leg %d step %d: %w", li, si, err)
			}
			path = append(path, points...)
		}
	}
	return path, nil
}

// EncodedPath re-encodes the full step-level path of route.
func EncodedPath(route *google.Route) (string, error) {
	path, err := ExtractPath(route)
	if err != nil {
		return "", err
	}
	return polyline.Encode(path)
}

// SelectOptimal returns the index of the route whose first leg has the
// shortest traffic-aware duration, or -1 when no route has a leg. Ties keep
// the earlier route.
func SelectOptimal(routes []google.Route) int {
	best := -1
	var bestDuration int64
	for i, r := range routes {
		if len(r.Legs) == 0 {
			continue
		}
		d := r.Legs[0].TrafficDuration().Value
		if best == -1 || d < bestDuration {
			best, bestDuration = i, d
		}
	}
	return best
}

// TrafficPercentage is the extra time traffic adds to the free-flow duration
// of leg, in percent. Zero when the free-flow duration is unknown.
func TrafficPercentage(leg google.Leg) float64 {
	normal := leg.Duration.Value
	if normal <= 0 {
		return 0
	}
	traffic := leg.TrafficDuration().Value
	return float64(traffic-normal) / float64(normal) * 100
}

// FormatPercentage renders p as "12.34%".
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

// Name returns the route summary, or fallback when the API gave none.
func Name(r google.Route, fallback string) string {
	if r.Summary == "" {
		return fallback
	}
	return r.Summary
}
