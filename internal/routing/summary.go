package routing

import "github.com/SevaDrive/service-ambulance/internal/clients/google"

// Summary describes one route for API responses.
type Summary struct {
	Name              string
	Distance          string
	DurationInTraffic string
	TrafficPercentage string
	EncodedPath       *string
}

// Summarize describes route using its first leg. The encoded path is nil when
// the route's steps cannot be decoded or re-encoded; the error is returned
// alongside so callers can log it.
func Summarize(route google.Route, fallbackName string) (Summary, error) {
	s := Summary{
		Name:              Name(route, fallbackName),
		Distance:          "Unknown",
		DurationInTraffic: "Unknown",
		TrafficPercentage: FormatPercentage(0),
	}
	if len(route.Legs) > 0 {
		leg := route.Legs[0]
		s.Distance = leg.Distance.Text
		s.DurationInTraffic = leg.TrafficDuration().Text
		s.TrafficPercentage = FormatPercentage(TrafficPercentage(leg))
	}

	encoded, err := EncodedPath(&route)
	if err != nil {
		return s, err
	}
	s.EncodedPath = &encoded
	return s, nil
}
