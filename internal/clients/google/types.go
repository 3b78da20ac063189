package google

// DirectionsResponse is the subset of the Directions API JSON body the service
// reads.
type DirectionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Routes       []Route `json:"routes"`
}

// Route is one candidate route between origin and destination.
type Route struct {
	Summary          string          `json:"summary"`
	Legs             []Leg           `json:"legs"`
	OverviewPolyline EncodedPolyline `json:"overview_polyline"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// Leg is the part of a route between two waypoints.
type Leg struct {
	Distance          TextValue  `json:"distance"`
	Duration          TextValue  `json:"duration"`
	DurationInTraffic *TextValue `json:"duration_in_traffic,omitempty"`
	StartAddress      string     `json:"start_address"`
	EndAddress        string     `json:"end_address"`
	StartLocation     LatLng     `json:"start_location"`
	EndLocation       LatLng     `json:"end_location"`
	Steps             []Step     `json:"steps"`
}

// TrafficDuration returns duration_in_traffic, or the free-flow duration when
// the API did not return one.
func (l Leg) TrafficDuration() TextValue {
	if l.DurationInTraffic != nil {
		return *l.DurationInTraffic
	}
	return l.Duration
}

// Step is a single maneuver within a leg.
type Step struct {
	Distance         TextValue       `json:"distance"`
	Duration         TextValue       `json:"duration"`
	Polyline         EncodedPolyline `json:"polyline"`
	HTMLInstructions string          `json:"html_instructions,omitempty"`
	TravelMode       string          `json:"travel_mode,omitempty"`
	StartLocation    LatLng          `json:"start_location"`
	EndLocation      LatLng          `json:"end_location"`
}

// EncodedPolyline wraps an encoded polyline string.
type EncodedPolyline struct {
	Points string `json:"points"`
}

// TextValue pairs a human readable text with its numeric value (meters or
// seconds).
type TextValue struct {
	Text  string `json:"text"`
	Value int64  `json:"value"`
}

// LatLng is a coordinate as the Maps APIs encode it.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
}
