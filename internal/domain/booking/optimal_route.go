package booking

// OptimalRoute is the route chosen for the crew, as stored with the booking.
type OptimalRoute struct {
	// EncodedPath is the step-level route path as an encoded polyline, or nil
	// when the path could not be produced.
	EncodedPath       *string `json:"encoded_path"`
	Distance          string  `json:"distance"`
	DurationInTraffic string  `json:"duration_in_traffic"`
}

// Location is where the emergency was reported.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// AmbulanceDetails is the ambulance object supplied by the client at booking
// time. It is stored and returned as given.
type AmbulanceDetails map[string]interface{}

// Coordinates returns the "coordinates" entry, or "" when absent.
func (d AmbulanceDetails) Coordinates() string {
	s, _ := d["coordinates"].(string)
	return s
}
