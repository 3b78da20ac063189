package ambulance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

func TestCoordinates_RoundTrip(t *testing.T) {
	a := Ambulance{Location: polyline.Point{Lat: 12.9716, Lng: -77.5}}
	assert.Equal(t, "(12.9716, -77.5)", a.Coordinates())

	p, err := ParseCoordinates(a.Coordinates())
	require.NoError(t, err)
	assert.Equal(t, a.Location, p)
}

func TestParseCoordinates(t *testing.T) {
	p, err := ParseCoordinates(" 12.5,77.25 ")
	require.NoError(t, err)
	assert.Equal(t, polyline.Point{Lat: 12.5, Lng: 77.25}, p)

	for _, bad := range []string{"", "(1)", "(a, 2)", "(1, b)", "(95, 0)", "1,2,3"} {
		_, err := ParseCoordinates(bad)
		assert.Error(t, err, bad)
	}
}
