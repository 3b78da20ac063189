package routing

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

func TestKML(t *testing.T) {
	doc, err := KML("EMG-1-20240315093000", "Cardiac", polyline.Path{a, b, c})
	require.NoError(t, err)

	s := string(doc)
	assert.Contains(t, s, "<name>EMG-1-20240315093000</name>")
	assert.Contains(t, s, "<LineString>")
	assert.Equal(t, 3, strings.Count(s, "<Placemark>"))

	// Well-formed XML.
	dec := xml.NewDecoder(strings.NewReader(s))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
	}
}

func TestKML_EmptyPath(t *testing.T) {
	_, err := KML("x", "", nil)
	assert.ErrorIs(t, err, ErrEmptyPath)
}
