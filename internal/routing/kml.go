package routing

import (
	"bytes"
	"errors"
	"fmt"

	kml "github.com/twpayne/go-kml"

	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

// KMLContentType is the media type of documents produced by KML.
const KMLContentType = "application/vnd.google-earth.kml+xml"

// ErrEmptyPath is returned by KML for a path without points.
var ErrEmptyPath = errors.New("empty path")

// KML renders path as a KML document with a LineString placemark plus start
// and end points.
func KML(name, description string, path polyline.Path) ([]byte, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	coords := make([]kml.Coordinate, len(path))
	for i, p := range path {
		coords[i] = kml.Coordinate{Lon: p.Lng, Lat: p.Lat}
	}
	first, last := coords[0], coords[len(coords)-1]

	doc := kml.KML(
		kml.Document(
			kml.Name(name),
			kml.Placemark(
				kml.Name("Route"),
				kml.Description(description),
				kml.LineString(
					kml.Tessellate(true),
					kml.Coordinates(coords...),
				),
			),
			kml.Placemark(
				kml.Name("Start"),
				kml.Point(kml.Coordinates(first)),
			),
			kml.Placemark(
				kml.Name("End"),
				kml.Point(kml.Coordinates(last)),
			),
		),
	)

	var buf bytes.Buffer
	if err := doc.WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to write kml: %w", err)
	}
	return buf.Bytes(), nil
}
