package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

// Column names are matched case-insensitively; the first alias present wins.
var (
	colNumber     = []string{"ambulance_number", "vehicle_number"}
	colPhone      = []string{"phone_number", "contact_number"}
	colAmbLat     = []string{"amb_latitude", "latitude"}
	colAmbLng     = []string{"amb_longitude", "longitude"}
	colUserLat    = []string{"user_latitude"}
	colUserLng    = []string{"user_longitude"}
	colTravelTime = []string{"travel time (mins)", "travel_time"}
	colDistance   = []string{"distance (km)", "distance"}
	colAllocate   = []string{"allocate"}
)

// ErrEmptyDataset is returned when the file has no header row.
var ErrEmptyDataset = errors.New("dataset is empty")

// LoadDataset reads the ambulance allocation CSV at path.
func LoadDataset(path string) ([]ambulance.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	records, err := ReadDataset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadDataset parses dataset CSV from r. Rows without a usable ambulance
// position are skipped; rows missing any model feature are kept with
// Complete set to false.
func ReadDataset(r io.Reader) ([]ambulance.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := indexHeader(header)
	for _, required := range [][]string{colNumber, colAmbLat, colAmbLng} {
		if cols.find(required) < 0 {
			return nil, fmt.Errorf("missing column %q", required[0])
		}
	}

	var records []ambulance.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, ok := parseRow(cols, row)
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type columns map[string]int

func indexHeader(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func (c columns) find(aliases []string) int {
	for _, a := range aliases {
		if i, ok := c[a]; ok {
			return i
		}
	}
	return -1
}

func (c columns) text(row []string, aliases []string) string {
	i := c.find(aliases)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) float(row []string, aliases []string) (float64, bool) {
	s := c.text(row, aliases)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseRow(c columns, row []string) (ambulance.Record, bool) {
	ambLat, okLat := c.float(row, colAmbLat)
	ambLng, okLng := c.float(row, colAmbLng)
	location := polyline.Point{Lat: ambLat, Lng: ambLng}
	if !okLat || !okLng || !location.Valid() {
		return ambulance.Record{}, false
	}

	rec := ambulance.Record{
		Ambulance: ambulance.Ambulance{
			Number:   c.text(row, colNumber),
			Phone:    c.text(row, colPhone),
			Location: location,
		},
		Allocate: strings.ToLower(c.text(row, colAllocate)),
	}

	userLat, ok1 := c.float(row, colUserLat)
	userLng, ok2 := c.float(row, colUserLng)
	travel, ok3 := c.float(row, colTravelTime)
	dist, ok4 := c.float(row, colDistance)
	rec.User = polyline.Point{Lat: userLat, Lng: userLng}
	rec.TravelTimeMin = travel
	rec.DistanceKm = dist
	rec.Complete = ok1 && ok2 && ok3 && ok4 && (rec.Allocate == "yes" || rec.Allocate == "no")

	return rec, true
}
