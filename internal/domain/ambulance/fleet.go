package ambulance

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50
	tolerance   = 1e-9
)

// entry adapts a dataset row to rtreego.Spatial.
type entry struct {
	index int
	rect  *rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect { return e.rect }

// Fleet is the immutable, indexed set of dataset rows. Distances are
// Euclidean on raw degrees and ties go to the earliest row.
type Fleet struct {
	records   []Record
	all       *rtreego.Rtree
	available *rtreego.Rtree
}

// NewFleet indexes records. The slice must not be modified afterwards.
func NewFleet(records []Record) *Fleet {
	f := &Fleet{
		records:   records,
		all:       rtreego.NewTree(dimensions, minChildren, maxChildren),
		available: rtreego.NewTree(dimensions, minChildren, maxChildren),
	}
	for i, r := range records {
		e := &entry{index: i, rect: toPoint(r.Ambulance.Location).ToRect(tolerance)}
		f.all.Insert(e)
		if r.Allocatable() {
			f.available.Insert(e)
		}
	}
	return f
}

// Len returns the number of rows.
func (f *Fleet) Len() int { return len(f.records) }

// AvailableLen returns the number of allocatable rows.
func (f *Fleet) AvailableLen() int { return f.available.Size() }

// Records returns the rows in dataset order.
func (f *Fleet) Records() []Record { return f.records }

// Nearest returns the row whose ambulance is closest to p.
func (f *Fleet) Nearest(p polyline.Point) (Record, bool) {
	return f.nearest(f.all, p)
}

// NearestAvailable is Nearest restricted to allocatable rows.
func (f *Fleet) NearestAvailable(p polyline.Point) (Record, bool) {
	return f.nearest(f.available, p)
}

// nearest asks the tree for one close candidate, then rescans every entry
// inside the candidate's radius so the result is exact and tie-stable.
func (f *Fleet) nearest(tree *rtreego.Rtree, p polyline.Point) (Record, bool) {
	if tree.Size() == 0 {
		return Record{}, false
	}
	candidate, ok := tree.NearestNeighbor(toPoint(p)).(*entry)
	if !ok {
		return Record{}, false
	}

	radius := distance(p, f.records[candidate.index].Ambulance.Location) + 4*tolerance
	box, err := rtreego.NewRect(rtreego.Point{p.Lat - radius, p.Lng - radius}, []float64{2 * radius, 2 * radius})
	if err != nil {
		return f.records[candidate.index], true
	}

	best := candidate.index
	bestDist := distance(p, f.records[best].Ambulance.Location)
	for _, s := range tree.SearchIntersect(box) {
		e := s.(*entry)
		d := distance(p, f.records[e.index].Ambulance.Location)
		if d < bestDist || (d == bestDist && e.index < best) {
			best, bestDist = e.index, d
		}
	}
	return f.records[best], true
}

func toPoint(p polyline.Point) rtreego.Point {
	return rtreego.Point{p.Lat, p.Lng}
}

func distance(a, b polyline.Point) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

// HaversineKm returns the great-circle distance between a and b in km.
func HaversineKm(a, b polyline.Point) float64 {
	const earthRadiusKm = 6371.0

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
