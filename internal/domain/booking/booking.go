package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

const bookingIDTimeLayout = "20060102150405"

// FormatBookingID builds "EMG-<seq>-<YYYYMMDDHHMMSS>".
func FormatBookingID(seq int64, at time.Time) string {
	return fmt.Sprintf("EMG-%d-%s", seq, at.Format(bookingIDTimeLayout))
}

// Booking is the aggregate root for an emergency ambulance booking.
type Booking struct {
	id              string
	status          BookingStatus
	emergencyType   string
	location        Location
	ambulanceNumber string
	ambulance       AmbulanceDetails
	optimalRoute    *OptimalRoute

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a confirmed booking. route may be nil when no route was
// found.
func NewBooking(
	id string,
	emergencyType string,
	location Location,
	ambulanceNumber string,
	ambulance AmbulanceDetails,
	route *OptimalRoute,
	now time.Time,
) (*Booking, error) {
	if id == "" {
		return nil, domain.NewValidationError("booking id is required")
	}
	if strings.TrimSpace(emergencyType) == "" {
		return nil, domain.NewValidationError("emergency type is required")
	}
	if strings.TrimSpace(location.Address) == "" {
		return nil, domain.NewValidationError("address is required")
	}
	if !(polyline.Point{Lat: location.Latitude, Lng: location.Longitude}).Valid() {
		return nil, domain.NewValidationError("location coordinates are out of range")
	}
	if strings.TrimSpace(ambulanceNumber) == "" {
		return nil, domain.NewValidationError("ambulance number is required")
	}

	return &Booking{
		id:              id,
		status:          StatusConfirmed,
		emergencyType:   emergencyType,
		location:        location,
		ambulanceNumber: ambulanceNumber,
		ambulance:       ambulance,
		optimalRoute:    route,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id string,
	status BookingStatus,
	emergencyType string,
	location Location,
	ambulanceNumber string,
	ambulance AmbulanceDetails,
	route *OptimalRoute,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		status:          status,
		emergencyType:   emergencyType,
		location:        location,
		ambulanceNumber: ambulanceNumber,
		ambulance:       ambulance,
		optimalRoute:    route,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (b *Booking) ID() string                  { return b.id }
func (b *Booking) Status() BookingStatus       { return b.status }
func (b *Booking) EmergencyType() string       { return b.emergencyType }
func (b *Booking) Location() Location          { return b.location }
func (b *Booking) AmbulanceNumber() string     { return b.ambulanceNumber }
func (b *Booking) Ambulance() AmbulanceDetails { return b.ambulance }
func (b *Booking) OptimalRoute() *OptimalRoute { return b.optimalRoute }
func (b *Booking) Version() int64              { return b.version }
func (b *Booking) CreatedAt() time.Time        { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time        { return b.updatedAt }

// RoutePath decodes the stored route. It returns nil when the booking has no
// encoded path.
func (b *Booking) RoutePath() (polyline.Path, error) {
	if b.optimalRoute == nil || b.optimalRoute.EncodedPath == nil {
		return nil, nil
	}
	return polyline.Decode(*b.optimalRoute.EncodedPath)
}

// TransitionTo moves the booking to target if the state machine allows it.
func (b *Booking) TransitionTo(target BookingStatus) error {
	if !target.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", target))
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = time.Now()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
