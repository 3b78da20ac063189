package repository

import (
	"context"
	"sort"
	"sync"

	bookingDomain "github.com/SevaDrive/service-ambulance/internal/domain/booking"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
)

// MemoryBookingRepository keeps bookings in process memory. Stored values are
// snapshots, so callers never share a *Booking with the store.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*bookingDomain.Booking
}

// NewMemoryBookingRepository creates an empty MemoryBookingRepository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[string]*bookingDomain.Booking)}
}

// FindByID retrieves a booking by its id.
func (r *MemoryBookingRepository) FindByID(_ context.Context, id string) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id)
	}
	return snapshot(bk), nil
}

// ListAll retrieves bookings, newest first, with pagination.
func (r *MemoryBookingRepository) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.RLock()
	all := make([]*bookingDomain.Booking, 0, len(r.bookings))
	for _, bk := range r.bookings {
		all = append(all, snapshot(bk))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt().Equal(all[j].CreatedAt()) {
			return all[i].CreatedAt().After(all[j].CreatedAt())
		}
		return all[i].ID() < all[j].ID()
	})

	total := int64(len(all))
	start := (page - 1) * limit
	if start < 0 || start >= len(all) {
		return []*bookingDomain.Booking{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *MemoryBookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

// Count returns the number of stored bookings.
func (r *MemoryBookingRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.bookings)), nil
}

// Save persists a new booking.
func (r *MemoryBookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[bk.ID()]; exists {
		return domain.NewConflictError("booking " + bk.ID() + " already exists")
	}
	r.bookings[bk.ID()] = snapshot(bk)
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *MemoryBookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = snapshot(bk)
	return nil
}

func snapshot(bk *bookingDomain.Booking) *bookingDomain.Booking {
	var route *bookingDomain.OptimalRoute
	if or := bk.OptimalRoute(); or != nil {
		c := *or
		if or.EncodedPath != nil {
			p := *or.EncodedPath
			c.EncodedPath = &p
		}
		route = &c
	}

	var ambulance bookingDomain.AmbulanceDetails
	if a := bk.Ambulance(); a != nil {
		ambulance = make(bookingDomain.AmbulanceDetails, len(a))
		for k, v := range a {
			ambulance[k] = v
		}
	}

	return bookingDomain.ReconstructBooking(
		bk.ID(),
		bk.Status(),
		bk.EmergencyType(),
		bk.Location(),
		bk.AmbulanceNumber(),
		ambulance,
		route,
		bk.Version(),
		bk.CreatedAt(),
		bk.UpdatedAt(),
	)
}
