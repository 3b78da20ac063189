package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingDomain "github.com/SevaDrive/service-ambulance/internal/domain/booking"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
)

func newBooking(t *testing.T, seq int64, at time.Time) *bookingDomain.Booking {
	t.Helper()
	path := "_p~iF~ps|U"
	bk, err := bookingDomain.NewBooking(
		bookingDomain.FormatBookingID(seq, at),
		"Accident",
		bookingDomain.Location{Latitude: 12.97, Longitude: 77.59, Address: "MG Road"},
		"KA01AB1234",
		bookingDomain.AmbulanceDetails{"coordinates": "(12.93, 77.62)"},
		&bookingDomain.OptimalRoute{EncodedPath: &path, Distance: "5 km", DurationInTraffic: "12 mins"},
		at,
	)
	require.NoError(t, err)
	return bk
}

func TestMemoryBookingRepository_SaveFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()
	bk := newBooking(t, 1, time.Now())

	require.NoError(t, repo.Save(ctx, bk))
	assert.Equal(t, domain.KindConflict, domain.KindOf(repo.Save(ctx, bk)))

	found, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bk.ID(), found.ID())
	assert.Equal(t, *bk.OptimalRoute().EncodedPath, *found.OptimalRoute().EncodedPath)

	_, err = repo.FindByID(ctx, "EMG-404")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestMemoryBookingRepository_SnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()
	bk := newBooking(t, 1, time.Now())
	require.NoError(t, repo.Save(ctx, bk))

	require.NoError(t, bk.TransitionTo(bookingDomain.StatusAssigned))
	bk.Ambulance()["coordinates"] = "(0, 0)"

	found, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusConfirmed, found.Status())
	assert.Equal(t, "(12.93, 77.62)", found.Ambulance().Coordinates())
}

func TestMemoryBookingRepository_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()
	bk := newBooking(t, 1, time.Now())
	require.NoError(t, repo.Save(ctx, bk))

	first, _ := repo.FindByID(ctx, bk.ID())
	second, _ := repo.FindByID(ctx, bk.ID())

	require.NoError(t, first.TransitionTo(bookingDomain.StatusAssigned))
	first.IncrementVersion()
	require.NoError(t, repo.Update(ctx, first))

	require.NoError(t, second.TransitionTo(bookingDomain.StatusCancelled))
	second.IncrementVersion()
	assert.Equal(t, domain.KindConflict, domain.KindOf(repo.Update(ctx, second)))

	stored, _ := repo.FindByID(ctx, bk.ID())
	assert.Equal(t, bookingDomain.StatusAssigned, stored.Status())
	assert.Equal(t, int64(2), stored.Version())
}

func TestMemoryBookingRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Save(ctx, newBooking(t, int64(i), base.Add(time.Duration(i)*time.Minute))))
	}

	page, total, err := repo.ListAll(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "EMG-5-20240315090500", page[0].ID())
	assert.Equal(t, "EMG-4-20240315090400", page[1].ID())

	page, _, err = repo.ListAll(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "EMG-1-20240315090100", page[0].ID())

	page, _, err = repo.ListAll(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"CONFIRMED": 5}, counts)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestMemoryBookingRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()
	at := time.Now()

	bookings := make([]*bookingDomain.Booking, 50)
	for i := range bookings {
		bookings[i] = newBooking(t, int64(i), at)
	}

	var wg sync.WaitGroup
	for i, bk := range bookings {
		wg.Add(1)
		go func(i int, bk *bookingDomain.Booking) {
			defer wg.Done()
			assert.NoError(t, repo.Save(ctx, bk))
			_, err := repo.FindByID(ctx, bk.ID())
			assert.NoError(t, err, fmt.Sprint(i))
		}(i, bk)
	}
	wg.Wait()

	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(50), n)
}
