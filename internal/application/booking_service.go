package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/clients/google"
	"github.com/SevaDrive/service-ambulance/internal/contracts"
	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	bookingDomain "github.com/SevaDrive/service-ambulance/internal/domain/booking"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
	"github.com/SevaDrive/service-ambulance/internal/routing"
)

const bookingCreatedMessage = "Emergency booking created successfully"

// CreateBookingRequest holds the data needed to create an emergency booking.
// Presence is checked by the service so that every missing field is reported.
type CreateBookingRequest struct {
	EmergencyType    *string                        `json:"emergencyType"`
	Latitude         *float64                       `json:"latitude"`
	Longitude        *float64                       `json:"longitude"`
	Address          *string                        `json:"address"`
	AmbulanceNumber  *string                        `json:"ambulanceNumber"`
	AmbulanceDetails bookingDomain.AmbulanceDetails `json:"ambulanceDetails"`
}

// UpdateStatusRequest is the body of PUT /api/emergency-booking/status/:id.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateBookingResultDTO is the response of a successful create.
type CreateBookingResultDTO struct {
	BookingID    string                         `json:"booking_id"`
	Status       string                         `json:"status"`
	Message      string                         `json:"message"`
	Ambulance    bookingDomain.AmbulanceDetails `json:"ambulance"`
	OptimalRoute *bookingDomain.OptimalRoute    `json:"optimal_route"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            string                         `json:"id"`
	Status        string                         `json:"status"`
	CreatedAt     time.Time                      `json:"created_at"`
	UpdatedAt     time.Time                      `json:"updated_at"`
	EmergencyType string                         `json:"emergency_type"`
	Location      bookingDomain.Location         `json:"location"`
	Ambulance     bookingDomain.AmbulanceDetails `json:"ambulance"`
	OptimalRoute  *bookingDomain.OptimalRoute    `json:"optimal_route"`
}

// BookingStatsDTO holds booking counts.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating emergency bookings.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	maps     google.Provider
	producer EventPublisher
	logger   *zap.Logger
	now      func() time.Time

	seqMu  sync.Mutex
	seq    int64
	seeded bool
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	maps google.Provider,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		maps:     maps,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking stores a confirmed booking for the reported emergency and the
// ambulance the caller chose. The route is planned from the caller to the
// ambulance; a missing route or unusable path never fails the booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResultDTO, error) {
	if missing := missingFields(req); len(missing) > 0 {
		return nil, domain.NewValidationError("Missing required fields: " + strings.Join(missing, ", "))
	}

	user := polyline.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	if !user.Valid() {
		return nil, domain.NewValidationError("Invalid coordinates")
	}
	ambulanceAt, err := ambulance.ParseCoordinates(req.AmbulanceDetails.Coordinates())
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid ambulance coordinates: %v", err))
	}

	route := s.planRoute(ctx, user, ambulanceAt)

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		id,
		*req.EmergencyType,
		bookingDomain.Location{
			Latitude:  user.Lat,
			Longitude: user.Lng,
			Address:   *req.Address,
		},
		*req.AmbulanceNumber,
		req.AmbulanceDetails,
		route,
		s.now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("emergency booking created",
		zap.String("booking_id", bk.ID()),
		zap.String("ambulance", bk.AmbulanceNumber()),
		zap.Bool("has_route", route != nil),
	)

	evt := contracts.BookingCreatedEvent{
		BookingID:       bk.ID(),
		EmergencyType:   bk.EmergencyType(),
		AmbulanceNumber: bk.AmbulanceNumber(),
		Latitude:        user.Lat,
		Longitude:       user.Lng,
		Address:         bk.Location().Address,
		OccurredAt:      time.Now().UTC(),
	}
	if route != nil {
		evt.EncodedPath = route.EncodedPath
	}
	publishEvent(ctx, s.producer, s.logger, contracts.TopicBookingEvents, bk.ID(), contracts.BookingCreated, evt)

	return &CreateBookingResultDTO{
		BookingID:    bk.ID(),
		Status:       bk.Status().String(),
		Message:      bookingCreatedMessage,
		Ambulance:    bk.Ambulance(),
		OptimalRoute: bk.OptimalRoute(),
	}, nil
}

// GetBooking retrieves a single booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateStatus moves a booking through the status state machine. source names
// who asked for the change ("api" or the crew event type).
func (s *BookingService) UpdateStatus(ctx context.Context, id, status, source string) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.TransitionTo(target); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := contracts.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		From:       from.String(),
		To:         target.String(),
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
	publishEvent(ctx, s.producer, s.logger, contracts.TopicBookingEvents, bk.ID(), contracts.BookingStatusChanged, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns a page of bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns booking counts by status.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	byStatus := make(map[string]int64, len(bookingDomain.AllStatuses))
	for _, st := range bookingDomain.AllStatuses {
		byStatus[st.String()] = 0
	}
	var total int64
	for status, n := range counts {
		byStatus[status] = n
		total += n
	}
	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// RouteKML renders the booking's stored route as a KML document.
func (s *BookingService) RouteKML(ctx context.Context, id string) ([]byte, error) {
	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := bk.RoutePath()
	if err != nil {
		return nil, fmt.Errorf("failed to decode route of booking %s: %w", id, err)
	}
	if len(path) == 0 {
		return nil, domain.NewNotFoundError("Route", id)
	}

	description := fmt.Sprintf("%s emergency, ambulance %s", bk.EmergencyType(), bk.AmbulanceNumber())
	if r := bk.OptimalRoute(); r != nil {
		description = fmt.Sprintf("%s (%s, %s)", description, r.Distance, r.DurationInTraffic)
	}
	return routing.KML(bk.ID(), description, path)
}

// planRoute returns the first directions route summarized for storage, or nil.
func (s *BookingService) planRoute(ctx context.Context, user, ambulanceAt polyline.Point) *bookingDomain.OptimalRoute {
	resp, err := s.maps.Directions(ctx, user, ambulanceAt)
	if err != nil {
		s.logger.Warn("directions lookup failed, booking without route", zap.Error(err))
		return nil
	}
	if len(resp.Routes) == 0 {
		return nil
	}

	summary, err := routing.Summarize(resp.Routes[0], "Main Route")
	if err != nil {
		s.logger.Warn("route path unavailable", zap.Error(err))
	}
	return &bookingDomain.OptimalRoute{
		EncodedPath:       summary.EncodedPath,
		Distance:          summary.Distance,
		DurationInTraffic: summary.DurationInTraffic,
	}
}

// nextID seeds the sequence from the store size on first use so ids keep
// increasing across restarts with a persistent store.
func (s *BookingService) nextID(ctx context.Context) (string, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	if !s.seeded {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to count bookings: %w", err)
		}
		s.seq = n
		s.seeded = true
	}
	s.seq++
	return bookingDomain.FormatBookingID(s.seq, s.now()), nil
}

func missingFields(req CreateBookingRequest) []string {
	var missing []string
	if req.EmergencyType == nil {
		missing = append(missing, "emergencyType")
	}
	if req.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if req.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if req.Address == nil {
		missing = append(missing, "address")
	}
	if req.AmbulanceNumber == nil {
		missing = append(missing, "ambulanceNumber")
	}
	if req.AmbulanceDetails.Coordinates() == "" {
		missing = append(missing, "ambulanceDetails.coordinates")
	}
	return missing
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		Status:        bk.Status().String(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
		EmergencyType: bk.EmergencyType(),
		Location:      bk.Location(),
		Ambulance:     bk.Ambulance(),
		OptimalRoute:  bk.OptimalRoute(),
	}
}
