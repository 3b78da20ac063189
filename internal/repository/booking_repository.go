package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/SevaDrive/service-ambulance/internal/domain/booking"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the emergency_bookings table.
type BookingModel struct {
	ID              string          `gorm:"primaryKey;size:40"`
	Status          string          `gorm:"not null;size:20;index"`
	EmergencyType   string          `gorm:"not null;size:100"`
	Location        json.RawMessage `gorm:"type:jsonb;not null"`
	AmbulanceNumber string          `gorm:"not null;size:50;index"`
	Ambulance       json.RawMessage `gorm:"type:jsonb"`
	OptimalRoute    json.RawMessage `gorm:"type:jsonb"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null;index"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "emergency_bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its id.
func (r *GormBookingRepository) FindByID(ctx context.Context, id string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// ListAll retrieves bookings, newest first, with pagination.
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Count returns the number of stored bookings.
func (r *GormBookingRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return total, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("booking %s already exists", bk.ID()))
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion was called before Update, so the stored row is one behind.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"optimal_route": model.OptimalRoute,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	locationJSON, err := json.Marshal(bk.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}

	ambulanceJSON, err := json.Marshal(bk.Ambulance())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ambulance details: %w", err)
	}

	var routeJSON json.RawMessage
	if bk.OptimalRoute() != nil {
		routeJSON, err = json.Marshal(bk.OptimalRoute())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal optimal route: %w", err)
		}
	}

	return &BookingModel{
		ID:              bk.ID(),
		Status:          string(bk.Status()),
		EmergencyType:   bk.EmergencyType(),
		Location:        locationJSON,
		AmbulanceNumber: bk.AmbulanceNumber(),
		Ambulance:       ambulanceJSON,
		OptimalRoute:    routeJSON,
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var location bookingDomain.Location
	if err := json.Unmarshal(m.Location, &location); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}

	var ambulance bookingDomain.AmbulanceDetails
	if len(m.Ambulance) > 0 {
		if err := json.Unmarshal(m.Ambulance, &ambulance); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ambulance details: %w", err)
		}
	}

	var route *bookingDomain.OptimalRoute
	if len(m.OptimalRoute) > 0 && string(m.OptimalRoute) != "null" {
		var or bookingDomain.OptimalRoute
		if err := json.Unmarshal(m.OptimalRoute, &or); err != nil {
			return nil, fmt.Errorf("failed to unmarshal optimal route: %w", err)
		}
		route = &or
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		status,
		m.EmergencyType,
		location,
		m.AmbulanceNumber,
		ambulance,
		route,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
