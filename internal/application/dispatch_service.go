package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/clients/google"
	"github.com/SevaDrive/service-ambulance/internal/domain/allocation"
	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
	"github.com/SevaDrive/service-ambulance/internal/routing"
)

const (
	addressNotFound     = "Address not found"
	addressNotAvailable = "Address not available"
)

// NearestRequest is the body of POST /predict.
type NearestRequest struct {
	UserLatitude  *float64 `json:"user_latitude" binding:"required"`
	UserLongitude *float64 `json:"user_longitude" binding:"required"`
}

// RouteSummaryDTO describes one route in a /predict response.
type RouteSummaryDTO struct {
	RouteName         string  `json:"route_name"`
	Distance          string  `json:"distance"`
	DurationInTraffic string  `json:"duration_in_traffic"`
	TrafficPercentage string  `json:"traffic_percentage"`
	EncodedPath       *string `json:"encoded_path"`
}

// NearestResponseDTO is the response of POST /predict.
type NearestResponseDTO struct {
	AmbulanceNumber      string            `json:"ambulance_number"`
	PhoneNumber          string            `json:"phone_number"`
	AmbulanceAddress     string            `json:"ambulance_address"`
	AmbulanceCoordinates string            `json:"ambulance_coordinates"`
	OptimalRoute         *RouteSummaryDTO  `json:"optimal_route"`
	AlternativeRoutes    []RouteSummaryDTO `json:"alternative_routes"`
}

// PredictRequest is the body of POST /api/predict-ambulance.
type PredictRequest struct {
	Latitude      *float64 `json:"latitude" binding:"required"`
	Longitude     *float64 `json:"longitude" binding:"required"`
	EmergencyType string   `json:"emergencyType"`
}

// AlternativeRouteDTO is a non-optimal route in a prediction.
type AlternativeRouteDTO struct {
	Name              string `json:"name"`
	TrafficPercentage string `json:"traffic_percentage"`
	DurationInTraffic string `json:"duration_in_traffic"`
}

// RouteDetailsDTO is the optimal route of a prediction.
type RouteDetailsDTO struct {
	Name              string                `json:"name"`
	Distance          string                `json:"distance"`
	DurationInTraffic string                `json:"duration_in_traffic"`
	TrafficPercentage string                `json:"traffic_percentage"`
	RouteDescription  string                `json:"route_description"`
	EncodedPath       *string               `json:"encoded_path"`
	AlternativeRoutes []AlternativeRouteDTO `json:"alternative_routes"`
}

// PredictResponseDTO is the response of POST /api/predict-ambulance.
type PredictResponseDTO struct {
	AmbulanceNumber      string          `json:"ambulance_number"`
	PhoneNumber          string          `json:"phone_number"`
	AmbulanceAddress     string          `json:"ambulance_address"`
	AmbulanceCoordinates string          `json:"ambulance_coordinates"`
	AllocationConfidence float64         `json:"allocation_confidence"`
	OptimalRoute         RouteDetailsDTO `json:"optimal_route"`
}

// DispatchService picks ambulances for callers and plans their routes.
type DispatchService struct {
	fleet  *ambulance.Fleet
	models *ModelService
	maps   google.Provider
	logger *zap.Logger
}

// NewDispatchService creates a DispatchService. fleet may be nil when the
// dataset could not be loaded; predictions then report unavailability.
func NewDispatchService(fleet *ambulance.Fleet, models *ModelService, maps google.Provider, logger *zap.Logger) *DispatchService {
	return &DispatchService{
		fleet:  fleet,
		models: models,
		maps:   maps,
		logger: logger,
	}
}

// FindNearest returns the ambulance closest to the caller over every dataset
// row, with its routes. A directions failure yields a null optimal route.
func (s *DispatchService) FindNearest(ctx context.Context, req NearestRequest) (*NearestResponseDTO, error) {
	user, err := requestPoint(req.UserLatitude, req.UserLongitude)
	if err != nil {
		return nil, err
	}
	if s.fleet == nil || s.fleet.Len() == 0 {
		return nil, domain.NewUnavailableError("Ambulance data not available")
	}

	rec, _ := s.fleet.Nearest(user)
	amb := rec.Ambulance

	result := &NearestResponseDTO{
		AmbulanceNumber:      amb.Number,
		PhoneNumber:          amb.Phone,
		AmbulanceAddress:     s.address(ctx, amb.Location),
		AmbulanceCoordinates: amb.Coordinates(),
		AlternativeRoutes:    []RouteSummaryDTO{},
	}

	resp, err := s.maps.Directions(ctx, user, amb.Location)
	if err != nil {
		s.logger.Warn("directions lookup failed", zap.String("ambulance", amb.Number), zap.Error(err))
		return result, nil
	}

	best := routing.SelectOptimal(resp.Routes)
	for i, r := range resp.Routes {
		summary := s.summarize(r, "Direct Route")
		if i == best {
			result.OptimalRoute = &summary
			continue
		}
		result.AlternativeRoutes = append(result.AlternativeRoutes, summary)
	}
	return result, nil
}

// Predict picks the nearest allocatable ambulance, scores the pairing with
// the allocation model and plans the route.
func (s *DispatchService) Predict(ctx context.Context, req PredictRequest) (*PredictResponseDTO, error) {
	user, err := requestPoint(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	model := s.models.Current()
	if model == nil || s.fleet == nil || s.fleet.Len() == 0 {
		return nil, domain.NewUnavailableError("ML model or ambulance data not available")
	}

	rec, ok := s.fleet.NearestAvailable(user)
	if !ok {
		return nil, domain.NewUnavailableError("No available ambulances found")
	}
	amb := rec.Ambulance

	resp, err := s.maps.Directions(ctx, user, amb.Location)
	if err != nil {
		return nil, domain.NewUpstreamError("Unable to fetch route data", err)
	}
	best := routing.SelectOptimal(resp.Routes)
	if best < 0 {
		return nil, domain.NewUpstreamError("Unable to fetch route data", nil)
	}

	optimal := resp.Routes[best]
	summary := s.summarize(optimal, "Main Route")
	details := RouteDetailsDTO{
		Name:              summary.RouteName,
		Distance:          summary.Distance,
		DurationInTraffic: summary.DurationInTraffic,
		TrafficPercentage: summary.TrafficPercentage,
		RouteDescription:  fmt.Sprintf("Take %s for optimal route", summary.RouteName),
		EncodedPath:       summary.EncodedPath,
		AlternativeRoutes: []AlternativeRouteDTO{},
	}
	for i, r := range resp.Routes {
		if i == best || len(r.Legs) == 0 {
			continue
		}
		leg := r.Legs[0]
		details.AlternativeRoutes = append(details.AlternativeRoutes, AlternativeRouteDTO{
			Name:              routing.Name(r, "Alternative Route"),
			TrafficPercentage: routing.FormatPercentage(routing.TrafficPercentage(leg)),
			DurationInTraffic: leg.TrafficDuration().Text,
		})
	}

	return &PredictResponseDTO{
		AmbulanceNumber:      amb.Number,
		PhoneNumber:          amb.Phone,
		AmbulanceAddress:     s.address(ctx, amb.Location),
		AmbulanceCoordinates: amb.Coordinates(),
		AllocationConfidence: model.Predict(allocation.FeaturesFor(user, amb.Location)),
		OptimalRoute:         details,
	}, nil
}

func (s *DispatchService) address(ctx context.Context, p polyline.Point) string {
	address, err := s.maps.ReverseGeocode(ctx, p)
	switch {
	case err == nil:
		return address
	case errors.Is(err, google.ErrNoResults):
		return addressNotFound
	default:
		s.logger.Warn("reverse geocoding failed", zap.Error(err))
		return addressNotAvailable
	}
}

// summarize logs codec failures and leaves the encoded path null.
func (s *DispatchService) summarize(r google.Route, fallbackName string) RouteSummaryDTO {
	summary, err := routing.Summarize(r, fallbackName)
	if err != nil {
		s.logger.Warn("route path unavailable", zap.String("route", summary.Name), zap.Error(err))
	}
	return RouteSummaryDTO{
		RouteName:         summary.Name,
		Distance:          summary.Distance,
		DurationInTraffic: summary.DurationInTraffic,
		TrafficPercentage: summary.TrafficPercentage,
		EncodedPath:       summary.EncodedPath,
	}
}

func requestPoint(lat, lng *float64) (polyline.Point, error) {
	if lat == nil || lng == nil {
		return polyline.Point{}, domain.NewValidationError("Missing required location data")
	}
	p := polyline.Point{Lat: *lat, Lng: *lng}
	if !p.Valid() {
		return polyline.Point{}, domain.NewValidationError("Invalid coordinates")
	}
	return p, nil
}
