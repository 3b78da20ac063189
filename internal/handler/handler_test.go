package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/application"
	"github.com/SevaDrive/service-ambulance/internal/clients/google"
	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	"github.com/SevaDrive/service-ambulance/internal/platform/kafka"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
	"github.com/SevaDrive/service-ambulance/internal/repository"
	"github.com/SevaDrive/service-ambulance/internal/routing"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Directions(ctx context.Context, origin, destination polyline.Point) (*google.DirectionsResponse, error) {
	args := m.Called(ctx, origin, destination)
	resp, _ := args.Get(0).(*google.DirectionsResponse)
	return resp, args.Error(1)
}

func (m *MockProvider) ReverseGeocode(ctx context.Context, p polyline.Point) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

var (
	user    = polyline.Point{Lat: 12.9716, Lng: 77.5946}
	station = polyline.Point{Lat: 12.93, Lng: 77.62}
)

func testDirections(t *testing.T) *google.DirectionsResponse {
	t.Helper()
	encoded, err := polyline.Encode(polyline.Path{user, station})
	require.NoError(t, err)
	return &google.DirectionsResponse{
		Status: "OK",
		Routes: []google.Route{{
			Summary: "Hosur Rd",
			Legs: []google.Leg{{
				Distance:          google.TextValue{Text: "5.1 km", Value: 5100},
				Duration:          google.TextValue{Text: "12 mins", Value: 720},
				DurationInTraffic: &google.TextValue{Text: "18 mins", Value: 1080},
				Steps:             []google.Step{{Polyline: google.EncodedPolyline{Points: encoded}}},
			}},
		}},
	}
}

func setupRouter(t *testing.T, maps *MockProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	fleet := ambulance.NewFleet([]ambulance.Record{{
		Ambulance: ambulance.Ambulance{Number: "KA01AB1234", Phone: "9000000001", Location: station},
		Allocate:  "yes",
	}})
	models := application.NewModelService("missing.csv", filepath.Join(t.TempDir(), "model.json"),
		repository.LoadDataset, logger)

	bookings := application.NewBookingService(repository.NewMemoryBookingRepository(), maps, kafka.NopProducer{}, logger)
	dispatch := application.NewDispatchService(fleet, models, maps, logger)

	r := gin.New()
	NewDispatchHandler(dispatch).RegisterRoutes(r)
	NewBookingHandler(bookings).RegisterRoutes(r)
	NewModelHandler(models).RegisterRoutes(r)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHome(t *testing.T) {
	r := setupRouter(t, new(MockProvider))

	w := doJSON(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to the Ambulance Allocation API","status":"running"}`, w.Body.String())
}

func TestPredictNearest(t *testing.T) {
	maps := new(MockProvider)
	maps.On("ReverseGeocode", mock.Anything, station).Return("Koramangala", nil)
	maps.On("Directions", mock.Anything, user, station).Return(testDirections(t), nil)
	r := setupRouter(t, maps)

	w := doJSON(r, http.MethodPost, "/predict", map[string]float64{
		"user_latitude":  user.Lat,
		"user_longitude": user.Lng,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "KA01AB1234", body["ambulance_number"])
	assert.Equal(t, "(12.93, 77.62)", body["ambulance_coordinates"])
	route := body["optimal_route"].(map[string]interface{})
	assert.Equal(t, "Hosur Rd", route["route_name"])
	assert.Equal(t, "50.00%", route["traffic_percentage"])
	assert.NotEmpty(t, route["encoded_path"])
}

func TestPredictNearest_MissingParameters(t *testing.T) {
	r := setupRouter(t, new(MockProvider))

	w := doJSON(r, http.MethodPost, "/predict", map[string]float64{"user_latitude": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required parameters"}`, w.Body.String())
}

func TestPredictAmbulance_NoModel(t *testing.T) {
	r := setupRouter(t, new(MockProvider))

	w := doJSON(r, http.MethodPost, "/api/predict-ambulance", map[string]interface{}{
		"latitude":      user.Lat,
		"longitude":     user.Lng,
		"emergencyType": "Cardiac",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"ML model or ambulance data not available"}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/predict-ambulance", map[string]interface{}{"latitude": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required location data"}`, w.Body.String())
}

func TestBookingLifecycle(t *testing.T) {
	maps := new(MockProvider)
	maps.On("Directions", mock.Anything, user, station).Return(testDirections(t), nil)
	r := setupRouter(t, maps)

	w := doJSON(r, http.MethodPost, "/api/emergency-booking/create", map[string]interface{}{
		"emergencyType":   "Accident",
		"latitude":        user.Lat,
		"longitude":       user.Lng,
		"address":         "MG Road",
		"ambulanceNumber": "KA01AB1234",
		"ambulanceDetails": map[string]interface{}{
			"number":      "KA01AB1234",
			"coordinates": "(12.93, 77.62)",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode(t, w)
	id := created["booking_id"].(string)
	assert.Regexp(t, `^EMG-1-\d{14}$`, id)
	assert.Equal(t, "CONFIRMED", created["status"])
	assert.Equal(t, "Emergency booking created successfully", created["message"])
	route := created["optimal_route"].(map[string]interface{})
	assert.Equal(t, "5.1 km", route["distance"])
	assert.Equal(t, "18 mins", route["duration_in_traffic"])

	w = doJSON(r, http.MethodGet, "/api/emergency-booking/status/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, id, got["id"])
	assert.Equal(t, "Accident", got["emergency_type"])
	location := got["location"].(map[string]interface{})
	assert.Equal(t, "MG Road", location["address"])

	w = doJSON(r, http.MethodGet, "/api/emergency-booking/route/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, routing.KMLContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<LineString>")

	w = doJSON(r, http.MethodPut, "/api/emergency-booking/status/"+id, map[string]string{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IN_PROGRESS", decode(t, w)["status"])

	w = doJSON(r, http.MethodPut, "/api/emergency-booking/status/"+id, map[string]string{"status": "PENDING"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodGet, "/api/emergency-booking?page=1&limit=500", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.EqualValues(t, 1, page["total"])
	assert.EqualValues(t, 100, page["limit"])

	w = doJSON(r, http.MethodGet, "/api/emergency-booking/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_bookings":1,"by_status":{"PENDING":0,"CONFIRMED":0,"ASSIGNED":0,"IN_PROGRESS":1,"COMPLETED":0,"CANCELLED":0}}`, w.Body.String())
}

func TestCreateBooking_Errors(t *testing.T) {
	r := setupRouter(t, new(MockProvider))

	w := doJSON(r, http.MethodPost, "/api/emergency-booking/create", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No data provided"}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/emergency-booking/create", map[string]interface{}{
		"emergencyType": "Accident",
		"address":       "MG Road",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields: latitude, longitude, ambulanceNumber, ambulanceDetails.coordinates"}`, w.Body.String())
}

func TestGetBooking_NotFound(t *testing.T) {
	r := setupRouter(t, new(MockProvider))

	w := doJSON(r, http.MethodGet, "/api/emergency-booking/status/EMG-42-20250101000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Booking not found")
}

func TestRetrain_NoDataset(t *testing.T) {
	r := setupRouter(t, new(MockProvider))

	w := doJSON(r, http.MethodPost, "/api/model/retrain", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
