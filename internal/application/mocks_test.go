package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SevaDrive/service-ambulance/internal/clients/google"
	"github.com/SevaDrive/service-ambulance/internal/platform/kafka"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
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

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishKeyed(ctx context.Context, topic, key string, evt kafka.CloudEvent) error {
	args := m.Called(ctx, topic, key, evt)
	return args.Error(0)
}

// testRoute builds a one-leg route whose single step covers points.
func testRoute(t *testing.T, summary string, duration, traffic int64, points ...polyline.Point) google.Route {
	t.Helper()
	encoded, err := polyline.Encode(points)
	require.NoError(t, err)

	return google.Route{
		Summary: summary,
		Legs: []google.Leg{{
			Distance:          google.TextValue{Text: "4.2 km", Value: 4200},
			Duration:          google.TextValue{Text: "10 mins", Value: duration},
			DurationInTraffic: &google.TextValue{Text: summary + " traffic", Value: traffic},
			Steps: []google.Step{{
				Polyline: google.EncodedPolyline{Points: encoded},
			}},
		}},
	}
}
