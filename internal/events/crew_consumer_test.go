package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/application"
	"github.com/SevaDrive/service-ambulance/internal/contracts"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
	"github.com/SevaDrive/service-ambulance/internal/platform/kafka"
)

type MockStatusUpdater struct {
	mock.Mock
}

func (m *MockStatusUpdater) UpdateStatus(ctx context.Context, id, status, source string) (*application.BookingDTO, error) {
	args := m.Called(ctx, id, status, source)
	dto, _ := args.Get(0).(*application.BookingDTO)
	return dto, args.Error(1)
}

func newTestConsumer(svc StatusUpdater) *CrewEventConsumer {
	return &CrewEventConsumer{service: svc, logger: zap.NewNop()}
}

func crewMessage(t *testing.T, eventType, bookingID string) kafkago.Message {
	t.Helper()
	evt, err := kafka.NewCloudEvent("crew-dispatch", eventType, contracts.CrewEvent{
		BookingID:       bookingID,
		AmbulanceNumber: "KA01AB1234",
		OccurredAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	value, err := json.Marshal(evt)
	require.NoError(t, err)
	return kafkago.Message{Topic: contracts.TopicCrewEvents, Value: value}
}

func TestHandleMessage_Transitions(t *testing.T) {
	tests := []struct {
		eventType string
		status    string
	}{
		{contracts.CrewDispatched, "IN_PROGRESS"},
		{contracts.CrewCompleted, "COMPLETED"},
		{contracts.CrewCancelled, "CANCELLED"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			svc := new(MockStatusUpdater)
			svc.On("UpdateStatus", mock.Anything, "EMG-1-20250314092653", tt.status, tt.eventType).
				Return(&application.BookingDTO{Status: tt.status}, nil)

			err := newTestConsumer(svc).handleMessage(context.Background(), crewMessage(t, tt.eventType, "EMG-1-20250314092653"))
			require.NoError(t, err)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleMessage_SkipsUnusableMessages(t *testing.T) {
	svc := new(MockStatusUpdater)
	c := newTestConsumer(svc)

	assert.NoError(t, c.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}))
	assert.NoError(t, c.handleMessage(context.Background(), crewMessage(t, "crew.lunch_break", "EMG-1")))
	assert.NoError(t, c.handleMessage(context.Background(), crewMessage(t, contracts.CrewCompleted, "")))

	svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessage_ErrorHandling(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"unknown booking", domain.NewNotFoundError("Booking", "EMG-9"), false},
		{"terminal booking", domain.NewInvalidStateError("COMPLETED", "CANCELLED"), false},
		{"optimistic lock", domain.NewConflictError("booking was modified concurrently"), true},
		{"store down", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStatusUpdater)
			svc.On("UpdateStatus", mock.Anything, "EMG-9", "CANCELLED", contracts.CrewCancelled).Return(nil, tt.err)

			err := newTestConsumer(svc).handleMessage(context.Background(), crewMessage(t, contracts.CrewCancelled, "EMG-9"))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
