// Package events consumes crew status events and applies them to bookings.
package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/application"
	"github.com/SevaDrive/service-ambulance/internal/contracts"
	bookingDomain "github.com/SevaDrive/service-ambulance/internal/domain/booking"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
	"github.com/SevaDrive/service-ambulance/internal/platform/kafka"
)

// StatusUpdater is satisfied by *application.BookingService.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id, status, source string) (*application.BookingDTO, error)
}

var crewTransitions = map[string]bookingDomain.BookingStatus{
	contracts.CrewDispatched: bookingDomain.StatusInProgress,
	contracts.CrewCompleted:  bookingDomain.StatusCompleted,
	contracts.CrewCancelled:  bookingDomain.StatusCancelled,
}

// CrewEventConsumer listens to crew events and moves bookings along.
type CrewEventConsumer struct {
	consumer *kafka.Consumer
	service  StatusUpdater
	logger   *zap.Logger
}

// NewCrewEventConsumer creates a new CrewEventConsumer.
func NewCrewEventConsumer(
	brokers []string,
	groupID string,
	service StatusUpdater,
	logger *zap.Logger,
) *CrewEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, contracts.TopicCrewEvents, logger)
	return &CrewEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming crew events. This blocks until the context is cancelled.
func (c *CrewEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CrewEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CrewEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from crew topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	target, ok := crewTransitions[cloudEvent.Type]
	if !ok {
		c.logger.Debug("ignoring unhandled crew event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
	return c.applyTransition(ctx, cloudEvent, target)
}

func (c *CrewEventConsumer) applyTransition(ctx context.Context, cloudEvent kafka.CloudEvent, target bookingDomain.BookingStatus) error {
	var evt contracts.CrewEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.BookingID == "" {
		c.logger.Error("failed to parse CrewEvent data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("processing crew event",
		zap.String("type", cloudEvent.Type),
		zap.String("booking_id", evt.BookingID),
		zap.String("ambulance", evt.AmbulanceNumber),
	)

	_, err := c.service.UpdateStatus(ctx, evt.BookingID, target.String(), cloudEvent.Type)
	switch domain.KindOf(err) {
	case "":
		if err != nil {
			c.logger.Error("failed to update booking from crew event",
				zap.String("booking_id", evt.BookingID),
				zap.Error(err),
			)
			return err
		}
	case domain.KindConflict:
		// Lost an optimistic-lock race; the retry re-reads the booking.
		return err
	default:
		// Unknown bookings and stale transitions never succeed on retry.
		c.logger.Warn("crew event rejected",
			zap.String("booking_id", evt.BookingID),
			zap.String("target", target.String()),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("booking status updated from crew event",
		zap.String("booking_id", evt.BookingID),
		zap.String("status", target.String()),
	)
	return nil
}
