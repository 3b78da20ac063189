package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/platform/kafka"
)

// ServiceName is the CloudEvents source of every event this service emits.
const ServiceName = "service-ambulance"

// EventPublisher is satisfied by *kafka.Producer and kafka.NopProducer.
type EventPublisher interface {
	PublishKeyed(ctx context.Context, topic, key string, evt kafka.CloudEvent) error
}

// publishEvent logs and swallows publishing failures; events never fail a request.
// key is the booking id so every event of one booking lands on one partition.
func publishEvent(ctx context.Context, producer EventPublisher, logger *zap.Logger, topic, key, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(ServiceName, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := producer.PublishKeyed(ctx, topic, key, cloudEvent); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
