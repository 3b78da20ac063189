// Package contracts defines the Kafka topics, event types and payloads the
// service produces and consumes.
package contracts

import "time"

// Topics.
const (
	TopicBookingEvents = "emergency.booking.events"
	TopicCrewEvents    = "ambulance.crew.events"
)

// Event types published on TopicBookingEvents.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
)

// Event types consumed from TopicCrewEvents.
const (
	CrewDispatched = "crew.dispatched"
	CrewCompleted  = "crew.completed"
	CrewCancelled  = "crew.cancelled"
)

// BookingCreatedEvent is published once a booking is stored.
type BookingCreatedEvent struct {
	BookingID       string    `json:"booking_id"`
	EmergencyType   string    `json:"emergency_type"`
	AmbulanceNumber string    `json:"ambulance_number"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Address         string    `json:"address"`
	EncodedPath     *string   `json:"encoded_path"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published after every accepted transition.
type BookingStatusChangedEvent struct {
	BookingID  string    `json:"booking_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CrewEvent is sent by the crew dispatch system.
type CrewEvent struct {
	BookingID       string    `json:"booking_id"`
	AmbulanceNumber string    `json:"ambulance_number,omitempty"`
	Note            string    `json:"note,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
