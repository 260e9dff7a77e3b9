package events

import (
	"context"
	"fmt"

	"rentals/pkg/kafka"
	"rentals/pkg/middleware"
	"rentals/pkg/model"
)

const SchemaVersion = "1"

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher publishes booking events keyed by product id so every
// event of one product lands on the same partition.
type KafkaPublisher struct {
	producer MessagePublisher
	source   string
}

func NewKafkaPublisher(producer MessagePublisher, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.ProductID).
		WithValue(event).
		WithEventID("").
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build booking event: %w", err)
	}

	return p.producer.Publish(ctx, msg)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *model.BookingEvent) error {
	return nil
}
