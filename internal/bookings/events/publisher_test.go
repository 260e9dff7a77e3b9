package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rentals/pkg/kafka"
	"rentals/pkg/middleware"
	"rentals/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	msgs []kafka.Message
}

func (c *capturePublisher) Publish(_ context.Context, msg kafka.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	capture := &capturePublisher{}
	p := NewKafkaPublisher(capture, "bookings")

	occurred := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	event := &model.BookingEvent{
		Type:       model.EventBookingCreated,
		BookingID:  "b1",
		ProductID:  "p1",
		OwnerID:    "owner",
		BorrowerID: "borrower",
		OccurredAt: occurred,
	}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	require.NoError(t, p.Publish(ctx, event))
	require.Len(t, capture.msgs, 1)

	msg := capture.msgs[0]
	assert.Equal(t, "p1", msg.Key)
	assert.Equal(t, model.EventBookingCreated, msg.GetEventType())
	assert.Equal(t, "req-1", msg.GetCorrelationID())
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "bookings", msg.Headers[kafka.HeaderSource])
	assert.Equal(t, occurred, msg.Timestamp)

	var decoded model.BookingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "b1", decoded.BookingID)
}
