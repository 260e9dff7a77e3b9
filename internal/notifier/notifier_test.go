package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	userserrors "rentals/internal/users/errors"
	"rentals/pkg/kafka"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	users map[string]*model.User
	err   error
}

func (s *stubUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	return u, nil
}

type sentMessage struct {
	to, body string
}

type recordingSender struct {
	sent []sentMessage
	err  error
}

func (r *recordingSender) SendMessage(ctx context.Context, to, body string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMessage{to: to, body: body})
	return nil
}

func bookingEvent(eventType string) *model.BookingEvent {
	return &model.BookingEvent{
		Type:        eventType,
		BookingID:   "b1",
		ProductID:   "p1",
		ProductName: "Cordless drill",
		OwnerID:     "lender-1",
		BorrowerID:  "borrower-1",
		From:        time.Date(2030, 1, 2, 4, 30, 0, 0, time.UTC),
		To:          time.Date(2030, 1, 3, 4, 30, 0, 0, time.UTC),
		OccurredAt:  time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func message(t *testing.T, value any, eventType string) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey("p1").
		WithValue(value).
		WithEventType(eventType).
		WithCorrelationID("req-1").
		Build()
	require.NoError(t, err)
	return msg
}

func newNotifier() (*Notifier, *stubUsers, *recordingSender) {
	users := &stubUsers{users: map[string]*model.User{
		"lender-1": {ID: "lender-1", PhoneNumber: "+919876543210"},
		"lender-2": {ID: "lender-2"},
	}}
	sender := &recordingSender{}
	return New(users, sender, logger.Discard()), users, sender
}

func requirePermanent(t *testing.T, err error) {
	t.Helper()
	var kerr *kafka.KafkaError
	require.ErrorAs(t, err, &kerr)
	assert.True(t, kerr.IsPermanent(), err.Error())
}

func requireTransient(t *testing.T, err error) {
	t.Helper()
	var kerr *kafka.KafkaError
	require.ErrorAs(t, err, &kerr)
	assert.True(t, kerr.IsTransient(), err.Error())
}

func TestHandle_BookingCreated(t *testing.T) {
	n, _, sender := newNotifier()

	err := n.Handle(context.Background(), message(t, bookingEvent(model.EventBookingCreated), model.EventBookingCreated))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+919876543210", sender.sent[0].to)
	assert.Equal(t, "New booking b1 for Cordless drill from 02 Jan 2030 10:00 IST to 03 Jan 2030 10:00 IST.", sender.sent[0].body)
}

func TestHandle_BookingCancelled(t *testing.T) {
	n, _, sender := newNotifier()

	err := n.Handle(context.Background(), message(t, bookingEvent(model.EventBookingCancelled), model.EventBookingCancelled))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "was cancelled")
}

func TestHandle_SkipsWithoutSending(t *testing.T) {
	n, _, sender := newNotifier()
	ctx := context.Background()

	require.NoError(t, n.Handle(ctx, message(t, bookingEvent("booking.viewed"), "booking.viewed")))

	noPhone := bookingEvent(model.EventBookingCreated)
	noPhone.OwnerID = "lender-2"
	require.NoError(t, n.Handle(ctx, message(t, noPhone, model.EventBookingCreated)))

	assert.Empty(t, sender.sent)
}

func TestHandle_ErrorClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed payload", func(t *testing.T) {
		n, _, _ := newNotifier()
		requirePermanent(t, n.Handle(ctx, message(t, []int{1, 2}, model.EventBookingCreated)))
	})

	t.Run("unknown owner", func(t *testing.T) {
		n, _, _ := newNotifier()
		event := bookingEvent(model.EventBookingCreated)
		event.OwnerID = "ghost"
		requirePermanent(t, n.Handle(ctx, message(t, event, model.EventBookingCreated)))
	})

	t.Run("store unavailable", func(t *testing.T) {
		n, users, _ := newNotifier()
		users.err = errors.New("server selection timeout")
		requireTransient(t, n.Handle(ctx, message(t, bookingEvent(model.EventBookingCreated), model.EventBookingCreated)))
	})

	t.Run("gateway rejects number", func(t *testing.T) {
		n, _, sender := newNotifier()
		sender.err = &sms.APIError{StatusCode: 400, Message: "invalid destination"}
		requirePermanent(t, n.Handle(ctx, message(t, bookingEvent(model.EventBookingCreated), model.EventBookingCreated)))
	})

	t.Run("gateway overloaded", func(t *testing.T) {
		n, _, sender := newNotifier()
		sender.err = &sms.APIError{StatusCode: 429, Message: "slow down"}
		requireTransient(t, n.Handle(ctx, message(t, bookingEvent(model.EventBookingCreated), model.EventBookingCreated)))
	})
}

func TestCompose_DefaultsProductName(t *testing.T) {
	event := bookingEvent(model.EventBookingCreated)
	event.ProductName = ""
	body := Compose(event, time.UTC)
	assert.Equal(t, "New booking b1 for your product from 02 Jan 2030 04:30 UTC to 03 Jan 2030 04:30 UTC.", body)
}
