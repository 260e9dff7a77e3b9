package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	userserrors "rentals/internal/users/errors"
	"rentals/pkg/kafka"
	"rentals/pkg/locale"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sms"
)

const timeLayout = "02 Jan 2006 15:04 MST"

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) error
}

// Notifier texts product owners about bookings of their products.
type Notifier struct {
	users  UserFinder
	sender MessageSender
	log    *logger.Logger
}

func New(users UserFinder, sender MessageSender, log *logger.Logger) *Notifier {
	return &Notifier{
		users:  users,
		sender: sender,
		log:    log,
	}
}

// Handle is a kafka.MessageHandler. Errors that can never succeed are
// returned as permanent so the consumer parks the message on the DLQ.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("malformed booking event", err)
	}

	switch event.Type {
	case model.EventBookingCreated, model.EventBookingCancelled:
	default:
		n.log.Debug("Ignoring event", "event_type", event.Type, "event_id", msg.GetEventID())
		return nil
	}

	if event.OwnerID == "" {
		return kafka.NewPermanentError("booking event has no owner", nil)
	}

	owner, err := n.users.FindByID(ctx, event.OwnerID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return kafka.NewPermanentError("product owner not found", err)
		}
		return kafka.NewTransientError("failed to load product owner", err)
	}
	if owner.PhoneNumber == "" {
		n.log.Warn("Product owner has no phone number", "owner_id", owner.ID, "booking_id", event.BookingID)
		return nil
	}

	body := Compose(&event, locationFor(owner.PhoneNumber))
	if err := n.sender.SendMessage(ctx, owner.PhoneNumber, body); err != nil {
		if sms.IsPermanent(err) {
			return kafka.NewPermanentError("sms gateway rejected message", err)
		}
		return kafka.NewTransientError("failed to send sms", err)
	}

	n.log.Info("Owner notified",
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"owner_id", owner.ID,
		"correlation_id", msg.GetCorrelationID(),
	)
	return nil
}

// Compose renders the SMS text for event with times shown in loc.
func Compose(event *model.BookingEvent, loc *time.Location) string {
	product := event.ProductName
	if product == "" {
		product = "your product"
	}

	from := event.From.In(loc).Format(timeLayout)
	to := event.To.In(loc).Format(timeLayout)

	if event.Type == model.EventBookingCancelled {
		return fmt.Sprintf("Booking %s for %s (%s to %s) was cancelled.", event.BookingID, product, from, to)
	}
	return fmt.Sprintf("New booking %s for %s from %s to %s.", event.BookingID, product, from, to)
}

func locationFor(phone string) *time.Location {
	loc, err := time.LoadLocation(locale.InferTimezoneFromPhone(phone))
	if err != nil {
		return time.UTC
	}
	return loc
}
