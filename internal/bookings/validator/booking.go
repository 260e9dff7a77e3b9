package validator

import (
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validation.New()
	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks the request shape. Interval rules depend on the clock and
// are enforced by the service.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	return validation.Struct(v.validate, req)
}

// ValidateContactNumber checks the normalised contact number.
func (v *BookingValidator) ValidateContactNumber(phone string) error {
	if err := v.validate.Var(phone, "required,e164"); err != nil {
		return validation.ValidationErrors{{
			Field:   "contact_number",
			Message: "contact_number must be a valid phone number",
		}}
	}
	return nil
}
