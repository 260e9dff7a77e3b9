package validator

import (
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	log.Info("User validator initialized successfully")
	return &UserValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *UserValidator) ValidateRegistration(input *model.Registration) error {
	return validation.Struct(v.validate, input)
}

func (v *UserValidator) ValidateCredentials(input *model.Credentials) error {
	return validation.Struct(v.validate, input)
}

func (v *UserValidator) ValidatePhoneCode(input *model.PhoneCode) error {
	return validation.Struct(v.validate, input)
}
