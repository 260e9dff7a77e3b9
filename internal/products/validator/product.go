package validator

import (
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ProductValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProductValidator(log *logger.Logger) *ProductValidator {
	log.Info("Product validator initialized successfully")
	return &ProductValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *ProductValidator) Validate(input *model.ProductInput) error {
	return validation.Struct(v.validate, input)
}

func (v *ProductValidator) ValidateUpdate(update *model.ProductUpdate) error {
	return validation.Struct(v.validate, update)
}
