package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" validate:"required,min=2"`
	Email string   `json:"email" validate:"required,email"`
	Links []string `json:"links" validate:"max=1,dive,url"`
	Role  string   `json:"role" validate:"oneof=lender borrower"`
}

func TestStruct(t *testing.T) {
	v := New()

	require.NoError(t, Struct(v, sample{Name: "Ann", Email: "ann@example.com", Role: "lender"}))

	err := Struct(v, sample{Name: "A", Email: "nope", Links: []string{"x"}, Role: "admin"})
	errs, ok := AsValidationErrors(err)
	require.True(t, ok)

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "name must be at least 2", byField["name"])
	assert.Equal(t, "email must be a valid email address", byField["email"])
	assert.Equal(t, "role must be one of: lender borrower", byField["role"])
	assert.Contains(t, byField, "links[0]")

	details := errs.Details()
	assert.Contains(t, details["fields"], "email")
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "", ValidationErrors{}.Error())
	errs := ValidationErrors{{Field: "a", Message: "bad"}}
	assert.Equal(t, "validation failed: 1 error(s): [a: bad]", errs.Error())
}
