package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Seats int    `json:"seats" validate:"required,min=1,max=8"`
	Role  string `json:"role" validate:"omitempty,oneof=passenger driver"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(sampleRequest{Email: "a@b.co", Seats: 2}))

	errs := ValidateStruct(sampleRequest{Email: "nope", Seats: 9, Role: "pilot"})
	assert.Equal(t, map[string]string{
		"Email": "Invalid email format",
		"Seats": "Maximum is 8",
		"Role":  "Must be one of: passenger, driver",
	}, errs)
}

func TestFormatValidationErrorsIsSorted(t *testing.T) {
	got := FormatValidationErrors(map[string]string{
		"Seats": "Minimum is 1",
		"Email": "This field is required",
	})
	assert.Equal(t, "Email: This field is required; Seats: Minimum is 1", got)
}
