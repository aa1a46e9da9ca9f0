package usecase

import (
	"errors"

	"ecoride/pkg/utils"
)

var (
	ErrUserNotFound               = errors.New("user not found")
	ErrTripNotFound               = errors.New("trip not found")
	ErrTripNotFoundOrUnauthorized = errors.New("trip not found or not owned by driver")
	ErrBookingNotFound            = errors.New("booking not found")
	ErrRatingNotFound             = errors.New("rating not found")
	ErrNotificationNotFound       = errors.New("notification not found")

	ErrValidation          = errors.New("validation failed")
	ErrInsufficientSeats   = errors.New("insufficient seats available")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrInvalidRole         = errors.New("invalid role")
	ErrSelfRating          = errors.New("users cannot rate themselves")
	ErrAlreadyRated        = errors.New("rating already submitted for this trip")
	ErrUserAlreadyExists   = errors.New("user already exists")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrSuspended          = errors.New("account suspended")
)

// ValidationError carries the per-field messages produced by the validator.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + utils.FormatValidationErrors(e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
