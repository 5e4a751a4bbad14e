package catalog

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrForbidden           = errors.New("forbidden")
	ErrHasOpenReservations = errors.New("resource has open reservations")
)
