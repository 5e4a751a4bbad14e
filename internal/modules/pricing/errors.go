package pricing

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrCapacityExceeded = errors.New("occupancy exceeds resource capacity")
	ErrResourceInactive = errors.New("resource is not active")
)
