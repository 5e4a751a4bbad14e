package channel

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrOverAllocation      = errors.New("allocation exceeds sellable inventory")
	ErrChannelInactive     = errors.New("channel is not active")
	ErrInvalidKey          = errors.New("invalid channel key")
	ErrCancellationBlocked = errors.New("reservation already checked in, manual resolution required")
	ErrForbidden           = errors.New("forbidden")
)
