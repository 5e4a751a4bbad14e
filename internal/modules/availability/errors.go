package availability

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("interval not available")
	ErrCapacityExceeded = errors.New("occupancy exceeds resource capacity")
	ErrResourceInactive = errors.New("resource is not active")
)

// ConflictError carries the reservations blocking the requested interval so
// callers can surface "held by booking X" and build next-available UX.
type ConflictError struct {
	ResourceID  int64
	BlockingIDs []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval not available on resource %d (blocked by %d reservation(s))",
		e.ResourceID, len(e.BlockingIDs))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
