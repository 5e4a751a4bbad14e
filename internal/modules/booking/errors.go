package booking

import (
	"errors"
	"fmt"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrHoldExpired       = errors.New("hold has expired")
	ErrForbidden         = errors.New("forbidden")
	ErrCancelRejected    = errors.New("cancellation rejected by policy")
)

// TransitionError reports which transition was refused and why, so the
// caller can decide the next action instead of guessing from a bare 409.
type TransitionError struct {
	ReservationID int64
	From          domain.ReservationStatus
	To            domain.ReservationStatus
	Reason        string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("reservation %d: cannot go %s -> %s: %s", e.ReservationID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("reservation %d: cannot go %s -> %s", e.ReservationID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }
