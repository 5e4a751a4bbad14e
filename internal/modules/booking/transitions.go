package booking

import "github.com/Jovan-creator/armaflex-sub001/internal/domain"

// legalTransitions is the full lifecycle. pending and confirmed can still
// fail; checked_in can only move forward; cancelled, completed and no_show
// are terminal.
var legalTransitions = map[domain.ReservationStatus][]domain.ReservationStatus{
	domain.ReservationPending: {
		domain.ReservationConfirmed,
		domain.ReservationCancelled,
	},
	domain.ReservationConfirmed: {
		domain.ReservationCheckedIn,
		domain.ReservationCancelled,
		domain.ReservationNoShow,
	},
	domain.ReservationCheckedIn: {
		domain.ReservationCompleted,
	},
}

func canTransition(from, to domain.ReservationStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
