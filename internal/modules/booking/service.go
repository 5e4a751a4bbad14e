package booking

import (
	"context"
	"time"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

// Service owns the reservation lifecycle. Every transition is applied with
// a compare-and-swap on the current status, under the same per-resource
// lock the availability index uses, so a transition that frees an interval
// and a reservation attempt for that interval can never interleave.
type Service struct {
	reservations ReservationRepository
	quoter       Quoter
	reserver     Reserver
	distributor  Distributor
	policy       CancellationPolicy
	locks        *lock.Keyed
	loggerf      func(format string, args ...interface{})
}

func NewService(reservations ReservationRepository, quoter Quoter, reserver Reserver, distributor Distributor, policy CancellationPolicy, locks *lock.Keyed, loggerf func(format string, args ...interface{})) *Service {
	if policy == nil {
		policy = AllowAllCancellations
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		reservations: reservations,
		quoter:       quoter,
		reserver:     reserver,
		distributor:  distributor,
		policy:       policy,
		locks:        locks,
		loggerf:      loggerf,
	}
}

// CreateBooking is the intake path shared by the public site and admin
// staff: price the interval, then try to reserve it atomically. The caller
// gets back a pending hold to confirm within the hold TTL.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Reservation, error) {
	if !req.EndAt.After(req.StartAt) {
		return nil, ErrValidation
	}
	if req.StartAt.Before(time.Now().UTC().Truncate(24 * time.Hour)) {
		return nil, ErrValidation
	}

	q, err := s.quoter.Quote(ctx, req.ResourceID, req.StartAt, req.EndAt, req.Adults, req.Children)
	if err != nil {
		return nil, err
	}

	r, err := s.reserver.TryReserve(ctx, availability.TryReserveRequest{
		ResourceID:      req.ResourceID,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		Adults:          req.Adults,
		Children:        req.Children,
		OperationID:     req.OperationID,
		TotalAmount:     q.Amount,
		Currency:        q.Currency,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}

	if s.distributor != nil {
		if err := s.distributor.ReservationBooked(ctx, r); err != nil {
			s.loggerf("booking: sync fan-out failed for %s: %v", r.BookingReference, err)
		}
	}

	return r, nil
}

// Confirm moves a pending hold to confirmed. The hold must still be live
// inside the per-resource critical section: checking expiry before taking
// the lock would let a reservation attempt slip in at the TTL boundary,
// treat the just-expired hold as free, and leave two blocking rows on one
// interval once the stale confirm lands.
func (s *Service) Confirm(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(r.ResourceID)
	defer s.locks.Unlock(r.ResourceID)

	// Re-read under the lock; expiry is monotonic, so a hold that is
	// still live here cannot have been resold before we locked.
	r, err = s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationPending {
		return nil, &TransitionError{ReservationID: id, From: r.Status, To: domain.ReservationConfirmed}
	}
	if r.HoldExpired(time.Now().UTC()) {
		return nil, ErrHoldExpired
	}

	ok, err := s.reservations.UpdateStatusIf(ctx, id, domain.ReservationPending, domain.ReservationConfirmed, map[string]interface{}{
		"hold_expires_at": nil,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(ctx, id, domain.ReservationConfirmed)
	}

	s.loggerf("booking: confirmed reservation=%d ref=%s", r.ID, r.BookingReference)
	return s.reservations.GetByID(ctx, id)
}

// Cancel closes a pending or confirmed reservation. Cancelling is also the
// release of the availability hold: both happen in the same conditional
// update, so there is no window where a cancelled booking still blocks the
// interval.
func (s *Service) Cancel(ctx context.Context, id int64, reason string, actor domain.Actor) (*domain.Reservation, error) {
	if reason == "" {
		return nil, ErrValidation
	}

	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch r.Status {
	case domain.ReservationPending:
	case domain.ReservationConfirmed:
		if err := s.policy.AllowCancel(ctx, r, actor); err != nil {
			return nil, ErrCancelRejected
		}
	default:
		return nil, &TransitionError{ReservationID: id, From: r.Status, To: domain.ReservationCancelled}
	}

	now := time.Now().UTC()
	s.locks.Lock(r.ResourceID)
	ok, err := s.reservations.UpdateStatusIf(ctx, id, r.Status, domain.ReservationCancelled, map[string]interface{}{
		"cancellation_reason": reason,
		"cancelled_at":        now,
	})
	s.locks.Unlock(r.ResourceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(ctx, id, domain.ReservationCancelled)
	}

	updated, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.distributor != nil {
		if err := s.distributor.ReservationCancelled(ctx, updated); err != nil {
			s.loggerf("booking: cancel sync fan-out failed for %s: %v", updated.BookingReference, err)
		}
	}

	s.loggerf("booking: cancelled reservation=%d ref=%s reason=%q", updated.ID, updated.BookingReference, reason)
	return updated, nil
}

// CheckIn is staff-only and guarded: not before the interval's start day.
func (s *Service) CheckIn(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationConfirmed {
		return nil, &TransitionError{ReservationID: id, From: r.Status, To: domain.ReservationCheckedIn}
	}
	if time.Now().UTC().Before(dayStart(r.StartAt)) {
		return nil, &TransitionError{
			ReservationID: id,
			From:          r.Status,
			To:            domain.ReservationCheckedIn,
			Reason:        "before interval start",
		}
	}

	return s.apply(ctx, r, domain.ReservationCheckedIn, nil)
}

// NoShow marks a confirmed reservation whose start has passed without a
// check-in. Terminal; frees the interval.
func (s *Service) NoShow(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationConfirmed {
		return nil, &TransitionError{ReservationID: id, From: r.Status, To: domain.ReservationNoShow}
	}
	if !time.Now().UTC().After(r.StartAt) {
		return nil, &TransitionError{
			ReservationID: id,
			From:          r.Status,
			To:            domain.ReservationNoShow,
			Reason:        "interval has not started",
		}
	}

	return s.apply(ctx, r, domain.ReservationNoShow, nil)
}

// Complete closes a checked-in stay on or after the interval end.
func (s *Service) Complete(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationCheckedIn {
		return nil, &TransitionError{ReservationID: id, From: r.Status, To: domain.ReservationCompleted}
	}
	if time.Now().UTC().Before(r.EndAt) {
		return nil, &TransitionError{
			ReservationID: id,
			From:          r.Status,
			To:            domain.ReservationCompleted,
			Reason:        "interval has not ended",
		}
	}

	return s.apply(ctx, r, domain.ReservationCompleted, nil)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, ref string) (*domain.Reservation, error) {
	return s.reservations.GetByReference(ctx, ref)
}

// ListReservations feeds the back-office reservations table.
func (s *Service) ListReservations(ctx context.Context, resourceID int64, limit, offset int, actor domain.Actor) ([]repository.ReservationDetails, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.reservations.ListWithResourceDetails(ctx, resourceID, limit, offset)
}

func (s *Service) apply(ctx context.Context, r *domain.Reservation, to domain.ReservationStatus, fields map[string]interface{}) (*domain.Reservation, error) {
	if !canTransition(r.Status, to) {
		return nil, &TransitionError{ReservationID: r.ID, From: r.Status, To: to}
	}

	s.locks.Lock(r.ResourceID)
	ok, err := s.reservations.UpdateStatusIf(ctx, r.ID, r.Status, to, fields)
	s.locks.Unlock(r.ResourceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(ctx, r.ID, to)
	}

	s.loggerf("booking: reservation=%d %s -> %s", r.ID, r.Status, to)
	return s.reservations.GetByID(ctx, r.ID)
}

// transitionConflict rebuilds the error after a lost compare-and-swap: the
// row moved under us, report its current status.
func (s *Service) transitionConflict(ctx context.Context, id int64, to domain.ReservationStatus) error {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return &TransitionError{ReservationID: id, To: to, Reason: "concurrent update"}
	}
	return &TransitionError{ReservationID: id, From: current.Status, To: to, Reason: "concurrent update"}
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
