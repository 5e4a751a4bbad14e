package payment

import (
	"context"
	"errors"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

// Service is the payment ledger: it records settlements and refunds and
// keeps the derived rollup on the reservation consistent with them.
// Operations serialize per reservation, not per resource; money never
// touches the interval index.
type Service struct {
	payments     PaymentRepository
	reservations ReservationReader
	rollups      RollupWriter
	confirmer    Confirmer
	locks        *lock.Keyed
	loggerf      func(format string, args ...interface{})
}

func NewService(payments PaymentRepository, reservations ReservationReader, rollups RollupWriter, confirmer Confirmer, locks *lock.Keyed, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		payments:     payments,
		reservations: reservations,
		rollups:      rollups,
		confirmer:    confirmer,
		locks:        locks,
		loggerf:      loggerf,
	}
}

// RecordPayment applies a processor callback. Idempotent by provider
// reference: a replayed callback updates the status at most once and never
// creates a second payment row. A succeeded payment may confirm the
// pending hold it pays for; if the hold is already gone the payment stays
// recorded and the mismatch is an operator case.
func (s *Service) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*domain.Payment, error) {
	if req.Amount <= 0 || req.ProviderReference == "" {
		return nil, ErrValidation
	}
	status := domain.PaymentStatus(req.Status)
	switch status {
	case domain.PaymentPending, domain.PaymentSucceeded, domain.PaymentFailed:
	default:
		return nil, ErrValidation
	}

	s.locks.Lock(req.ReservationID)
	defer s.locks.Unlock(req.ReservationID)

	// Read under the lock: the rollup short-circuit compares against
	// reservation.PaymentStatus, and a read taken before the lock can see
	// a value another writer is about to replace.
	reservation, err := s.reservations.GetByID(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}

	p, err := s.payments.GetByProviderReference(ctx, req.ProviderReference)
	switch {
	case err == nil:
		if p.Status == status {
			return p, nil
		}
		if err := s.payments.UpdateStatus(ctx, p.ID, status); err != nil {
			return nil, err
		}
		p.Status = status
	case errors.Is(err, repository.ErrNotFound):
		p = &domain.Payment{
			ReservationID:     req.ReservationID,
			Amount:            req.Amount,
			Currency:          req.Currency,
			Method:            req.Method,
			Status:            status,
			ProviderReference: req.ProviderReference,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			// Two callbacks for the same reference racing; the loser
			// re-reads the winner's row.
			if errors.Is(err, repository.ErrDuplicate) {
				return s.payments.GetByProviderReference(ctx, req.ProviderReference)
			}
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.recomputeRollup(ctx, reservation); err != nil {
		return nil, err
	}

	if status == domain.PaymentSucceeded && reservation.Status == domain.ReservationPending && s.confirmer != nil {
		if _, err := s.confirmer.Confirm(ctx, reservation.ID, domain.Actor{Role: domain.RoleStaff}); err != nil {
			s.loggerf("payment: auto-confirm of reservation %d failed: %v", reservation.ID, err)
		}
	}

	s.loggerf("payment: recorded provider_ref=%s reservation=%d amount=%.2f status=%s",
		p.ProviderReference, p.ReservationID, p.Amount, p.Status)
	return p, nil
}

// RecordRefund issues a refund as one atomic unit: refund row, payment
// status and reservation rollup commit together. The amount is capped at
// what is left on the payment; refunds against pending reservations are
// refused.
func (s *Service) RecordRefund(ctx context.Context, paymentID int64, amount float64, reason string, actor domain.Actor) (*domain.Refund, error) {
	if amount <= 0 || reason == "" {
		return nil, ErrValidation
	}

	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case domain.PaymentSucceeded, domain.PaymentPartiallyRefunded:
	case domain.PaymentRefunded:
		return nil, ErrRefundNotAllowed
	default:
		return nil, ErrRefundNotAllowed
	}

	reservation, err := s.reservations.GetByID(ctx, p.ReservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status == domain.ReservationPending {
		return nil, ErrRefundNotAllowed
	}

	s.locks.Lock(p.ReservationID)
	defer s.locks.Unlock(p.ReservationID)

	refunds, err := s.payments.ListRefundsByPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	alreadyRefunded := refundSum(refunds)
	if alreadyRefunded+amount > p.Amount+centEpsilon {
		return nil, ErrRefundExceedsPayment
	}

	newStatus := domain.PaymentPartiallyRefunded
	if alreadyRefunded+amount >= p.Amount-centEpsilon {
		newStatus = domain.PaymentRefunded
	}

	rollup, err := s.projectedRollup(ctx, reservation, amount)
	if err != nil {
		return nil, err
	}

	refund := &domain.Refund{
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    reason,
	}
	if err := s.payments.SaveRefund(ctx, refund, newStatus, reservation.ID, rollup); err != nil {
		return nil, err
	}

	s.loggerf("payment: refund payment=%d amount=%.2f reservation=%d rollup=%s by user=%d",
		paymentID, amount, reservation.ID, rollup, actor.UserID)
	return refund, nil
}

// ListForReservation returns the ledger rows backing a reservation's
// rollup, for the back-office payments panel.
func (s *Service) ListForReservation(ctx context.Context, reservationID int64) ([]domain.Payment, error) {
	if _, err := s.reservations.GetByID(ctx, reservationID); err != nil {
		return nil, err
	}
	return s.payments.ListByReservation(ctx, reservationID)
}

// Reconcile re-derives the rollup of every reservation that has payments
// and repairs any drift, e.g. after a crash between an external processor
// success and the local commit. Keyed on stored provider references, safe
// to run repeatedly.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	ids, err := s.payments.ReservationIDsWithPayments(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, id := range ids {
		s.locks.Lock(id)
		reservation, err := s.reservations.GetByID(ctx, id)
		if err != nil {
			s.locks.Unlock(id)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return repaired, err
		}

		rollup, err := s.currentRollup(ctx, reservation)
		if err != nil {
			s.locks.Unlock(id)
			return repaired, err
		}

		if rollup != reservation.PaymentStatus {
			if err := s.rollups.UpdatePaymentRollup(ctx, id, rollup); err != nil {
				s.locks.Unlock(id)
				return repaired, err
			}
			repaired++
			s.loggerf("payment: reconciled reservation=%d rollup %s -> %s", id, reservation.PaymentStatus, rollup)
		}
		s.locks.Unlock(id)
	}
	return repaired, nil
}

func (s *Service) recomputeRollup(ctx context.Context, reservation *domain.Reservation) error {
	rollup, err := s.currentRollup(ctx, reservation)
	if err != nil {
		return err
	}
	if rollup == reservation.PaymentStatus {
		return nil
	}
	return s.rollups.UpdatePaymentRollup(ctx, reservation.ID, rollup)
}

func (s *Service) currentRollup(ctx context.Context, reservation *domain.Reservation) (domain.PaymentRollup, error) {
	return s.projectedRollup(ctx, reservation, 0)
}

// projectedRollup computes the rollup with an extra, not-yet-persisted
// refund amount included, so SaveRefund can commit the final state in one
// transaction.
func (s *Service) projectedRollup(ctx context.Context, reservation *domain.Reservation, pendingRefund float64) (domain.PaymentRollup, error) {
	payments, err := s.payments.ListByReservation(ctx, reservation.ID)
	if err != nil {
		return "", err
	}

	refundTotal := pendingRefund
	for _, p := range payments {
		refunds, err := s.payments.ListRefundsByPayment(ctx, p.ID)
		if err != nil {
			return "", err
		}
		refundTotal += refundSum(refunds)
	}

	return computeRollup(payments, refundTotal, reservation.TotalAmount), nil
}
