package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/bookref"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

const expiredHoldBatch = 200

// Service is the availability index: it answers "is [start, end) free" and
// reserves the interval atomically. All mutations on one resource pass
// through a per-resource lock shared with the booking state machine, so no
// two callers can observe availability and commit without serializing.
type Service struct {
	reservations ReservationRepository
	resources    ResourceReader
	locks        *lock.Keyed
	holdTTL      time.Duration
	loggerf      func(format string, args ...interface{})
}

func NewService(reservations ReservationRepository, resources ResourceReader, locks *lock.Keyed, holdTTL time.Duration, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		reservations: reservations,
		resources:    resources,
		locks:        locks,
		holdTTL:      holdTTL,
		loggerf:      loggerf,
	}
}

// TryReserve validates the request, then serializes on the resource,
// re-checks for blocking reservations and creates a pending hold. Retrying
// with the same operation id returns the reservation created by the first
// attempt instead of double-booking.
func (s *Service) TryReserve(ctx context.Context, req TryReserveRequest) (*domain.Reservation, error) {
	if !req.EndAt.After(req.StartAt) {
		return nil, ErrValidation
	}
	if req.Adults < 1 {
		return nil, ErrValidation
	}

	if req.OperationID == "" {
		req.OperationID = uuid.NewString()
	} else if existing, err := s.reservations.GetByOperationID(ctx, req.OperationID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	res, err := s.resources.GetByID(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	if !res.Active {
		return nil, ErrResourceInactive
	}
	if req.Adults+req.Children > res.Capacity {
		return nil, ErrCapacityExceeded
	}

	ref, err := bookref.New()
	if err != nil {
		return nil, err
	}

	s.locks.Lock(req.ResourceID)
	defer s.locks.Unlock(req.ResourceID)

	now := time.Now().UTC()
	blocking, err := s.reservations.FindBlocking(ctx, req.ResourceID, req.StartAt, req.EndAt, now)
	if err != nil {
		return nil, err
	}
	if len(blocking) > 0 {
		ids := make([]int64, 0, len(blocking))
		for _, b := range blocking {
			ids = append(ids, b.ID)
		}
		return nil, &ConflictError{ResourceID: req.ResourceID, BlockingIDs: ids}
	}

	expires := now.Add(s.holdTTL)
	r := &domain.Reservation{
		ResourceID:       req.ResourceID,
		ChannelID:        req.ChannelID,
		BookingReference: ref,
		OperationID:      req.OperationID,
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		Adults:           req.Adults,
		Children:         req.Children,
		Status:           domain.ReservationPending,
		PaymentStatus:    domain.RollupPending,
		TotalAmount:      req.TotalAmount,
		Currency:         req.Currency,
		HoldExpiresAt:    &expires,
		SpecialRequests:  req.SpecialRequests,
	}

	if err := s.reservations.Create(ctx, r); err != nil {
		// The unique operation_id index is the backstop for a retry that
		// raced the first attempt's commit.
		if errors.Is(err, repository.ErrDuplicate) {
			if existing, lookupErr := s.reservations.GetByOperationID(ctx, req.OperationID); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.loggerf("availability: reserved resource=%d ref=%s interval=[%s,%s) hold_until=%s",
		r.ResourceID, r.BookingReference, r.StartAt.Format(time.RFC3339), r.EndAt.Format(time.RFC3339), expires.Format(time.RFC3339))

	return r, nil
}

// GetCalendar is the read-only view for admin calendar rendering. It never
// reserves anything.
func (s *Service) GetCalendar(ctx context.Context, resourceID int64, from, to time.Time) (*CalendarResponse, error) {
	if !to.After(from) {
		return nil, ErrValidation
	}
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}

	rows, err := s.reservations.FindBlocking(ctx, resourceID, from, to, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	busy := make([]Interval, 0, len(rows))
	for _, r := range rows {
		busy = append(busy, Interval{Start: r.StartAt, End: r.EndAt})
	}

	return &CalendarResponse{
		ResourceID: resourceID,
		From:       from,
		To:         to,
		Busy:       busy,
		Free:       subtractBusy(from, to, busy),
	}, nil
}

// ExpireHolds cancels pending holds whose TTL has passed. Each release
// takes the same per-resource lock as TryReserve so a sweep cannot race a
// concurrent confirmation; the conditional status update is the second
// line of defense.
func (s *Service) ExpireHolds(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	holds, err := s.reservations.ListExpiredHolds(ctx, now, expiredHoldBatch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, h := range holds {
		s.locks.Lock(h.ResourceID)
		ok, err := s.reservations.UpdateStatusIf(ctx, h.ID, domain.ReservationPending, domain.ReservationCancelled, map[string]interface{}{
			"cancellation_reason": "hold expired",
			"cancelled_at":        now,
		})
		s.locks.Unlock(h.ResourceID)
		if err != nil {
			return released, err
		}
		if ok {
			released++
			s.loggerf("availability: expired hold reservation=%d resource=%d", h.ID, h.ResourceID)
		}
	}
	return released, nil
}

// subtractBusy merges the busy intervals and returns the free gaps within
// [from, to).
func subtractBusy(from, to time.Time, busy []Interval) []Interval {
	if len(busy) == 0 {
		return []Interval{{Start: from, End: to}}
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	merged := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if b.End.Before(from) || !b.Start.Before(to) {
			continue
		}
		if b.Start.Before(from) {
			b.Start = from
		}
		if b.End.After(to) {
			b.End = to
		}
		if !b.End.After(b.Start) {
			continue
		}

		if len(merged) == 0 {
			merged = append(merged, b)
			continue
		}
		last := merged[len(merged)-1]
		if !b.Start.After(last.End) {
			if b.End.After(last.End) {
				last.End = b.End
				merged[len(merged)-1] = last
			}
		} else {
			merged = append(merged, b)
		}
	}

	cur := from
	out := make([]Interval, 0)
	for _, b := range merged {
		if b.Start.After(cur) {
			out = append(out, Interval{Start: cur, End: b.Start})
		}
		if b.End.After(cur) {
			cur = b.End
		}
		if !cur.Before(to) {
			break
		}
	}
	if cur.Before(to) {
		out = append(out, Interval{Start: cur, End: to})
	}
	return out
}
