package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/alert"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/bookref"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

// Service keeps per-channel inventory counters consistent with the shared
// physical pool and reconciles inbound channel bookings against the
// availability index. The index stays the source of truth for conflicts;
// channel counters are advisory capacity splits.
type Service struct {
	channels     ChannelRepository
	reservations ReservationRepository
	resources    ResourceReader
	outbox       SyncOutbox
	quoter       Quoter
	reserver     Reserver
	alerts       alert.Sender
	locks        *lock.Keyed
	loggerf      func(format string, args ...interface{})
}

func NewService(
	channels ChannelRepository,
	reservations ReservationRepository,
	resources ResourceReader,
	outbox SyncOutbox,
	quoter Quoter,
	reserver Reserver,
	alerts alert.Sender,
	locks *lock.Keyed,
	loggerf func(format string, args ...interface{}),
) *Service {
	return &Service{
		channels:     channels,
		reservations: reservations,
		resources:    resources,
		outbox:       outbox,
		quoter:       quoter,
		reserver:     reserver,
		alerts:       alerts,
		locks:        locks,
		loggerf:      loggerf,
	}
}

func (s *Service) ConnectChannel(ctx context.Context, req ConnectChannelRequest, actor domain.Actor) (*domain.Channel, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.Code == "" || req.Name == "" || len(req.WebhookKey) < 16 {
		return nil, ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.WebhookKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	ch := &domain.Channel{
		Code:           req.Code,
		Name:           req.Name,
		Active:         true,
		WebhookKeyHash: string(hash),
	}
	if err := s.channels.CreateChannel(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// DisconnectChannel disables a channel and returns its allocations to the
// shared pool. In-flight reservations sold through it are untouched.
func (s *Service) DisconnectChannel(ctx context.Context, channelID int64, actor domain.Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	if err := s.channels.SetChannelActive(ctx, channelID, false); err != nil {
		return err
	}
	return s.channels.DeleteAllocationsForChannel(ctx, channelID)
}

func (s *Service) ListChannels(ctx context.Context, activeOnly bool) ([]domain.Channel, error) {
	return s.channels.ListChannels(ctx, activeOnly)
}

func (s *Service) ListAllocations(ctx context.Context, resourceID int64) ([]domain.ChannelAllocation, error) {
	return s.channels.ListAllocations(ctx, resourceID)
}

// SetChannelAllocation rebalances how much of a resource a channel may
// sell. The sum across channels must stay within the resource's sellable
// inventory minus whatever direct bookings already hold; the check runs
// under the resource lock so concurrent rebalances cannot both pass.
func (s *Service) SetChannelAllocation(ctx context.Context, resourceID, channelID int64, count int, actor domain.Actor) (*domain.ChannelAllocation, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if count < 0 {
		return nil, ErrValidation
	}

	ch, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.Active {
		return nil, ErrChannelInactive
	}

	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(resourceID)
	defer s.locks.Unlock(resourceID)

	others, err := s.channels.SumAllocations(ctx, resourceID, channelID)
	if err != nil {
		return nil, err
	}
	direct, err := s.reservations.CountOpenDirect(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if int64(others+count) > int64(res.TotalInventory)-direct {
		return nil, ErrOverAllocation
	}

	alloc, err := s.channels.UpsertAllocation(ctx, resourceID, channelID, count)
	if err != nil {
		return nil, err
	}

	s.enqueueFanOut(ctx, resourceID, channelID,
		fmt.Sprintf("alloc-%d-%d-%d", resourceID, channelID, count),
		domain.SyncOpAllocate, time.Time{}, time.Time{})
	return alloc, nil
}

// Allocate applies an admin-driven delta on top of the current count.
func (s *Service) Allocate(ctx context.Context, resourceID, channelID int64, delta int, actor domain.Actor) (*domain.ChannelAllocation, error) {
	current := 0
	if alloc, err := s.channels.GetAllocation(ctx, resourceID, channelID); err == nil {
		current = alloc.AllocatedCount
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	next := current + delta
	if next < 0 {
		return nil, ErrValidation
	}
	return s.SetChannelAllocation(ctx, resourceID, channelID, next, actor)
}

// ReconcileChannelBooking handles an inbound booking notification from an
// external channel. It goes through the same reservation attempt as a
// direct booking; when the interval is already taken the booking is kept
// as a conflict-flagged confirmed reservation and an operator alert fires.
// Dropping either side silently is never an option here.
func (s *Service) ReconcileChannelBooking(ctx context.Context, channelID int64, req ChannelBookingRequest) (*domain.Reservation, error) {
	ch, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.Active {
		return nil, ErrChannelInactive
	}

	// Redelivered webhook: same operation id, return the prior outcome.
	if existing, err := s.reservations.GetByOperationID(ctx, req.OperationID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	quote, err := s.quoter.Quote(ctx, req.ResourceID, req.StartAt, req.EndAt, req.Adults, req.Children)
	if err != nil {
		return nil, err
	}

	r, err := s.reserver.TryReserve(ctx, availability.TryReserveRequest{
		ResourceID:  req.ResourceID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Adults:      req.Adults,
		Children:    req.Children,
		OperationID: req.OperationID,
		ChannelID:   &channelID,
		TotalAmount: quote.Amount,
		Currency:    quote.Currency,
	})

	var conflict *availability.ConflictError
	if errors.As(err, &conflict) {
		return s.acceptConflicting(ctx, channelID, req, quote.Amount, quote.Currency, conflict)
	}
	if err != nil {
		return nil, err
	}

	// Channel guests already paid the channel; there is no hold to expire.
	if ok, err := s.reservations.UpdateStatusIf(ctx, r.ID, domain.ReservationPending, domain.ReservationConfirmed, map[string]interface{}{
		"hold_expires_at": nil,
	}); err != nil {
		return nil, err
	} else if ok {
		r.Status = domain.ReservationConfirmed
		r.HoldExpiresAt = nil
	}

	s.enqueueFanOut(ctx, req.ResourceID, channelID, req.OperationID, domain.SyncOpBook, req.StartAt, req.EndAt)
	s.logf("channel: booking %s reconciled from channel %s", r.BookingReference, ch.Code)
	return r, nil
}

// acceptConflicting records a double-sold channel booking. The guest holds
// a confirmation from the channel, so the row is written confirmed with
// the conflict flag set and handed to an operator.
func (s *Service) acceptConflicting(ctx context.Context, channelID int64, req ChannelBookingRequest, amount float64, currency string, conflict *availability.ConflictError) (*domain.Reservation, error) {
	ref, err := bookref.New()
	if err != nil {
		return nil, err
	}

	r := &domain.Reservation{
		ResourceID:       req.ResourceID,
		ChannelID:        &channelID,
		BookingReference: ref,
		OperationID:      req.OperationID,
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		Adults:           req.Adults,
		Children:         req.Children,
		Status:           domain.ReservationConfirmed,
		PaymentStatus:    domain.RollupPending,
		TotalAmount:      amount,
		Currency:         currency,
		Conflict:         true,
	}
	if err := s.reservations.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.reservations.GetByOperationID(ctx, req.OperationID)
		}
		return nil, err
	}

	if s.alerts != nil {
		s.alerts.OverbookingDetected(alert.OverbookingEvent{
			ResourceID:    req.ResourceID,
			ReservationID: r.ID,
			BlockingIDs:   conflict.BlockingIDs,
			ChannelID:     channelID,
			StartAt:       req.StartAt,
			EndAt:         req.EndAt,
		})
	}
	s.logf("channel: overbooking on resource %d, reservation %d kept with conflict flag", req.ResourceID, r.ID)
	return r, nil
}

// ReconcileChannelCancellation handles an inbound cancellation. A stay
// that is already checked in is left alone and escalated; the guest is
// physically present and the channel's view is stale.
func (s *Service) ReconcileChannelCancellation(ctx context.Context, channelID int64, req ChannelCancellationRequest) (*domain.Reservation, error) {
	ch, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.Active {
		return nil, ErrChannelInactive
	}

	r, err := s.reservations.GetByReference(ctx, req.BookingReference)
	if err != nil {
		return nil, err
	}
	if r.ChannelID == nil || *r.ChannelID != channelID {
		return nil, repository.ErrNotFound
	}
	if r.Status == domain.ReservationCancelled {
		return r, nil
	}

	if r.Status == domain.ReservationCheckedIn {
		if s.alerts != nil {
			s.alerts.ChannelCancellationBlocked(alert.CancellationBlockedEvent{
				ReservationID: r.ID,
				ChannelID:     channelID,
				Reference:     r.BookingReference,
			})
		}
		return nil, ErrCancellationBlocked
	}

	s.locks.Lock(r.ResourceID)
	defer s.locks.Unlock(r.ResourceID)

	reason := req.Reason
	if reason == "" {
		reason = "cancelled by channel"
	}
	now := time.Now().UTC()
	ok, err := s.reservations.UpdateStatusIf(ctx, r.ID, r.Status, domain.ReservationCancelled, map[string]interface{}{
		"cancellation_reason": reason,
		"cancelled_at":        now,
		"hold_expires_at":     nil,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.reservations.GetByID(ctx, r.ID)
	}

	s.enqueueFanOut(ctx, r.ResourceID, channelID, r.OperationID+":cancel", domain.SyncOpCancel, r.StartAt, r.EndAt)
	return s.reservations.GetByID(ctx, r.ID)
}

// ReservationBooked and ReservationCancelled make the service the fan-out
// target for direct bookings: every availability change is propagated to
// all connected channels except the one that originated it.

func (s *Service) ReservationBooked(ctx context.Context, r *domain.Reservation) error {
	origin := int64(0)
	if r.ChannelID != nil {
		origin = *r.ChannelID
	}
	s.enqueueFanOut(ctx, r.ResourceID, origin, r.OperationID, domain.SyncOpBook, r.StartAt, r.EndAt)
	return nil
}

func (s *Service) ReservationCancelled(ctx context.Context, r *domain.Reservation) error {
	origin := int64(0)
	if r.ChannelID != nil {
		origin = *r.ChannelID
	}
	s.enqueueFanOut(ctx, r.ResourceID, origin, r.OperationID+":cancel", domain.SyncOpCancel, r.StartAt, r.EndAt)
	return nil
}

// enqueueFanOut appends one outbox row per connected channel other than
// the originator. Enqueue failures are logged, not propagated: delivery is
// best-effort eventual consistency and must never fail a booking.
func (s *Service) enqueueFanOut(ctx context.Context, resourceID, originChannelID int64, operationID string, op domain.SyncOperation, start, end time.Time) {
	chans, err := s.channels.ListChannels(ctx, true)
	if err != nil {
		s.logf("channel: fan-out listing failed: %v", err)
		return
	}

	for _, ch := range chans {
		if ch.ID == originChannelID {
			continue
		}
		evt := &domain.SyncEvent{
			ResourceID:  resourceID,
			ChannelID:   ch.ID,
			OperationID: operationID,
			Operation:   op,
			StartAt:     start,
			EndAt:       end,
		}
		if err := s.outbox.Enqueue(ctx, evt); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			s.logf("channel: enqueue sync for channel %s failed: %v", ch.Code, err)
		}
	}
}

// VerifyWebhookKey resolves the calling channel from its code and key.
func (s *Service) VerifyWebhookKey(ctx context.Context, code, key string) (*domain.Channel, error) {
	ch, err := s.channels.GetChannelByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}
	if !ch.Active {
		return nil, ErrChannelInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(ch.WebhookKeyHash), []byte(key)) != nil {
		return nil, ErrInvalidKey
	}
	return ch, nil
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.loggerf != nil {
		s.loggerf(format, args...)
	}
}
