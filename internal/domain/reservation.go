package domain

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCheckedIn ReservationStatus = "checked_in"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

// Terminal reports whether the status closes the reservation for good.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}

// PaymentRollup is the single authoritative payment state derived from a
// reservation's payments and refunds.
type PaymentRollup string

const (
	RollupPending  PaymentRollup = "pending"
	RollupPartial  PaymentRollup = "partial"
	RollupPaid     PaymentRollup = "paid"
	RollupRefunded PaymentRollup = "refunded"
)

// Reservation is the authoritative row for a guest's stay or slot.
// Intervals are half-open [StartAt, EndAt): back-to-back checkout and
// check-in on the same day do not conflict.
type Reservation struct {
	ID               int64             `json:"id"`
	ResourceID       int64             `json:"resource_id" validate:"required"`
	ChannelID        *int64            `json:"channel_id,omitempty"`
	BookingReference string            `json:"booking_reference"`
	OperationID      string            `json:"operation_id"`
	StartAt          time.Time         `json:"start_at" validate:"required"`
	EndAt            time.Time         `json:"end_at" validate:"required"`
	Adults           int               `json:"adults"`
	Children         int               `json:"children"`
	Status           ReservationStatus `json:"status"`
	PaymentStatus    PaymentRollup     `json:"payment_status"`
	TotalAmount      float64           `json:"total_amount"`
	Currency         string            `json:"currency"`
	// HoldExpiresAt bounds how long a pending hold blocks availability.
	// Cleared on confirmation.
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	// Conflict marks a channel booking accepted on an interval that was
	// already blocked. Resolution is an operator decision, never automatic.
	Conflict           bool       `json:"conflict,omitempty"`
	SpecialRequests    string     `json:"special_requests,omitempty"`
	InternalNotes      string     `json:"internal_notes,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

// Occupancy is the total headcount the reservation was made for.
func (r *Reservation) Occupancy() int {
	return r.Adults + r.Children
}

// HoldExpired reports whether a pending hold has passed its TTL.
func (r *Reservation) HoldExpired(now time.Time) bool {
	return r.Status == ReservationPending &&
		r.HoldExpiresAt != nil && !r.HoldExpiresAt.After(now)
}

// Blocks reports whether the reservation blocks its interval at the given
// moment. Confirmed and later non-failed statuses always block; a pending
// hold blocks only until it expires.
func (r *Reservation) Blocks(now time.Time) bool {
	switch r.Status {
	case ReservationConfirmed, ReservationCheckedIn, ReservationCompleted:
		return true
	case ReservationPending:
		return r.HoldExpiresAt == nil || r.HoldExpiresAt.After(now)
	}
	return false
}

// Overlaps applies the half-open interval rule.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartAt.Before(end) && start.Before(r.EndAt)
}
