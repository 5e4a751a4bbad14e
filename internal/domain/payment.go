package domain

import "time"

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentSucceeded         PaymentStatus = "succeeded"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Counts reports whether the payment contributes to the reservation rollup.
// A refunded payment succeeded once; its refunds are subtracted separately.
func (s PaymentStatus) Counts() bool {
	switch s {
	case PaymentSucceeded, PaymentRefunded, PaymentPartiallyRefunded:
		return true
	}
	return false
}

// Payment is one settlement against a reservation (deposit, balance, ...).
// Once succeeded its amount is never rewritten; money only moves back out
// via Refund rows.
type Payment struct {
	ID                int64         `json:"id"`
	ReservationID     int64         `json:"reservation_id" validate:"required"`
	Amount            float64       `json:"amount" validate:"required,gt=0"`
	Currency          string        `json:"currency"`
	Method            string        `json:"method"`
	Status            PaymentStatus `json:"status"`
	ProviderReference string        `json:"provider_reference"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

type Refund struct {
	ID        int64     `json:"id"`
	PaymentID int64     `json:"payment_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
