package payment

import (
	"context"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByProviderReference(ctx context.Context, ref string) (*domain.Payment, error)
	ListByReservation(ctx context.Context, reservationID int64) ([]domain.Payment, error)
	ListRefundsByPayment(ctx context.Context, paymentID int64) ([]domain.Refund, error)
	UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	SaveRefund(ctx context.Context, refund *domain.Refund, paymentStatus domain.PaymentStatus, reservationID int64, rollup domain.PaymentRollup) error
	ReservationIDsWithPayments(ctx context.Context) ([]int64, error)
}

type ReservationReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
}

type RollupWriter interface {
	UpdatePaymentRollup(ctx context.Context, id int64, rollup domain.PaymentRollup) error
}

// Confirmer lets a successful payment confirm the pending hold it pays
// for. Nil-safe: without it, confirmation stays an explicit caller step.
type Confirmer interface {
	Confirm(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error)
}
