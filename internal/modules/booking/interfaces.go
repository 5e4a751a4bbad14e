package booking

import (
	"context"
	"time"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/pricing"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByReference(ctx context.Context, ref string) (*domain.Reservation, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to domain.ReservationStatus, fields map[string]interface{}) (bool, error)
	ListWithResourceDetails(ctx context.Context, resourceID int64, limit, offset int) ([]repository.ReservationDetails, error)
}

// Quoter prices the interval before the reservation attempt.
type Quoter interface {
	Quote(ctx context.Context, resourceID int64, start, end time.Time, adults, children int) (*pricing.Quote, error)
}

// Reserver is the availability index.
type Reserver interface {
	TryReserve(ctx context.Context, req availability.TryReserveRequest) (*domain.Reservation, error)
}

// Distributor fans availability changes out to the connected channels.
// Nil-safe in the service: a deployment without channels runs fine.
type Distributor interface {
	ReservationBooked(ctx context.Context, r *domain.Reservation) error
	ReservationCancelled(ctx context.Context, r *domain.Reservation) error
}

// CancellationPolicy decides whether a confirmed reservation may still be
// cancelled. The rules themselves (deadlines, fees) belong to the property,
// not to the core.
type CancellationPolicy interface {
	AllowCancel(ctx context.Context, r *domain.Reservation, actor domain.Actor) error
}

// PolicyFunc adapts a plain function to CancellationPolicy.
type PolicyFunc func(ctx context.Context, r *domain.Reservation, actor domain.Actor) error

func (f PolicyFunc) AllowCancel(ctx context.Context, r *domain.Reservation, actor domain.Actor) error {
	return f(ctx, r, actor)
}

// AllowAllCancellations is the default policy.
var AllowAllCancellations = PolicyFunc(func(context.Context, *domain.Reservation, domain.Actor) error {
	return nil
})
