package availability

import (
	"context"
	"time"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

// ReservationRepository is the persistence contract of the index. Any store
// with atomic row updates satisfies it; the service supplies serialization
// per resource on top.
type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByOperationID(ctx context.Context, opID string) (*domain.Reservation, error)
	FindBlocking(ctx context.Context, resourceID int64, start, end, now time.Time) ([]domain.Reservation, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to domain.ReservationStatus, fields map[string]interface{}) (bool, error)
}

type ResourceReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
}
