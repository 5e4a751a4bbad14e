package catalog

import (
	"context"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

type ResourceRepository interface {
	Create(ctx context.Context, r *domain.Resource) error
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	List(ctx context.Context, kind domain.ResourceKind, activeOnly bool) ([]domain.Resource, error)
	Update(ctx context.Context, r *domain.Resource) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// ReservationCounter guards deactivation: a resource with open
// reservations can only be retired after they settle.
type ReservationCounter interface {
	CountOpen(ctx context.Context, resourceID int64) (int64, error)
}
