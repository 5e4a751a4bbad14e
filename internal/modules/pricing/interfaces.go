package pricing

import (
	"context"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

// ResourceReader is the slice of the catalog the calculator needs.
type ResourceReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
}
