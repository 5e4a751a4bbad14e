package catalog

import (
	"context"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

// Service is the resource catalog: the static-ish registry of everything
// bookable. Identity is immutable, rates and capacity are staff-mutable,
// and retirement is always a soft deactivate.
type Service struct {
	resources    ResourceRepository
	reservations ReservationCounter
	currency     string
}

func NewService(resources ResourceRepository, reservations ReservationCounter, defaultCurrency string) *Service {
	return &Service{
		resources:    resources,
		reservations: reservations,
		currency:     defaultCurrency,
	}
}

func (s *Service) CreateResource(ctx context.Context, req CreateResourceRequest, actor domain.Actor) (*domain.Resource, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	kind := domain.ResourceKind(req.Kind)
	if !kind.Valid() || req.Name == "" || req.Capacity <= 0 || req.BaseRate < 0 {
		return nil, ErrValidation
	}

	inventory := req.TotalInventory
	if inventory <= 0 {
		inventory = 1
	}
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	r := &domain.Resource{
		Kind:           kind,
		Name:           req.Name,
		Capacity:       req.Capacity,
		BaseRate:       req.BaseRate,
		WeekendRate:    req.WeekendRate,
		RateOverrides:  req.RateOverrides,
		TotalInventory: inventory,
		Currency:       currency,
		Active:         true,
	}
	if err := s.resources.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	return s.resources.GetByID(ctx, id)
}

func (s *Service) ListResources(ctx context.Context, kind domain.ResourceKind, activeOnly bool) ([]domain.Resource, error) {
	if kind != "" && !kind.Valid() {
		return nil, ErrValidation
	}
	return s.resources.List(ctx, kind, activeOnly)
}

func (s *Service) UpdateResource(ctx context.Context, id int64, req UpdateResourceRequest, actor domain.Actor) (*domain.Resource, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	r, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, ErrValidation
		}
		r.Name = *req.Name
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, ErrValidation
		}
		r.Capacity = *req.Capacity
	}
	if req.BaseRate != nil {
		if *req.BaseRate < 0 {
			return nil, ErrValidation
		}
		r.BaseRate = *req.BaseRate
	}
	if req.WeekendRate != nil {
		r.WeekendRate = *req.WeekendRate
	}
	if req.RateOverrides != nil {
		r.RateOverrides = *req.RateOverrides
	}
	if req.TotalInventory != nil {
		if *req.TotalInventory <= 0 {
			return nil, ErrValidation
		}
		r.TotalInventory = *req.TotalInventory
	}
	if req.Currency != nil && *req.Currency != "" {
		r.Currency = *req.Currency
	}

	if err := s.resources.Update(ctx, r); err != nil {
		return nil, err
	}
	return s.resources.GetByID(ctx, id)
}

// DeactivateResource soft-retires a resource. Refused while pending,
// confirmed or checked-in reservations still reference it; history is
// never deleted.
func (s *Service) DeactivateResource(ctx context.Context, id int64, actor domain.Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	if _, err := s.resources.GetByID(ctx, id); err != nil {
		return err
	}

	open, err := s.reservations.CountOpen(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrHasOpenReservations
	}

	return s.resources.SetActive(ctx, id, false)
}

func (s *Service) ActivateResource(ctx context.Context, id int64, actor domain.Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.resources.SetActive(ctx, id, true)
}
