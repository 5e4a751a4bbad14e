package domain

import (
	"time"

	"gorm.io/datatypes"
)

type ResourceKind string

const (
	KindRoom     ResourceKind = "room"
	KindDining   ResourceKind = "dining"
	KindEvent    ResourceKind = "event"
	KindFacility ResourceKind = "facility"
)

// SlotBased reports whether the kind is booked as a flat slot rather than
// per night.
func (k ResourceKind) SlotBased() bool {
	return k == KindDining || k == KindEvent || k == KindFacility
}

func (k ResourceKind) Valid() bool {
	switch k {
	case KindRoom, KindDining, KindEvent, KindFacility:
		return true
	}
	return false
}

// Resource is a bookable unit: a room, a dining venue, an event space or a
// facility service. Identity is immutable; capacity and rates are mutable by
// admins. Resources are never deleted while reservations reference them,
// only deactivated.
type Resource struct {
	ID       int64        `json:"id"`
	Kind     ResourceKind `json:"kind" validate:"required"`
	Name     string       `json:"name" validate:"required"`
	Capacity int          `json:"capacity" validate:"required,gt=0"`
	BaseRate float64      `json:"base_rate" validate:"required,gte=0"`
	// WeekendRate applies to Friday and Saturday nights of room resources.
	// Zero means "use base rate".
	WeekendRate float64 `json:"weekend_rate,omitempty"`
	// RateOverrides holds optional per-weekday rates ("monday".."sunday")
	// and, for slot-based kinds, an optional "per_hour" rate.
	RateOverrides  datatypes.JSONMap `json:"rate_overrides,omitempty"`
	TotalInventory int               `json:"total_inventory"`
	Currency       string            `json:"currency"`
	Active         bool              `json:"active"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
