package catalog

import "gorm.io/datatypes"

type CreateResourceRequest struct {
	Kind           string            `json:"kind" binding:"required"`
	Name           string            `json:"name" binding:"required"`
	Capacity       int               `json:"capacity" binding:"required"`
	BaseRate       float64           `json:"base_rate" binding:"required"`
	WeekendRate    float64           `json:"weekend_rate"`
	RateOverrides  datatypes.JSONMap `json:"rate_overrides"`
	TotalInventory int               `json:"total_inventory"`
	Currency       string            `json:"currency"`
}

type UpdateResourceRequest struct {
	Name           *string            `json:"name"`
	Capacity       *int               `json:"capacity"`
	BaseRate       *float64           `json:"base_rate"`
	WeekendRate    *float64           `json:"weekend_rate"`
	RateOverrides  *datatypes.JSONMap `json:"rate_overrides"`
	TotalInventory *int               `json:"total_inventory"`
	Currency       *string            `json:"currency"`
}
