package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

type resourceModel struct {
	ID             int64             `gorm:"column:id;primaryKey"`
	Kind           string            `gorm:"column:kind;index"`
	Name           string            `gorm:"column:name"`
	Capacity       int               `gorm:"column:capacity"`
	BaseRate       float64           `gorm:"column:base_rate"`
	WeekendRate    float64           `gorm:"column:weekend_rate"`
	RateOverrides  datatypes.JSONMap `gorm:"column:rate_overrides"`
	TotalInventory int               `gorm:"column:total_inventory"`
	Currency       string            `gorm:"column:currency"`
	Active         bool              `gorm:"column:active"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (resourceModel) TableName() string { return "resources" }

func toDomainResource(m resourceModel) *domain.Resource {
	return &domain.Resource{
		ID:             m.ID,
		Kind:           domain.ResourceKind(m.Kind),
		Name:           m.Name,
		Capacity:       m.Capacity,
		BaseRate:       m.BaseRate,
		WeekendRate:    m.WeekendRate,
		RateOverrides:  m.RateOverrides,
		TotalInventory: m.TotalInventory,
		Currency:       m.Currency,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toResourceModel(r *domain.Resource) resourceModel {
	return resourceModel{
		ID:             r.ID,
		Kind:           string(r.Kind),
		Name:           r.Name,
		Capacity:       r.Capacity,
		BaseRate:       r.BaseRate,
		WeekendRate:    r.WeekendRate,
		RateOverrides:  r.RateOverrides,
		TotalInventory: r.TotalInventory,
		Currency:       r.Currency,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	m := toResourceModel(res)
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return translate(tx.Error)
	}
	*res = *toDomainResource(m)
	return nil
}

func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	var m resourceModel
	if tx := r.db.WithContext(ctx).First(&m, id); tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainResource(m), nil
}

func (r *ResourceRepository) List(ctx context.Context, kind domain.ResourceKind, activeOnly bool) ([]domain.Resource, error) {
	q := r.db.WithContext(ctx).Model(&resourceModel{})
	if kind != "" {
		q = q.Where("kind = ?", string(kind))
	}
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var rows []resourceModel
	if tx := q.Order("id").Find(&rows); tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.Resource, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainResource(m))
	}
	return out, nil
}

func (r *ResourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	m := toResourceModel(res)
	tx := r.db.WithContext(ctx).Model(&resourceModel{}).
		Where("id = ?", res.ID).
		Updates(map[string]interface{}{
			"name":            m.Name,
			"capacity":        m.Capacity,
			"base_rate":       m.BaseRate,
			"weekend_rate":    m.WeekendRate,
			"rate_overrides":  m.RateOverrides,
			"total_inventory": m.TotalInventory,
			"currency":        m.Currency,
			"updated_at":      time.Now().UTC(),
		})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ResourceRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tx := r.db.WithContext(ctx).Model(&resourceModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
