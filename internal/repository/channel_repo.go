package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

type channelModel struct {
	ID             int64     `gorm:"column:id;primaryKey"`
	Code           string    `gorm:"column:code;uniqueIndex"`
	Name           string    `gorm:"column:name"`
	Active         bool      `gorm:"column:active"`
	WebhookKeyHash string    `gorm:"column:webhook_key_hash"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (channelModel) TableName() string { return "channels" }

type channelAllocationModel struct {
	ID             int64      `gorm:"column:id;primaryKey"`
	ResourceID     int64      `gorm:"column:resource_id;uniqueIndex:idx_alloc_resource_channel"`
	ChannelID      int64      `gorm:"column:channel_id;uniqueIndex:idx_alloc_resource_channel"`
	AllocatedCount int        `gorm:"column:allocated_count"`
	LastSyncedAt   *time.Time `gorm:"column:last_synced_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (channelAllocationModel) TableName() string { return "channel_allocations" }

func toDomainChannel(m channelModel) *domain.Channel {
	return &domain.Channel{
		ID:             m.ID,
		Code:           m.Code,
		Name:           m.Name,
		Active:         m.Active,
		WebhookKeyHash: m.WebhookKeyHash,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toDomainAllocation(m channelAllocationModel) *domain.ChannelAllocation {
	return &domain.ChannelAllocation{
		ID:             m.ID,
		ResourceID:     m.ResourceID,
		ChannelID:      m.ChannelID,
		AllocatedCount: m.AllocatedCount,
		LastSyncedAt:   m.LastSyncedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (r *ChannelRepository) CreateChannel(ctx context.Context, ch *domain.Channel) error {
	m := channelModel{
		Code:           ch.Code,
		Name:           ch.Name,
		Active:         ch.Active,
		WebhookKeyHash: ch.WebhookKeyHash,
	}
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return translate(tx.Error)
	}
	*ch = *toDomainChannel(m)
	return nil
}

func (r *ChannelRepository) GetChannelByID(ctx context.Context, id int64) (*domain.Channel, error) {
	var m channelModel
	if tx := r.db.WithContext(ctx).First(&m, id); tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainChannel(m), nil
}

func (r *ChannelRepository) GetChannelByCode(ctx context.Context, code string) (*domain.Channel, error) {
	var m channelModel
	tx := r.db.WithContext(ctx).Where("code = ?", code).First(&m)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainChannel(m), nil
}

func (r *ChannelRepository) ListChannels(ctx context.Context, activeOnly bool) ([]domain.Channel, error) {
	q := r.db.WithContext(ctx).Model(&channelModel{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var rows []channelModel
	if tx := q.Order("id").Find(&rows); tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.Channel, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainChannel(m))
	}
	return out, nil
}

func (r *ChannelRepository) SetChannelActive(ctx context.Context, id int64, active bool) error {
	tx := r.db.WithContext(ctx).Model(&channelModel{}).
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

func (r *ChannelRepository) GetAllocation(ctx context.Context, resourceID, channelID int64) (*domain.ChannelAllocation, error) {
	var m channelAllocationModel
	tx := r.db.WithContext(ctx).
		Where("resource_id = ? AND channel_id = ?", resourceID, channelID).
		First(&m)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainAllocation(m), nil
}

func (r *ChannelRepository) ListAllocations(ctx context.Context, resourceID int64) ([]domain.ChannelAllocation, error) {
	var rows []channelAllocationModel
	tx := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("channel_id").
		Find(&rows)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.ChannelAllocation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainAllocation(m))
	}
	return out, nil
}

// SumAllocations totals the counts other channels hold on the resource,
// the input to the over-allocation check.
func (r *ChannelRepository) SumAllocations(ctx context.Context, resourceID int64, excludeChannelID int64) (int, error) {
	var sum *int
	tx := r.db.WithContext(ctx).Model(&channelAllocationModel{}).
		Select("SUM(allocated_count)").
		Where("resource_id = ? AND channel_id <> ?", resourceID, excludeChannelID).
		Scan(&sum)
	if tx.Error != nil {
		return 0, translate(tx.Error)
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *ChannelRepository) UpsertAllocation(ctx context.Context, resourceID, channelID int64, count int) (*domain.ChannelAllocation, error) {
	now := time.Now().UTC()
	m := channelAllocationModel{
		ResourceID:     resourceID,
		ChannelID:      channelID,
		AllocatedCount: count,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "resource_id"}, {Name: "channel_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"allocated_count": count,
			"updated_at":      now,
		}),
	}).Create(&m)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return r.GetAllocation(ctx, resourceID, channelID)
}

func (r *ChannelRepository) DeleteAllocationsForChannel(ctx context.Context, channelID int64) error {
	tx := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Delete(&channelAllocationModel{})
	return translate(tx.Error)
}

func (r *ChannelRepository) TouchLastSynced(ctx context.Context, resourceID, channelID int64, at time.Time) error {
	tx := r.db.WithContext(ctx).Model(&channelAllocationModel{}).
		Where("resource_id = ? AND channel_id = ?", resourceID, channelID).
		Updates(map[string]interface{}{
			"last_synced_at": at,
			"updated_at":     at,
		})
	return translate(tx.Error)
}
