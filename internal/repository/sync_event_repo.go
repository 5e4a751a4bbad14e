package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

type SyncEventRepository struct {
	db *gorm.DB
}

func NewSyncEventRepository(db *gorm.DB) *SyncEventRepository {
	return &SyncEventRepository{db: db}
}

type syncEventModel struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	ResourceID    int64     `gorm:"column:resource_id;uniqueIndex:idx_sync_dedup"`
	ChannelID     int64     `gorm:"column:channel_id;uniqueIndex:idx_sync_dedup"`
	OperationID   string    `gorm:"column:operation_id;uniqueIndex:idx_sync_dedup"`
	Operation     string    `gorm:"column:operation"`
	StartAt       time.Time `gorm:"column:start_at"`
	EndAt         time.Time `gorm:"column:end_at"`
	Status        string    `gorm:"column:status;index"`
	Attempts      int       `gorm:"column:attempts"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at;index"`
	LastError     string    `gorm:"column:last_error"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (syncEventModel) TableName() string { return "sync_events" }

func toDomainSyncEvent(m syncEventModel) *domain.SyncEvent {
	return &domain.SyncEvent{
		ID:            m.ID,
		ResourceID:    m.ResourceID,
		ChannelID:     m.ChannelID,
		OperationID:   m.OperationID,
		Operation:     domain.SyncOperation(m.Operation),
		StartAt:       m.StartAt,
		EndAt:         m.EndAt,
		Status:        domain.SyncStatus(m.Status),
		Attempts:      m.Attempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// Enqueue appends an outbox row. The (resource, channel, operation id)
// unique index makes re-enqueueing the same operation a no-op, which keeps
// retried booking flows from fanning out duplicate notifications.
func (r *SyncEventRepository) Enqueue(ctx context.Context, evt *domain.SyncEvent) error {
	now := time.Now().UTC()
	m := syncEventModel{
		ResourceID:    evt.ResourceID,
		ChannelID:     evt.ChannelID,
		OperationID:   evt.OperationID,
		Operation:     string(evt.Operation),
		StartAt:       evt.StartAt,
		EndAt:         evt.EndAt,
		Status:        string(domain.SyncPending),
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return translate(tx.Error)
	}
	*evt = *toDomainSyncEvent(m)
	return nil
}

// Due returns pending events whose next attempt time has passed.
func (r *SyncEventRepository) Due(ctx context.Context, now time.Time, limit int) ([]domain.SyncEvent, error) {
	var rows []syncEventModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", string(domain.SyncPending), now).
		Order("next_attempt_at").
		Limit(limit).
		Find(&rows)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.SyncEvent, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainSyncEvent(m))
	}
	return out, nil
}

func (r *SyncEventRepository) MarkSent(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Model(&syncEventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(domain.SyncSent),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})
	return translate(tx.Error)
}

// MarkRetry pushes a failed delivery back onto the queue with its attempt
// counter bumped; MarkFailed parks it permanently after the retry budget is
// spent.
func (r *SyncEventRepository) MarkRetry(ctx context.Context, id int64, attempts int, nextAttempt time.Time, lastErr string) error {
	tx := r.db.WithContext(ctx).Model(&syncEventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":        attempts,
			"next_attempt_at": nextAttempt,
			"last_error":      lastErr,
			"updated_at":      time.Now().UTC(),
		})
	return translate(tx.Error)
}

func (r *SyncEventRepository) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	tx := r.db.WithContext(ctx).Model(&syncEventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(domain.SyncFailed),
			"last_error": lastErr,
			"updated_at": time.Now().UTC(),
		})
	return translate(tx.Error)
}
